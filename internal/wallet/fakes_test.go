// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/toeirei/walletkeeper/internal/events"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
)

// fakeStore is a plain SecureStore (no BatchWriter) that counts writes and
// can be told to fail reads or writes for specific slots.
type fakeStore struct {
	mu        sync.Mutex
	data      map[string]string
	writes    int
	failRead  error
	failWrite map[string]error
}

func newFakeStore(seed map[string]string) *fakeStore {
	s := &fakeStore{data: map[string]string{}, failWrite: map[string]error{}}
	for k, v := range seed {
		s.data[k] = v
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, slot string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead != nil {
		return "", false, s.failRead
	}
	v, ok := s.data[slot]
	return v, ok, nil
}

func (s *fakeStore) Set(_ context.Context, slot, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite[slot]; err != nil {
		return err
	}
	s.writes++
	s.data[slot] = value
	return nil
}

func (s *fakeStore) snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// batchStore adds a transactional SetMany on top of fakeStore.
type batchStore struct {
	*fakeStore
	batches int
	failErr error
}

func (b *batchStore) SetMany(_ context.Context, entries map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failErr != nil {
		return b.failErr
	}
	b.batches++
	for k, v := range entries {
		b.data[k] = v
	}
	return nil
}

// fakeRuntime derives keys from a counter and runs a configurable init func.
type fakeRuntime struct {
	deriveErr   error
	derived     atomic.Int32
	initCalls   atomic.Int32
	initFn      func(ctx context.Context, id model.WalletIdentity) error
	derivedFrom []string
	mu          sync.Mutex
}

func (r *fakeRuntime) DeriveKey(_ context.Context, name string) (security.Secret, error) {
	r.mu.Lock()
	r.derivedFrom = append(r.derivedFrom, name)
	r.mu.Unlock()
	if r.deriveErr != nil {
		return nil, r.deriveErr
	}
	n := r.derived.Add(1)
	return security.FromString(fmt.Sprintf("key-%d-%s", n, name)), nil
}

func (r *fakeRuntime) Initialize(ctx context.Context, id model.WalletIdentity) error {
	r.initCalls.Add(1)
	if r.initFn != nil {
		return r.initFn(ctx, id)
	}
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

type recordingPresenter struct {
	mu       sync.Mutex
	messages []string
}

func (p *recordingPresenter) ShowError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

func (p *recordingPresenter) shown() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

type staticIdentity model.WalletIdentity

func (s staticIdentity) Identity() (model.WalletIdentity, bool) {
	id := model.WalletIdentity(s)
	return id, id.IsComplete()
}

var errBoom = errors.New("boom")

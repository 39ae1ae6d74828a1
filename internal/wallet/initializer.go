// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"sync/atomic"

	clog "github.com/charmbracelet/log"

	"github.com/toeirei/walletkeeper/internal/events"
	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/model"
)

// State is the lifecycle position of an Initializer.
type State int32

const (
	NotStarted State = iota
	Starting
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Initializer runs the runtime's startup sequence at most once and delivers
// exactly one terminal signal: events.WalletReady on the bus, or the error
// message to the presenter. Ready and Failed are final; there is no retry.
type Initializer struct {
	runtime   Runtime
	source    IdentitySource
	bus       Publisher
	presenter ErrorPresenter
	log       *clog.Logger

	state atomic.Int32
	done  chan struct{}
	err   error // written once before done is closed
}

// InitializerOption configures an Initializer.
type InitializerOption func(*Initializer)

// WithInitializerLogger sets the logger used by the Initializer.
func WithInitializerLogger(l *clog.Logger) InitializerOption {
	return func(i *Initializer) { i.log = l }
}

// NewInitializer returns an Initializer in the NotStarted state. One
// Initializer should exist per process.
func NewInitializer(rt Runtime, source IdentitySource, bus Publisher, presenter ErrorPresenter, opts ...InitializerOption) *Initializer {
	i := &Initializer{
		runtime:   rt,
		source:    source,
		bus:       bus,
		presenter: presenter,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.log = logging.OrDefault(i.log)
	return i
}

// TryInitialize starts runtime initialization if it was never started and
// reports whether this call started it. Every later or concurrent call is a
// no-op. The returned operation cannot be cancelled: ctx values are kept but
// its cancellation is ignored.
func (i *Initializer) TryInitialize(ctx context.Context) bool {
	if !i.state.CompareAndSwap(int32(NotStarted), int32(Starting)) {
		return false
	}
	id, _ := i.source.Identity()
	i.log.Info("starting wallet runtime", "name", id.Name)

	go i.run(context.WithoutCancel(ctx), id)
	return true
}

func (i *Initializer) run(ctx context.Context, id model.WalletIdentity) {
	err := i.initialize(ctx, id)
	if err == nil {
		i.state.Store(int32(Ready))
		i.log.Info("wallet runtime ready", "name", id.Name)
		i.bus.Publish(events.WalletReady)
	} else {
		i.err = fmt.Errorf("%w: %w", ErrInitialization, err)
		i.state.Store(int32(Failed))
		i.log.Error("wallet runtime failed", "name", id.Name, "err", err)
		i.presenter.ShowError(err.Error())
	}
	close(i.done)
}

// initialize calls the runtime, turning a panic into an error so the
// terminal signal is always delivered.
func (i *Initializer) initialize(ctx context.Context, id model.WalletIdentity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panicked: %v", r)
		}
	}()
	return i.runtime.Initialize(ctx, id)
}

// State returns the current lifecycle state.
func (i *Initializer) State() State {
	return State(i.state.Load())
}

// Done is closed after the terminal signal has been delivered.
func (i *Initializer) Done() <-chan struct{} {
	return i.done
}

// Err returns the initialization error once Done is closed, nil otherwise.
// It matches ErrInitialization and unwraps to the runtime's error.
func (i *Initializer) Err() error {
	select {
	case <-i.done:
		return i.err
	default:
		return nil
	}
}

// Wait blocks until initialization finished or ctx ends. Ending ctx only
// stops waiting; the runtime keeps initializing.
func (i *Initializer) Wait(ctx context.Context) error {
	select {
	case <-i.done:
		return i.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

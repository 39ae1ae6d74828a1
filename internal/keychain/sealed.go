// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package keychain

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/toeirei/walletkeeper/internal/logging"
	"github.com/toeirei/walletkeeper/internal/security"
)

// ErrSealed is returned when a stored value cannot be opened with the
// configured passphrase.
var ErrSealed = errors.New("keychain: value cannot be unsealed with this passphrase")

const sealedPrefix = "sealed:v1:"

// Store is the slot/value contract shared by every keychain backend.
type Store interface {
	Get(ctx context.Context, slot string) (string, bool, error)
	Set(ctx context.Context, slot, value string) error
}

// Batch is implemented by stores that write several slots atomically.
type Batch interface {
	SetMany(ctx context.Context, entries map[string]string) error
}

// Sealed encrypts every value with a key derived from a passphrase before
// handing it to the inner store. Each value has its own salt and nonce
// (see security.Seal).
type Sealed struct {
	inner      Store
	passphrase security.Secret
}

// SealedBatch is a Sealed store whose inner store supports atomic batches.
type SealedBatch struct {
	*Sealed
	batch Batch
}

// Seal wraps inner. The returned store also implements Batch when inner does,
// so callers keep transactional writes.
func Seal(inner Store, passphrase security.Secret) Store {
	s := &Sealed{inner: inner, passphrase: security.FromBytes(passphrase)}
	if b, ok := inner.(Batch); ok {
		return &SealedBatch{Sealed: s, batch: b}
	}
	return s
}

// Get opens the value in slot. Values written before sealing was enabled are
// returned unchanged.
func (s *Sealed) Get(ctx context.Context, slot string) (string, bool, error) {
	raw, ok, err := s.inner.Get(ctx, slot)
	if err != nil || !ok {
		return raw, ok, err
	}
	if !strings.HasPrefix(raw, sealedPrefix) {
		logging.Debugf("keychain: slot %s holds an unsealed value", slot)
		return raw, true, nil
	}
	plain, err := s.open(raw)
	if err != nil {
		return "", false, fmt.Errorf("slot %s: %w", slot, err)
	}
	return plain, true, nil
}

// Set seals value and writes it to slot.
func (s *Sealed) Set(ctx context.Context, slot, value string) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, slot, sealed)
}

// SetMany seals every entry and writes them in one batch.
func (s *SealedBatch) SetMany(ctx context.Context, entries map[string]string) error {
	out := make(map[string]string, len(entries))
	for slot, v := range entries {
		sealed, err := s.seal(v)
		if err != nil {
			return err
		}
		out[slot] = sealed
	}
	return s.batch.SetMany(ctx, out)
}

func (s *Sealed) seal(value string) (string, error) {
	out, err := security.Seal(s.passphrase, []byte(value))
	if err != nil {
		return "", fmt.Errorf("keychain: %w", err)
	}
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(out), nil
}

func (s *Sealed) open(raw string) (string, error) {
	data, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(raw, sealedPrefix))
	if err != nil {
		return "", ErrSealed
	}
	plain, err := security.Open(s.passphrase, data)
	if err != nil {
		return "", ErrSealed
	}
	return string(plain), nil
}

// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/toeirei/walletkeeper/internal/events"
	"github.com/toeirei/walletkeeper/internal/model"
	"github.com/toeirei/walletkeeper/internal/security"
)

// SecureStore is the durable key-value store holding the credential record.
// Get reports ok=false for a slot that was never written.
type SecureStore interface {
	Get(ctx context.Context, slot string) (value string, ok bool, err error)
	Set(ctx context.Context, slot, value string) error
}

// BatchWriter is implemented by stores that can write several slots in one
// transaction. The Provisioner prefers it when available.
type BatchWriter interface {
	SetMany(ctx context.Context, entries map[string]string) error
}

// KeyDeriver produces the key for a freshly generated wallet name.
type KeyDeriver interface {
	DeriveKey(ctx context.Context, name string) (security.Secret, error)
}

// Runtime is the wallet runtime that owns key material.
type Runtime interface {
	KeyDeriver
	// Initialize runs the runtime startup sequence for id. It may block for
	// as long as startup takes.
	Initialize(ctx context.Context, id model.WalletIdentity) error
}

// IdentitySource exposes the active wallet identity.
type IdentitySource interface {
	Identity() (model.WalletIdentity, bool)
}

// Publisher is the publish side of the event bus.
type Publisher interface {
	Publish(ev events.Event)
}

// ErrorPresenter displays a terminal failure to the user.
type ErrorPresenter interface {
	ShowError(message string)
}

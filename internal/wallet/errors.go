// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package wallet

import "errors"

var (
	// ErrKeyDerivation is returned by SetupWallet when the runtime could not
	// derive a key for a freshly generated name. Nothing is persisted.
	ErrKeyDerivation = errors.New("wallet: key derivation failed")
	// ErrStoreUnavailable is returned when the credential record could not
	// be written to the secure store.
	ErrStoreUnavailable = errors.New("wallet: secure store unavailable")
	// ErrRecordUnreadable is returned by SetupWallet when the store holds a
	// credential record it cannot decode, such as values sealed under a
	// different passphrase. The record is left untouched unless forced.
	ErrRecordUnreadable = errors.New("wallet: persisted record cannot be read")
	// ErrInvalidIdentity is returned by Setup for an empty name or key.
	ErrInvalidIdentity = errors.New("wallet: name and key must both be set")
	// ErrInitialization wraps the error the runtime's Initialize returned.
	ErrInitialization = errors.New("wallet: runtime initialization failed")
)

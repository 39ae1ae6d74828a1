// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package wallet provisions the wallet identity and starts the wallet runtime.
//
// A Provisioner decides, from the persisted keychain record and a force flag,
// whether to reuse the stored (name, key) pair or to generate a new one. An
// Initializer starts the runtime at most once per process and reports exactly
// one terminal signal: a ready event on the bus or a message to the error
// presenter.
//
// The collaborators (keychain, runtime, bus, presenter) are small interfaces
// declared in this package; concrete implementations live in internal/keychain,
// internal/agent, internal/events and internal/ui.
package wallet

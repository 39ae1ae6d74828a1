// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the data structures shared between the provisioning
// core, the keychain and the wallet runtime.
package model // import "github.com/toeirei/walletkeeper/internal/model"

import "github.com/toeirei/walletkeeper/internal/security"

// Keychain slot names holding the persisted credential record.
const (
	SlotWalletName = "walletName"
	SlotWalletKey  = "walletKey"
)

// DefaultNamePrefix is prepended to every generated wallet name.
const DefaultNamePrefix = "Topcoder-Dev-"

// WalletIdentity is the (name, key) pair identifying a wallet instance to the
// wallet runtime. Name and Key are set together or not at all.
type WalletIdentity struct {
	Name string          // Opaque wallet identifier, never empty once set.
	Key  security.Secret // Key material; redacted by fmt, JSON and YAML.
}

// IsComplete reports whether both halves of the identity are present.
func (w WalletIdentity) IsComplete() bool {
	return w.Name != "" && !w.Key.IsEmpty()
}

// String renders the identity with the key reduced to its fingerprint.
func (w WalletIdentity) String() string {
	if !w.IsComplete() {
		return "<unset>"
	}
	return w.Name + " (key " + w.Key.Fingerprint() + ")"
}

// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cli builds the walletkeeper cobra command tree. Every command gets
// its services (keychain, wallet runtime, provisioner, initializer) from the
// root command's PersistentPreRunE.
package cli

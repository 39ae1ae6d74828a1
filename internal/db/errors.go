// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "errors"

// ErrUnsupportedType is returned for a database type other than sqlite,
// postgres or mysql.
var ErrUnsupportedType = errors.New("unsupported database type")

// ErrClosed is returned by store operations after Close.
var ErrClosed = errors.New("keychain store is closed")

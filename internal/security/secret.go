// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security holds the redacting container used for wallet key material.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

const redacted = "[SECRET]"

// Secret is a thin wrapper around a byte slice intended to hold sensitive
// material (wallet keys, keychain passphrases). It implements redaction
// helpers so accidental formatting, JSON or YAML marshaling never reveal data.
type Secret []byte

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter to ensure `%v`, `%#v` and friends are redacted.
func (s Secret) Format(f fmt.State, c rune) {
	_, _ = io.WriteString(f, redacted)
}

// Reveal returns the secret as a string. Only the keychain and the wallet
// runtime should need this.
func (s Secret) Reveal() string { return string(s) }

// Bytes returns a copy of the underlying bytes. Callers are responsible for
// zeroing sensitive copies when done.
func (s Secret) Bytes() []byte {
	out := make([]byte, len(s))
	copy(out, s)
	return out
}

// IsEmpty reports whether the secret carries no material.
func (s Secret) IsEmpty() bool { return len(s) == 0 }

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return subtle.ConstantTimeCompare(s, other) == 1
}

// Fingerprint returns the first 8 hex characters of the SHA-256 digest. It is
// the only representation of a key that may appear in logs.
func (s Secret) Fingerprint() string {
	if len(s) == 0 {
		return ""
	}
	sum := sha256.Sum256(s)
	return hex.EncodeToString(sum[:])[:8]
}

// Zero overwrites the underlying byte slice with zeros.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}

// MarshalJSON redacts secrets in JSON marshaling.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoding, which also covers YAML encoders.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// FromString creates a Secret from a string input.
func FromString(in string) Secret { return Secret([]byte(in)) }

// FromBytes creates a Secret from bytes (it makes a copy).
func FromBytes(in []byte) Secret {
	out := make([]byte, len(in))
	copy(out, in)
	return Secret(out)
}

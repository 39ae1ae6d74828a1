// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrOpen is returned when sealed data cannot be authenticated with the
// given passphrase, or is truncated.
var ErrOpen = errors.New("sealed data cannot be opened")

const (
	saltLen  = 16
	nonceLen = 24

	argonTime    = 1
	argonMemory  = 19 * 1024
	argonThreads = 1
)

// Seal encrypts plaintext with a key derived from passphrase via Argon2id.
// The output is salt || nonce || secretbox(plaintext); every call uses a
// fresh salt and nonce.
func Seal(passphrase Secret, plaintext []byte) ([]byte, error) {
	buf := make([]byte, saltLen+nonceLen, saltLen+nonceLen+len(plaintext)+secretbox.Overhead)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	var nonce [nonceLen]byte
	copy(nonce[:], buf[saltLen:])
	return secretbox.Seal(buf, plaintext, &nonce, deriveBoxKey(passphrase, buf[:saltLen])), nil
}

// Open reverses Seal.
func Open(passphrase Secret, sealed []byte) ([]byte, error) {
	if len(sealed) < saltLen+nonceLen+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceLen]byte
	copy(nonce[:], sealed[saltLen:saltLen+nonceLen])
	plain, ok := secretbox.Open(nil, sealed[saltLen+nonceLen:], &nonce, deriveBoxKey(passphrase, sealed[:saltLen]))
	if !ok {
		return nil, ErrOpen
	}
	return plain, nil
}

func deriveBoxKey(passphrase Secret, salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, 32))
	return &key
}

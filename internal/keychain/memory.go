// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keychain provides secure store implementations for the wallet
// credential record: an in-memory store and a sealing wrapper that encrypts
// values before they reach an underlying store.
package keychain

import (
	"context"
	"sync"
)

// Memory is a process-local store. Values are lost when the process exits;
// it is meant for tests and ephemeral wallets.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value stored in slot.
func (m *Memory) Get(_ context.Context, slot string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[slot]
	return v, ok, nil
}

// Set stores value in slot.
func (m *Memory) Set(_ context.Context, slot, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[slot] = value
	return nil
}

// SetMany stores all entries under one lock, so readers never see a subset.
func (m *Memory) SetMany(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

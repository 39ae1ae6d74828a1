// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"
)

// KeychainEntryModel is the bun model for one keychain slot.
type KeychainEntryModel struct {
	bun.BaseModel `bun:"table:keychain_entries"`
	Slot          string    `bun:"slot,pk"`
	Value         string    `bun:"value"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

// KeychainStore is a durable slot/value store on top of bun. Single writes
// are atomic per slot; SetMany writes all slots in one transaction.
type KeychainStore struct {
	bun    *bun.DB
	dbType string
	closed atomic.Bool
}

// Type returns the configured database type.
func (s *KeychainStore) Type() string { return s.dbType }

// BunDB exposes the underlying bun handle for maintenance and tests.
func (s *KeychainStore) BunDB() *bun.DB { return s.bun }

// Get returns the value stored in slot. A missing slot is not an error.
func (s *KeychainStore) Get(ctx context.Context, slot string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	var m KeychainEntryModel
	err := s.bun.NewSelect().Model(&m).Where("slot = ?", slot).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read slot %s: %w", slot, err)
	}
	return m.Value, true, nil
}

// Set writes value into slot, replacing any previous value.
func (s *KeychainStore) Set(ctx context.Context, slot, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.upsert(ctx, s.bun, slot, value); err != nil {
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	dbLogf("db: keychain slot %s updated", slot)
	return nil
}

// SetMany writes every entry inside one transaction: either all slots are
// updated or none are.
func (s *KeychainStore) SetMany(ctx context.Context, entries map[string]string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	// Deterministic order keeps lock acquisition consistent across writers.
	slots := make([]string, 0, len(entries))
	for slot := range entries {
		slots = append(slots, slot)
	}
	sort.Strings(slots)

	err := s.bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, slot := range slots {
			if err := s.upsert(ctx, tx, slot, entries[slot]); err != nil {
				return fmt.Errorf("write slot %s: %w", slot, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	dbLogf("db: keychain slots %v updated in one transaction", slots)
	return nil
}

// Slots lists the slot names currently stored.
func (s *KeychainStore) Slots(ctx context.Context) ([]string, error) {
	var slots []string
	if err := s.bun.NewSelect().Model((*KeychainEntryModel)(nil)).Column("slot").Order("slot ASC").Scan(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Close releases the database handle.
func (s *KeychainStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.bun.Close()
}

func (s *KeychainStore) upsert(ctx context.Context, db bun.IDB, slot, value string) error {
	m := &KeychainEntryModel{Slot: slot, Value: value, UpdatedAt: time.Now().UTC()}
	q := db.NewInsert().Model(m)
	if s.dbType == "mysql" {
		q = q.On("DUPLICATE KEY UPDATE").Set("value = VALUES(value)").Set("updated_at = VALUES(updated_at)")
	} else {
		q = q.On("CONFLICT (slot) DO UPDATE").Set("value = EXCLUDED.value").Set("updated_at = EXCLUDED.updated_at")
	}
	_, err := q.Exec(ctx)
	return err
}

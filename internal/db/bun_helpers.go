// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"

	"github.com/uptrace/bun"
)

// rawQuerier is satisfied by *bun.DB, bun.Tx and bun.Conn.
type rawQuerier interface {
	NewRaw(query string, args ...any) *bun.RawQuery
}

// execRaw runs a statement that returns no rows. Placeholders use bun's `?`
// syntax on every dialect.
func execRaw(ctx context.Context, q rawQuerier, query string, args ...any) error {
	_, err := q.NewRaw(query, args...).Exec(ctx)
	return err
}

// scanRaw runs query and scans the first row into dest.
func scanRaw(ctx context.Context, q rawQuerier, dest any, query string, args ...any) error {
	return q.NewRaw(query, args...).Scan(ctx, dest)
}

// migrationApplied reports whether version is recorded in schema_migrations.
func migrationApplied(ctx context.Context, q rawQuerier, version string) (bool, error) {
	var n int
	if err := scanRaw(ctx, q, &n, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version); err != nil {
		return false, err
	}
	return n > 0, nil
}

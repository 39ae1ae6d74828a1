// Copyright (c) 2026 Keymaster Team
// Walletkeeper - wallet identity provisioning
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the SQL-backed keychain for Walletkeeper.
// It abstracts the underlying database (SQLite, PostgreSQL, MySQL) behind
// bun so the keychain behaves the same on every engine.
package db // import "github.com/toeirei/walletkeeper/internal/db"

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	//go:embed migrations
	embeddedMigrations embed.FS
	// sqlOpenFunc allows tests to override database opening behavior.
	sqlOpenFunc = sql.Open
)

// driverFor maps a configured database type to its registered driver name.
// The pgx stdlib registers driver name "pgx"; "postgres" maps to that driver.
func driverFor(dbType string) (string, error) {
	switch dbType {
	case "sqlite", "mysql":
		return dbType, nil
	case "postgres":
		return "pgx", nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedType, dbType)
	}
}

// Open opens a sql.DB for the given DSN, runs migrations, and returns a
// KeychainStore backed by a long-lived *bun.DB.
func Open(dbType, dsn string) (*KeychainStore, error) {
	bdb, err := openBun(dbType, dsn)
	if err != nil {
		return nil, err
	}

	migStart := time.Now()
	if err := RunMigrations(context.Background(), bdb, dbType); err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	dbLogf("db: migrations for %s completed in %s", dbType, time.Since(migStart))

	return &KeychainStore{bun: bdb, dbType: dbType}, nil
}

// openBun opens the driver for dbType and wraps it in the matching dialect.
func openBun(dbType, dsn string) (*bun.DB, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(sqlDB, dbType, dsn)
	dbLogf("db: opened %s driver in %s", driverName, time.Since(start))
	return createBunDB(sqlDB, dbType), nil
}

// configurePool applies connection pool limits. Values can be overridden via
// environment variables for CI or production tuning.
func configurePool(sqlDB *sql.DB, dbType, dsn string) {
	const (
		defaultMaxOpenConns    = 10
		defaultMaxIdleConns    = 10
		defaultConnMaxLifetime = 5 * time.Minute
		defaultConnMaxIdle     = 60 * time.Second
	)

	maxOpen := envInt("WALLETKEEPER_DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	maxIdle := envInt("WALLETKEEPER_DB_MAX_IDLE_CONNS", defaultMaxIdleConns)

	// In-memory SQLite databases are per connection; force a single one so
	// schema and data stay visible to every query.
	if dbType == "sqlite" && (dsn == ":memory:" || strings.Contains(dsn, "mode=memory")) {
		maxOpen = 1
		maxIdle = 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(envInt("WALLETKEEPER_DB_CONN_MAX_LIFETIME_SECONDS", int(defaultConnMaxLifetime/time.Second))) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(envInt("WALLETKEEPER_DB_CONN_MAX_IDLE_SECONDS", int(defaultConnMaxIdle/time.Second))) * time.Second)
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

// createBunDB constructs a *bun.DB for the provided *sql.DB and dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case "postgres":
		return bun.NewDB(sqlDB, pgdialect.New())
	case "mysql":
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// RunMigrations applies the embedded migrations for dbType that have not been
// recorded in schema_migrations yet. Each migration runs in its own transaction.
func RunMigrations(ctx context.Context, bdb *bun.DB, dbType string) error {
	migrationsPath := fmt.Sprintf("migrations/%s", dbType)

	entries, err := fs.ReadDir(embeddedMigrations, migrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read embedded migrations (%s): %w", migrationsPath, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	// MySQL does not permit TEXT columns to be indexed without a length.
	create := `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMP)`
	if dbType == "mysql" {
		create = `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP)`
	}
	if err := execRaw(ctx, bdb, create); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	for _, fname := range ups {
		version := strings.TrimSuffix(fname, ".up.sql")

		applied, err := migrationApplied(ctx, bdb, version)
		if err != nil {
			return fmt.Errorf("failed to check migration version %s: %w", version, err)
		}
		if applied {
			continue
		}

		p := path.Join(migrationsPath, fname)
		data, err := embeddedMigrations.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", p, err)
		}

		err = bdb.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := execRaw(ctx, tx, string(data)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", version, err)
			}
			if err := execRaw(ctx, tx, "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)", version, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		dbLogf("db: applied migration %s", version)
	}
	return nil
}

// RunDBMaintenance performs engine-specific maintenance tasks for the given
// database DSN. For SQLite this runs PRAGMA optimize, VACUUM and an
// integrity check, for Postgres VACUUM ANALYZE, and for MySQL OPTIMIZE TABLE
// on the keychain table.
func RunDBMaintenance(ctx context.Context, dbType, dsn string) error {
	bdb, err := openBun(dbType, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = bdb.Close() }()

	switch dbType {
	case "sqlite":
		// PRAGMA optimize may not be useful in some environments
		// (e.g., in-memory filesystems); treat its errors as non-fatal.
		if err := execRaw(ctx, bdb, "PRAGMA optimize"); err != nil {
			dbLogf("db: sqlite optimize failed (ignored): %v", err)
		}
		if err := execRaw(ctx, bdb, "VACUUM"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		var res string
		if err := scanRaw(ctx, bdb, &res, "PRAGMA integrity_check"); err != nil {
			return fmt.Errorf("sqlite integrity_check failed: %w", err)
		}
		if res != "ok" {
			return fmt.Errorf("sqlite integrity_check failed: %s", res)
		}
	case "postgres":
		if err := execRaw(ctx, bdb, "VACUUM ANALYZE keychain_entries"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case "mysql":
		if err := execRaw(ctx, bdb, "OPTIMIZE TABLE keychain_entries"); err != nil {
			return fmt.Errorf("mysql optimize failed: %w", err)
		}
	}
	return nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/lidercheck/apiserver/config"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL engine behind the shared handle.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const (
	sqliteDriver        = "sqlite"
	postgresDriver      = "postgres"
	sqliteBusyTimeout   = "_pragma=busy_timeout(5000)"
	defaultPingTimeout  = 5 * time.Second
	defaultConnMaxIdle  = 2 * time.Minute
	defaultConnMaxLife  = 30 * time.Minute
	defaultMaxIdleConns = 5
	defaultMaxOpenConns = 25
)

// DialectOf returns the dialect selected by the database config.
func DialectOf(cfg config.DatabaseConfig) Dialect {
	if cfg.IsSQLite() {
		return SQLite
	}
	return Postgres
}

// Open opens the live store described by cfg and verifies it answers.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.Database.IsSQLite() {
		return OpenSQLite(ctx, cfg.Database.Path)
	}

	db, err := sql.Open(postgresDriver, PostgresURL(cfg.Database))
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(defaultConnMaxIdle)
	db.SetConnMaxLifetime(defaultConnMaxLife)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetMaxOpenConns(defaultMaxOpenConns)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite file as a single-connection
// handle. SQLite serializes writers itself; one connection keeps every
// statement of the process on the same lock.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, path+"?"+sqliteBusyTimeout)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLiteReadOnly opens an existing SQLite file without write access.
// A missing file is an error instead of a new empty database.
func OpenSQLiteReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	db, err := sql.Open(sqliteDriver, "file:"+path+"?mode=ro&"+sqliteBusyTimeout)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrationURL returns the database URL understood by golang-migrate.
func MigrationURL(cfg config.DatabaseConfig) string {
	if cfg.IsSQLite() {
		return "sqlite://" + cfg.Path
	}
	return PostgresURL(cfg)
}

// PostgresURL builds a lib/pq connection URL.
func PostgresURL(cfg config.DatabaseConfig) string {
	sslmode := "disable"
	if cfg.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func ping(ctx context.Context, db *sql.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

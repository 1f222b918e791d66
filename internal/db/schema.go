package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations
var migrationFS embed.FS

const (
	AdminMatricula = "admin"
	adminName      = "Administrador"
	adminRole      = "Admin"
	adminShift     = "1"
)

// Column is one additive column migration.
type Column struct {
	Table string
	Name  string
	Type  string
}

// Columns is the ordered list of columns added after the base tables were
// first shipped. Entries are never removed or renamed.
var Columns = []Column{
	{Table: "users", Name: "shift", Type: "TEXT"},
	{Table: "users", Name: "email", Type: "TEXT"},
	{Table: "users", Name: "is_admin", Type: "INTEGER DEFAULT 0"},
	{Table: "checklist_logs", Name: "items_snapshot", Type: "TEXT"},
	{Table: "maintenance_logs", Name: "items_snapshot", Type: "TEXT"},
	{Table: "maintenance_logs", Name: "maintenance_target", Type: "TEXT"},
	{Table: "line_stops", Name: "status", Type: "TEXT DEFAULT 'WAITING_JUSTIFICATION'"},
	{Table: "line_stops", Name: "signed_doc_url", Type: "TEXT"},
	{Table: "checklist_items", Name: "type", Type: "TEXT DEFAULT 'LEADER'"},
	{Table: "scrap_logs", Name: "line", Type: "TEXT"},
	{Table: "materials", Name: "price", Type: "REAL"},
}

// Manager owns the schema of the live store.
type Manager struct {
	db            *sql.DB
	dialect       Dialect
	migrationURL  string
	adminPassword string
	logger        *zap.Logger
}

func NewManager(db *sql.DB, dialect Dialect, migrationURL, adminPassword string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		db:            db,
		dialect:       dialect,
		migrationURL:  migrationURL,
		adminPassword: adminPassword,
		logger:        logger,
	}
}

// EnsureSchema brings the store up to date. It is safe to run on every start.
// Only a failure to create the base tables is returned; column and seed
// failures are logged.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	if err := m.createTables(); err != nil {
		return err
	}

	for _, col := range Columns {
		if err := m.EnsureColumn(ctx, col); err != nil {
			m.logger.Warn("column migration failed",
				zap.String("table", col.Table),
				zap.String("column", col.Name),
				zap.Error(err),
			)
		}
	}

	if err := m.seedAdmin(ctx); err != nil {
		m.logger.Error("admin seed failed", zap.Error(err))
	}
	return nil
}

func (m *Manager) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations/"+string(m.dialect))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", src, m.migrationURL)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return migrator, nil
}

func (m *Manager) createTables() error {
	migrator, err := m.newMigrator()
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate up failed: %w", err)
	}
	return nil
}

// Version reports the applied base-table migration. version is 0 when none
// has run yet.
func (m *Manager) Version() (version uint, dirty bool, err error) {
	migrator, err := m.newMigrator()
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	version, dirty, err = migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// EnsureColumn adds col unless it already exists.
func (m *Manager) EnsureColumn(ctx context.Context, col Column) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", col.Table, col.Name, col.Type)
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		if isDuplicateColumn(err) {
			return nil
		}
		return err
	}
	m.logger.Info("column added", zap.String("table", col.Table), zap.String("column", col.Name))
	return nil
}

// isDuplicateColumn recognizes the "column already exists" failure of each
// engine. SQLite has no error code for it, so the driver message is matched;
// a driver upgrade that rewords it would surface as warn logs on every start.
func isDuplicateColumn(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42701"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

func (m *Manager) seedAdmin(ctx context.Context) error {
	var count int
	if err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE matricula = $1`, AdminMatricula,
	).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(m.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO users (matricula, name, role, shift, password, is_admin)
		VALUES ($1, $2, $3, $4, $5, 1)
	`, AdminMatricula, adminName, adminRole, adminShift, string(hash))
	if err != nil {
		return err
	}
	m.logger.Info("admin user created", zap.String("matricula", AdminMatricula))
	return nil
}

// PurgeBlankIDs deletes line stops and meetings whose id is NULL or empty.
// Such rows cannot be addressed by any operation.
func (m *Manager) PurgeBlankIDs(ctx context.Context) (lineStops, meetings int64, err error) {
	lineStops, err = m.purge(ctx, "line_stops")
	if err != nil {
		return 0, 0, err
	}
	meetings, err = m.purge(ctx, "meetings")
	if err != nil {
		return lineStops, 0, err
	}
	return lineStops, meetings, nil
}

func (m *Manager) purge(ctx context.Context, table string) (int64, error) {
	res, err := m.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id IS NULL OR id = ''`, table))
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("purged rows without id", zap.String("table", table), zap.Int64("rows", n))
	}
	return n, nil
}

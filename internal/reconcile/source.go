package reconcile

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lidercheck/apiserver/internal/db"
)

// Source reads a legacy SQLite database whose exact schema is unknown.
type Source struct {
	db *sql.DB
}

func NewSource(db *sql.DB) *Source {
	return &Source{db: db}
}

// OpenSource opens the legacy file at path read-only.
func OpenSource(ctx context.Context, path string) (*Source, error) {
	handle, err := db.OpenSQLiteReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	return NewSource(handle), nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

// Tables lists the user tables of the legacy database.
func (s *Source) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// FirstExisting returns the first candidate present in tables. Names are
// compared case-insensitively, as SQLite does.
func FirstExisting(tables, candidates []string) (string, bool) {
	existing := AllExisting(tables, candidates)
	if len(existing) == 0 {
		return "", false
	}
	return existing[0], true
}

// AllExisting returns every candidate present in tables, in candidate order.
func AllExisting(tables, candidates []string) []string {
	index := make(map[string]string, len(tables))
	for _, table := range tables {
		index[strings.ToLower(table)] = table
	}

	out := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if table, ok := index[strings.ToLower(candidate)]; ok {
			out = append(out, table)
		}
	}
	return out
}

// Rows reads every row of table. BLOB values are returned as strings.
func (s *Source) Rows(ctx context.Context, table string) ([]Row, error) {
	query := `SELECT * FROM "` + strings.ReplaceAll(table, `"`, `""`) + `"`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

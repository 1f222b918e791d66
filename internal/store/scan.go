package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func nullInt(ni sql.NullInt64) int {
	if !ni.Valid {
		return 0
	}
	return int(ni.Int64)
}

func nullFloat(nf sql.NullFloat64) float64 {
	if !nf.Valid {
		return 0
	}
	return nf.Float64
}

func optionalString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// mergeColumn is one column of a merge. Insert is the value a new row gets;
// Set columns also overwrite an existing row with Insert.
type mergeColumn struct {
	Name   string
	Insert any
	Set    bool
}

// patchColumn merges value when it is set and inserts def otherwise.
func patchColumn[T any](name string, value *T, def any) mergeColumn {
	if value == nil {
		return mergeColumn{Name: name, Insert: def}
	}
	return mergeColumn{Name: name, Insert: *value, Set: true}
}

// merge inserts the row keyed by key or, when it exists, updates only the
// Set columns. Table and column names are never caller input.
func merge(ctx context.Context, exec execer, table, keyColumn string, key any, cols []mergeColumn) error {
	names := []string{keyColumn}
	params := []string{"$1"}
	args := []any{key}
	var updates []string
	for i, col := range cols {
		names = append(names, col.Name)
		params = append(params, fmt.Sprintf("$%d", i+2))
		args = append(args, col.Insert)
		if col.Set {
			updates = append(updates, col.Name+" = excluded."+col.Name)
		}
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	query := "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") ON CONFLICT (" + keyColumn + ") " + conflict
	_, err := exec.ExecContext(ctx, query, args...)
	return err
}

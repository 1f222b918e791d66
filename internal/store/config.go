package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lidercheck/apiserver/types"
)

// ConfigRepository handles persistence for checklist items, the named
// configuration lists and role permissions. Every replace runs in one
// transaction so readers never see a half-written configuration.
type ConfigRepository struct {
	db *sql.DB
}

func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func settingTable(list types.SettingList) (string, error) {
	switch list {
	case types.SettingRoles, types.SettingLines, types.SettingModels, types.SettingStations:
		return "config_" + string(list), nil
	}
	return "", fmt.Errorf("unknown setting list %q", list)
}

func (r *ConfigRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *ConfigRepository) ListItems(ctx context.Context) ([]types.ChecklistItem, error) {
	const query = `
		SELECT id, category, text, evidence, image_url, type
		FROM checklist_items
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]types.ChecklistItem, 0)
	for rows.Next() {
		var (
			id                                    int64
			category, text, evidence, image, kind sql.NullString
		)
		if err := rows.Scan(&id, &category, &text, &evidence, &image, &kind); err != nil {
			return nil, err
		}
		item := types.ChecklistItem{
			ID:       strconv.FormatInt(id, 10),
			Category: nullString(category),
			Text:     nullString(text),
			Evidence: nullString(evidence),
			ImageURL: nullString(image),
			Type:     types.ItemType(nullString(kind)),
		}
		if item.Type == "" {
			item.Type = types.ItemTypeLeader
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceItems deletes every checklist item and inserts items in order.
// Items are assigned fresh ids; any type other than MAINTENANCE is stored
// as LEADER.
func (r *ConfigRepository) ReplaceItems(ctx context.Context, items []types.ChecklistItem) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_items`); err != nil {
			return err
		}
		const query = `
			INSERT INTO checklist_items (category, text, evidence, image_url, type)
			VALUES ($1, $2, $3, $4, $5)`
		for _, item := range items {
			itemType := types.ItemTypeLeader
			if item.Type == types.ItemTypeMaintenance {
				itemType = types.ItemTypeMaintenance
			}
			if _, err := tx.ExecContext(ctx, query,
				item.Category, item.Text, item.Evidence, item.ImageURL, string(itemType),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSetting returns the names of one configuration list sorted by
// name.
func (r *ConfigRepository) ListSetting(ctx context.Context, list types.SettingList) ([]string, error) {
	table, err := settingTable(list)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT name FROM `+table+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

// AddSetting inserts name into list. Adding an existing name is a no-op.
func (r *ConfigRepository) AddSetting(ctx context.Context, list types.SettingList, name string) error {
	return addSetting(ctx, r.db, list, name)
}

func addSetting(ctx context.Context, exec execer, list types.SettingList, name string) error {
	table, err := settingTable(list)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	return err
}

func (r *ConfigRepository) DeleteSetting(ctx context.Context, list types.SettingList, name string) error {
	table, err := settingTable(list)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE name = $1`, name)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ReplaceSetting swaps the whole content of list for names.
func (r *ConfigRepository) ReplaceSetting(ctx context.Context, list types.SettingList, names []string) error {
	table, err := settingTable(list)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
		for _, name := range names {
			if err := addSetting(ctx, tx, list, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ConfigRepository) ListPermissions(ctx context.Context) ([]types.Permission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, module, allowed FROM config_permissions ORDER BY role, module`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := make([]types.Permission, 0)
	for rows.Next() {
		var (
			perm    types.Permission
			allowed sql.NullInt64
		)
		if err := rows.Scan(&perm.Role, &perm.Module, &allowed); err != nil {
			return nil, err
		}
		perm.Allowed = nullInt(allowed) == 1
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// ReplacePermissions swaps the whole permission matrix. A later entry for
// the same role and module wins.
func (r *ConfigRepository) ReplacePermissions(ctx context.Context, perms []types.Permission) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM config_permissions`); err != nil {
			return err
		}
		const query = `
			INSERT INTO config_permissions (role, module, allowed)
			VALUES ($1, $2, $3)
			ON CONFLICT (role, module) DO UPDATE SET allowed = excluded.allowed`
		for _, perm := range perms {
			if _, err := tx.ExecContext(ctx, query, perm.Role, perm.Module, boolToInt(perm.Allowed)); err != nil {
				return err
			}
		}
		return nil
	})
}

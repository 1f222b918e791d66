package store

import (
	"context"
	"database/sql"

	"github.com/lidercheck/apiserver/types"
)

// MaterialRepository handles persistence for the priced materials catalog.
type MaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) List(ctx context.Context) ([]types.Material, error) {
	const query = `
		SELECT code, model, description, item, plant, price
		FROM materials
		ORDER BY model`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	materials := make([]types.Material, 0)
	for rows.Next() {
		var (
			material                         types.Material
			model, description, item, plant sql.NullString
			price                            sql.NullFloat64
		)
		if err := rows.Scan(&material.Code, &model, &description, &item, &plant, &price); err != nil {
			return nil, err
		}
		material.Model = nullString(model)
		material.Description = nullString(description)
		material.Item = nullString(item)
		material.Plant = nullString(plant)
		material.Price = nullFloat(price)
		materials = append(materials, material)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

// Merge creates the material with the patched fields or overwrites only the
// fields the patch sets on an existing one.
func (r *MaterialRepository) Merge(ctx context.Context, code string, patch types.MaterialPatch) error {
	return merge(ctx, r.db, "materials", "code", code, []mergeColumn{
		patchColumn("model", patch.Model, nil),
		patchColumn("description", patch.Description, nil),
		patchColumn("item", patch.Item, nil),
		patchColumn("plant", patch.Plant, nil),
		patchColumn("price", patch.Price, nil),
	})
}

// UpsertMany stores every material in one transaction.
func (r *MaterialRepository) UpsertMany(ctx context.Context, materials []types.Material) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, material := range materials {
		if err := upsertMaterial(ctx, tx, material); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func upsertMaterial(ctx context.Context, exec execer, material types.Material) error {
	const query = `
		INSERT INTO materials (code, model, description, item, plant, price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (code) DO UPDATE SET
			model = excluded.model,
			description = excluded.description,
			item = excluded.item,
			plant = excluded.plant,
			price = excluded.price`
	_, err := exec.ExecContext(ctx, query,
		material.Code,
		material.Model,
		material.Description,
		material.Item,
		material.Plant,
		material.Price,
	)
	return err
}

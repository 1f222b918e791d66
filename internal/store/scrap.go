package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lidercheck/apiserver/types"
)

// ScrapRepository handles persistence for scrap records.
type ScrapRepository struct {
	db *sql.DB
}

func NewScrapRepository(db *sql.DB) *ScrapRepository {
	return &ScrapRepository{db: db}
}

func (r *ScrapRepository) List(ctx context.Context) ([]types.Scrap, error) {
	const query = `
		SELECT id, user_id, date, time, week, shift, leader_name, pqc, model, qty, item, status, code,
			description, unit_value, total_value, used_model, responsible, station, reason, root_cause,
			countermeasure, line
		FROM scrap_logs
		ORDER BY date DESC, time DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scraps := make([]types.Scrap, 0)
	for rows.Next() {
		var (
			scrap                                                types.Scrap
			userID, date, clock, shift, leader, pqc, model, item sql.NullString
			status, code, description, usedModel, responsible    sql.NullString
			station, reason, rootCause, countermeasure, line     sql.NullString
			week, qty                                            sql.NullInt64
			unitValue, totalValue                                sql.NullFloat64
		)
		if err := rows.Scan(
			&scrap.ID, &userID, &date, &clock, &week, &shift, &leader, &pqc, &model, &qty, &item,
			&status, &code, &description, &unitValue, &totalValue, &usedModel, &responsible,
			&station, &reason, &rootCause, &countermeasure, &line,
		); err != nil {
			return nil, err
		}

		scrap.UserID = nullString(userID)
		scrap.Date = nullString(date)
		scrap.Time = nullString(clock)
		if week.Valid {
			w := int(week.Int64)
			scrap.Week = &w
		}
		scrap.Shift = nullString(shift)
		scrap.LeaderName = nullString(leader)
		scrap.PQC = nullString(pqc)
		scrap.Model = nullString(model)
		scrap.Qty = nullInt(qty)
		scrap.Item = nullString(item)
		scrap.Status = nullString(status)
		scrap.Code = nullString(code)
		scrap.Description = nullString(description)
		scrap.UnitValue = nullFloat(unitValue)
		scrap.TotalValue = nullFloat(totalValue)
		scrap.UsedModel = nullString(usedModel)
		scrap.Responsible = nullString(responsible)
		scrap.Station = nullString(station)
		scrap.Reason = nullString(reason)
		scrap.RootCause = nullString(rootCause)
		scrap.Countermeasure = nullString(countermeasure)
		scrap.Line = nullString(line)
		scraps = append(scraps, scrap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scraps, nil
}

// Create inserts a scrap and returns its new id. Scraps are never
// deduplicated.
func (r *ScrapRepository) Create(ctx context.Context, scrap types.Scrap) (int64, error) {
	const query = `
		INSERT INTO scrap_logs (user_id, date, time, week, shift, leader_name, pqc, model, qty, item, status, code,
			description, unit_value, total_value, used_model, responsible, station, reason, root_cause,
			countermeasure, line)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`
	var week any
	if scrap.Week != nil {
		week = *scrap.Week
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		scrap.UserID, scrap.Date, scrap.Time, week, scrap.Shift, scrap.LeaderName, scrap.PQC,
		scrap.Model, scrap.Qty, scrap.Item, scrap.Status, scrap.Code, scrap.Description,
		scrap.UnitValue, scrap.TotalValue, scrap.UsedModel, scrap.Responsible, scrap.Station,
		scrap.Reason, scrap.RootCause, scrap.Countermeasure, scrap.Line,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Patch updates the non-nil fields of patch on scrap id.
func (r *ScrapRepository) Patch(ctx context.Context, id int64, patch types.ScrapPatch) error {
	if patch.Empty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Countermeasure != nil {
		set("countermeasure", *patch.Countermeasure)
	}
	if patch.Reason != nil {
		set("reason", *patch.Reason)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.LeaderName != nil {
		set("leader_name", *patch.LeaderName)
	}
	if patch.Qty != nil {
		set("qty", *patch.Qty)
	}
	if patch.TotalValue != nil {
		set("total_value", *patch.TotalValue)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE scrap_logs SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

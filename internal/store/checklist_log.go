package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/lidercheck/apiserver/internal/codec"
	"github.com/lidercheck/apiserver/types"
)

// ChecklistLogRepository handles persistence for submitted checklists. Logs
// live in two tables, one per LogType; the type of a row is the table it was
// read from.
type ChecklistLogRepository struct {
	db *sql.DB
}

func NewChecklistLogRepository(db *sql.DB) *ChecklistLogRepository {
	return &ChecklistLogRepository{db: db}
}

func logTable(logType types.LogType) string {
	if logType == types.LogTypeMaintenance {
		return "maintenance_logs"
	}
	return "checklist_logs"
}

// Create stores log in the partition named by log.Type and returns the new
// row id. Any type other than MAINTENANCE is stored as PRODUCTION.
func (r *ChecklistLogRepository) Create(ctx context.Context, log types.ChecklistLog) (int64, error) {
	if log.Type != types.LogTypeMaintenance {
		log.Type = types.LogTypeProduction
	}

	data, err := codec.NewEnvelope(log.Data, log.EvidenceData, string(log.Type), log.MaintenanceTarget).Encode()
	if err != nil {
		return 0, err
	}
	snapshot := "[]"
	if log.ItemsSnapshot != nil {
		if snapshot, err = codec.Encode(log.ItemsSnapshot); err != nil {
			return 0, err
		}
	}

	var id int64
	if log.Type == types.LogTypeMaintenance {
		const query = `
			INSERT INTO maintenance_logs (user_id, user_name, user_role, line, date, items_count, ng_count, observation, data, items_snapshot, maintenance_target)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id`
		err = r.db.QueryRowContext(ctx, query,
			log.UserID, log.UserName, log.UserRole, log.Line, log.Date,
			log.ItemsCount, log.NgCount, log.Observation, data, snapshot,
			log.MaintenanceTarget,
		).Scan(&id)
	} else {
		const query = `
			INSERT INTO checklist_logs (user_id, user_name, user_role, line, date, items_count, ng_count, observation, data, items_snapshot)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`
		err = r.db.QueryRowContext(ctx, query,
			log.UserID, log.UserName, log.UserRole, log.Line, log.Date,
			log.ItemsCount, log.NgCount, log.Observation, data, snapshot,
		).Scan(&id)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListRecent returns up to limit logs of one partition, newest date first.
// Blobs are decoded leniently; a corrupt row yields empty answers rather
// than an error.
func (r *ChecklistLogRepository) ListRecent(ctx context.Context, logType types.LogType, limit int) ([]types.ChecklistLog, error) {
	if limit < 1 {
		limit = 500
	}

	target := "NULL"
	if logType == types.LogTypeMaintenance {
		target = "maintenance_target"
	} else {
		logType = types.LogTypeProduction
	}
	query := `
		SELECT id, user_id, user_name, user_role, line, date, items_count, ng_count, observation, data, items_snapshot, ` + target + `
		FROM ` + logTable(logType) + `
		ORDER BY date DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]types.ChecklistLog, 0)
	for rows.Next() {
		var (
			id                                        int64
			userID, userName, userRole, line, date    sql.NullString
			observation, data, snapshot, targetColumn sql.NullString
			itemsCount, ngCount                       sql.NullInt64
		)
		if err := rows.Scan(
			&id, &userID, &userName, &userRole, &line, &date,
			&itemsCount, &ngCount, &observation, &data, &snapshot, &targetColumn,
		); err != nil {
			return nil, err
		}

		env := codec.DecodeEnvelope(nullString(data))
		maintenanceTarget := nullString(targetColumn)
		if maintenanceTarget == "" {
			maintenanceTarget = env.MaintenanceTarget
		}
		logs = append(logs, types.ChecklistLog{
			ID:                strconv.FormatInt(id, 10),
			UserID:            nullString(userID),
			UserName:          nullString(userName),
			UserRole:          nullString(userRole),
			Line:              nullString(line),
			Date:              nullString(date),
			ItemsCount:        nullInt(itemsCount),
			NgCount:           nullInt(ngCount),
			Observation:       nullString(observation),
			Data:              env.Answers,
			EvidenceData:      env.Evidence,
			Type:              logType,
			MaintenanceTarget: maintenanceTarget,
			ItemsSnapshot:     codec.DecodeArray(nullString(snapshot)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lidercheck/apiserver/internal/codec"
	"github.com/lidercheck/apiserver/types"
)

const lineStopColumns = `id, user_id, user_name, user_role, line, date, status, data, signed_doc_url`

// LineStopRepository handles persistence for line stops.
type LineStopRepository struct {
	db *sql.DB
}

func NewLineStopRepository(db *sql.DB) *LineStopRepository {
	return &LineStopRepository{db: db}
}

func scanLineStop(row rowScanner) (types.LineStop, error) {
	var (
		id, userID, userName, userRole, line, date sql.NullString
		status, data, signedDoc                    sql.NullString
	)
	if err := row.Scan(&id, &userID, &userName, &userRole, &line, &date, &status, &data, &signedDoc); err != nil {
		return types.LineStop{}, err
	}

	stop := types.LineStop{
		ID:       nullString(id),
		UserID:   nullString(userID),
		UserName: nullString(userName),
		UserRole: nullString(userRole),
		Line:     nullString(line),
		Date:     nullString(date),
		Status:   types.LineStopStatus(nullString(status)),
		Data:     codec.DecodeObject(nullString(data)),
	}
	if signedDoc.Valid {
		stop.SignedDocURL = &signedDoc.String
	}
	return stop, nil
}

func (r *LineStopRepository) Get(ctx context.Context, id string) (types.LineStop, error) {
	query := `SELECT ` + lineStopColumns + ` FROM line_stops WHERE id = $1`
	stop, err := scanLineStop(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.LineStop{}, ErrNotFound
		}
		return types.LineStop{}, err
	}
	return stop, nil
}

// Exists reports whether a row is stored under id.
func (r *LineStopRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM line_stops WHERE id = $1`, id).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LineStopRepository) Create(ctx context.Context, stop types.LineStop) error {
	data, err := codec.EncodeText(stop.Data)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO line_stops (id, user_id, user_name, user_role, line, date, status, data, signed_doc_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.db.ExecContext(ctx, query,
		stop.ID,
		stop.UserID,
		stop.UserName,
		stop.UserRole,
		stop.Line,
		stop.Date,
		string(stop.Status),
		data,
		optionalString(stop.SignedDocURL),
	)
	return err
}

// Update overwrites the mutable fields of a stored stop: line, status, data
// and the signed document. Submitter and date are fixed at creation.
func (r *LineStopRepository) Update(ctx context.Context, stop types.LineStop) error {
	data, err := codec.EncodeText(stop.Data)
	if err != nil {
		return err
	}

	const query = `
		UPDATE line_stops
		SET line = $1,
			status = $2,
			data = $3,
			signed_doc_url = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		stop.Line,
		string(stop.Status),
		data,
		optionalString(stop.SignedDocURL),
		stop.ID,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// ListRecent returns up to limit stops, newest date first. Rows stored
// without an id are returned with an empty ID.
func (r *LineStopRepository) ListRecent(ctx context.Context, limit int) ([]types.LineStop, error) {
	if limit < 1 {
		limit = 500
	}

	query := `SELECT ` + lineStopColumns + ` FROM line_stops ORDER BY date DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make([]types.LineStop, 0)
	for rows.Next() {
		stop, err := scanLineStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stops, nil
}

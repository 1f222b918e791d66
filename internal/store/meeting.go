package store

import (
	"context"
	"database/sql"

	"github.com/lidercheck/apiserver/internal/codec"
	"github.com/lidercheck/apiserver/types"
)

// MeetingRepository handles persistence for meeting minutes.
type MeetingRepository struct {
	db *sql.DB
}

func NewMeetingRepository(db *sql.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) List(ctx context.Context) ([]types.Meeting, error) {
	const query = `
		SELECT id, title, date, start_time, end_time, photo_url, participants, topics, created_by
		FROM meetings
		ORDER BY date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := make([]types.Meeting, 0)
	for rows.Next() {
		var (
			id, title, date, startTime, endTime   sql.NullString
			photoURL, participants, topics, owner sql.NullString
		)
		if err := rows.Scan(&id, &title, &date, &startTime, &endTime, &photoURL, &participants, &topics, &owner); err != nil {
			return nil, err
		}
		meetings = append(meetings, types.Meeting{
			ID:           nullString(id),
			Title:        nullString(title),
			Date:         nullString(date),
			StartTime:    nullString(startTime),
			EndTime:      nullString(endTime),
			PhotoURL:     nullString(photoURL),
			Participants: codec.DecodeStrings(nullString(participants)),
			Topics:       nullString(topics),
			CreatedBy:    nullString(owner),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meetings, nil
}

// Upsert stores the meeting under its id, replacing any previous version.
func (r *MeetingRepository) Upsert(ctx context.Context, meeting types.Meeting) error {
	participants := meeting.Participants
	if participants == nil {
		participants = []string{}
	}
	encoded, err := codec.Encode(participants)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO meetings (id, title, date, start_time, end_time, photo_url, participants, topics, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			photo_url = excluded.photo_url,
			participants = excluded.participants,
			topics = excluded.topics,
			created_by = excluded.created_by`
	_, err = r.db.ExecContext(ctx, query,
		meeting.ID,
		meeting.Title,
		meeting.Date,
		meeting.StartTime,
		meeting.EndTime,
		meeting.PhotoURL,
		encoded,
		meeting.Topics,
		meeting.CreatedBy,
	)
	return err
}

// Merge creates the meeting with the patched fields or overwrites only the
// fields the patch sets on an existing one.
func (r *MeetingRepository) Merge(ctx context.Context, id string, patch types.MeetingPatch) error {
	var participants *string
	if patch.Participants != nil {
		list := *patch.Participants
		if list == nil {
			list = []string{}
		}
		encoded, err := codec.Encode(list)
		if err != nil {
			return err
		}
		participants = &encoded
	}
	return merge(ctx, r.db, "meetings", "id", id, []mergeColumn{
		patchColumn("title", patch.Title, nil),
		patchColumn("date", patch.Date, nil),
		patchColumn("start_time", patch.StartTime, nil),
		patchColumn("end_time", patch.EndTime, nil),
		patchColumn("photo_url", patch.PhotoURL, nil),
		patchColumn("participants", participants, "[]"),
		patchColumn("topics", patch.Topics, nil),
		patchColumn("created_by", patch.CreatedBy, nil),
	})
}

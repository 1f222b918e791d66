package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lidercheck/apiserver/types"
)

// MeetingRepository defines persistence operations for meetings.
type MeetingRepository interface {
	List(ctx context.Context) ([]types.Meeting, error)
	Upsert(ctx context.Context, meeting types.Meeting) error
}

// MeetingService encapsulates meeting-minutes use-cases.
type MeetingService struct {
	repo MeetingRepository
}

func NewMeetingService(repo MeetingRepository) *MeetingService {
	return &MeetingService{repo: repo}
}

func (s *MeetingService) List(ctx context.Context) ([]types.Meeting, error) {
	return s.repo.List(ctx)
}

// Save stores the meeting under its id, generating one when blank.
func (s *MeetingService) Save(ctx context.Context, meeting types.Meeting) (types.Meeting, error) {
	meeting.ID = strings.TrimSpace(meeting.ID)
	if meeting.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return types.Meeting{}, err
		}
		meeting.ID = id.String()
	}
	if meeting.Participants == nil {
		meeting.Participants = []string{}
	}
	if err := s.repo.Upsert(ctx, meeting); err != nil {
		return types.Meeting{}, err
	}
	return meeting, nil
}

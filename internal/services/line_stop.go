package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lidercheck/apiserver/internal/store"
	"github.com/lidercheck/apiserver/types"
	"go.uber.org/zap"
)

const tmpIDPrefix = "tmp-"

// LineStopRepository defines persistence operations for line stops.
type LineStopRepository interface {
	Get(ctx context.Context, id string) (types.LineStop, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, stop types.LineStop) error
	Update(ctx context.Context, stop types.LineStop) error
	ListRecent(ctx context.Context, limit int) ([]types.LineStop, error)
}

// LineStopPublisher announces saved line stops.
type LineStopPublisher interface {
	PublishLineStop(ctx context.Context, event types.LineStopEvent) error
}

// LineStopService encapsulates line-stop use-cases.
type LineStopService struct {
	repo      LineStopRepository
	publisher LineStopPublisher
	logger    *zap.Logger
}

// NewLineStopService constructs the service. publisher may be nil.
func NewLineStopService(repo LineStopRepository, publisher LineStopPublisher, logger *zap.Logger) *LineStopService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LineStopService{repo: repo, publisher: publisher, logger: logger}
}

// Upsert saves stop. A stop whose id is already stored has its line,
// status, data and signed document replaced in place; otherwise a new row is
// inserted under the supplied id, or a generated one when none is given.
// A tmp-N display id that matches no stored row counts as none given.
// Repeating the same call with a stored id never creates a second row.
func (s *LineStopService) Upsert(ctx context.Context, stop types.LineStop) (types.LineStop, bool, error) {
	stop.ID = strings.TrimSpace(stop.ID)
	if stop.Status == "" {
		stop.Status = types.LineStopWaitingJustification
	}
	if stop.Data == nil {
		stop.Data = map[string]any{}
	}
	if stop.SignedDocURL != nil && strings.TrimSpace(*stop.SignedDocURL) == "" {
		stop.SignedDocURL = nil
	}

	generate := stop.ID == ""
	if !generate {
		existing, err := s.repo.Get(ctx, stop.ID)
		switch {
		case err == nil:
			if err := s.repo.Update(ctx, stop); err != nil {
				return types.LineStop{}, false, fmt.Errorf("update line stop %s: %w", stop.ID, err)
			}
			existing.Line = stop.Line
			existing.Status = stop.Status
			existing.Data = stop.Data
			existing.SignedDocURL = stop.SignedDocURL
			s.publish(ctx, types.LineStopEventUpdated, existing)
			return existing, false, nil
		case !errors.Is(err, store.ErrNotFound):
			return types.LineStop{}, false, err
		}
		generate = strings.HasPrefix(stop.ID, tmpIDPrefix)
	}
	if generate {
		id, err := uuid.NewV7()
		if err != nil {
			return types.LineStop{}, false, err
		}
		stop.ID = id.String()
	}

	if err := s.repo.Create(ctx, stop); err != nil {
		return types.LineStop{}, false, fmt.Errorf("create line stop %s: %w", stop.ID, err)
	}
	s.publish(ctx, types.LineStopEventCreated, stop)
	return stop, true, nil
}

func (s *LineStopService) publish(ctx context.Context, kind string, stop types.LineStop) {
	if s.publisher == nil {
		return
	}
	event := types.LineStopEvent{
		Kind:   kind,
		ID:     stop.ID,
		Line:   stop.Line,
		Status: stop.Status,
		UserID: stop.UserID,
		Date:   stop.Date,
	}
	if err := s.publisher.PublishLineStop(ctx, event); err != nil {
		s.logger.Warn("line stop event not published",
			zap.String("kind", kind),
			zap.String("id", stop.ID),
			zap.Error(err),
		)
	}
}

// List returns the most recent stops, newest first. Legacy rows stored
// without an id get a tmp-N id for display that matches no stored row; it
// is never written back.
func (s *LineStopService) List(ctx context.Context) ([]types.LineStop, error) {
	stops, err := s.repo.ListRecent(ctx, recentLogsLimit)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(stops))
	for _, stop := range stops {
		if stop.ID != "" {
			taken[stop.ID] = struct{}{}
		}
	}

	next := 1
	for i := range stops {
		if stops[i].ID != "" {
			continue
		}
		for {
			candidate := fmt.Sprintf("%s%d", tmpIDPrefix, next)
			next++
			if _, ok := taken[candidate]; ok {
				continue
			}
			exists, err := s.repo.Exists(ctx, candidate)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}
			stops[i].ID = candidate
			taken[candidate] = struct{}{}
			break
		}
	}
	return stops, nil
}

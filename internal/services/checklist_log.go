package services

import (
	"context"
	"sort"
	"time"

	"github.com/lidercheck/apiserver/internal/report"
	"github.com/lidercheck/apiserver/types"
)

// recentLogsLimit bounds how many logs each partition contributes to a
// listing.
const recentLogsLimit = 500

// ChecklistLogRepository defines persistence operations for checklist logs.
type ChecklistLogRepository interface {
	Create(ctx context.Context, log types.ChecklistLog) (int64, error)
	ListRecent(ctx context.Context, logType types.LogType, limit int) ([]types.ChecklistLog, error)
}

// UserLister provides the users a report resolves shifts against.
type UserLister interface {
	List(ctx context.Context) ([]types.User, error)
}

// LogService encapsulates checklist log use-cases and the weekly reports
// built from them.
type LogService struct {
	repo       ChecklistLogRepository
	users      UserLister
	aggregator *report.Aggregator
}

func NewLogService(repo ChecklistLogRepository, users UserLister, aggregator *report.Aggregator) *LogService {
	if aggregator == nil {
		aggregator = report.NewAggregator(time.UTC)
	}
	return &LogService{repo: repo, users: users, aggregator: aggregator}
}

// Create stores a submitted checklist. The partition follows log.Type;
// anything but MAINTENANCE is a production log.
func (s *LogService) Create(ctx context.Context, log types.ChecklistLog) (int64, error) {
	if log.Type != types.LogTypeMaintenance {
		log.Type = types.LogTypeProduction
	}
	return s.repo.Create(ctx, log)
}

// List merges the most recent logs of both partitions, newest first.
func (s *LogService) List(ctx context.Context) ([]types.ChecklistLog, error) {
	production, err := s.repo.ListRecent(ctx, types.LogTypeProduction, recentLogsLimit)
	if err != nil {
		return nil, err
	}
	maintenance, err := s.repo.ListRecent(ctx, types.LogTypeMaintenance, recentLogsLimit)
	if err != nil {
		return nil, err
	}

	merged := make([]types.ChecklistLog, 0, len(production)+len(maintenance))
	merged = append(merged, production...)
	merged = append(merged, maintenance...)
	s.sortNewestFirst(merged)
	return merged, nil
}

// sortNewestFirst orders logs by parsed date, descending. Logs whose date
// cannot be read go last, in their original order.
func (s *LogService) sortNewestFirst(logs []types.ChecklistLog) {
	loc := s.aggregator.Location()
	dates := make(map[string]time.Time, len(logs))
	key := func(log types.ChecklistLog) string {
		return string(log.Type) + "/" + log.ID
	}
	for _, log := range logs {
		if t, ok := report.ParseDate(log.Date, loc); ok {
			dates[key(log)] = t
		}
	}

	sort.SliceStable(logs, func(i, j int) bool {
		di, iok := dates[key(logs[i])]
		dj, jok := dates[key(logs[j])]
		if iok != jok {
			return iok
		}
		return di.After(dj)
	})
}

// WeeklyReport returns the production logs of a year and week number,
// optionally restricted to one shift.
func (s *LogService) WeeklyReport(ctx context.Context, year, week int, shift string) ([]types.ChecklistLog, error) {
	logs, users, err := s.reportInputs(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregator.FilterByWeek(logs, year, week, shift, users), nil
}

// WeeklyReportStrict returns the production logs of one line dated within
// the Monday to Sunday week containing ref, optionally restricted to one
// shift.
func (s *LogService) WeeklyReportStrict(ctx context.Context, ref time.Time, line, shift string) ([]types.ChecklistLog, error) {
	logs, users, err := s.reportInputs(ctx)
	if err != nil {
		return nil, err
	}
	return s.aggregator.FilterByWeekStrict(logs, ref, line, shift, users), nil
}

func (s *LogService) reportInputs(ctx context.Context) ([]types.ChecklistLog, []types.User, error) {
	logs, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return logs, users, nil
}

// Location returns the location report dates are read in.
func (s *LogService) Location() *time.Location {
	return s.aggregator.Location()
}

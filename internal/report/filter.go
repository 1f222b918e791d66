package report

import (
	"time"

	"github.com/lidercheck/apiserver/types"
)

const (
	// AllShifts disables the shift constraint.
	AllShifts = "ALL"

	// UnknownShift is the shift of a log whose submitter is not a known
	// user. It never equals a real shift code.
	UnknownShift = "??"
)

// Window selects log dates.
type Window interface {
	Contains(t time.Time) bool
}

// WeekNumber matches dates whose calendar year is Year and whose WeekOf is
// Week. Around New Year the two may disagree, in which case nothing in that
// stretch matches; this mirrors how the weeks have always been reported.
type WeekNumber struct {
	Year int
	Week int
}

func (w WeekNumber) Contains(t time.Time) bool {
	return t.Year() == w.Year && WeekOf(t) == w.Week
}

// DateRange matches dates within [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Filter is the predicate behind both weekly reports.
type Filter struct {
	Window Window

	// Line is compared exactly, empty included, when MatchLine is set.
	Line      string
	MatchLine bool

	// Shift is ignored when empty or ALL.
	Shift string

	Users types.UserIndex

	// Location is used to read dates stored without an offset.
	Location *time.Location
}

// ShiftOf resolves the shift of the user with the given matricula.
func ShiftOf(users types.UserIndex, matricula string) string {
	user, ok := users[matricula]
	if !ok {
		return UnknownShift
	}
	return user.Shift
}

// Match reports whether log belongs in the report. Maintenance logs and line
// stops never do, and neither does a log whose date cannot be read.
func (f Filter) Match(log types.ChecklistLog) bool {
	if log.Type == types.LogTypeMaintenance || log.Type == types.LogTypeLineStop {
		return false
	}
	if f.MatchLine && log.Line != f.Line {
		return false
	}
	if f.Shift != "" && f.Shift != AllShifts && ShiftOf(f.Users, log.UserID) != f.Shift {
		return false
	}

	date, ok := ParseDate(log.Date, f.Location)
	if !ok {
		return false
	}
	return f.Window == nil || f.Window.Contains(date)
}

// Apply returns the logs that match, in their original order.
func (f Filter) Apply(logs []types.ChecklistLog) []types.ChecklistLog {
	out := make([]types.ChecklistLog, 0)
	for _, log := range logs {
		if f.Match(log) {
			out = append(out, log)
		}
	}
	return out
}

// Aggregator builds weekly reports in a fixed location.
type Aggregator struct {
	loc *time.Location
}

func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{loc: loc}
}

// Location returns the location dates are interpreted in.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// FilterByWeek selects production logs of the given year and week number,
// optionally restricted to one shift.
func (a *Aggregator) FilterByWeek(logs []types.ChecklistLog, year, week int, shift string, users []types.User) []types.ChecklistLog {
	return Filter{
		Window:   WeekNumber{Year: year, Week: week},
		Shift:    shift,
		Users:    types.IndexUsers(users),
		Location: a.loc,
	}.Apply(logs)
}

// FilterByWeekStrict selects production logs of one line dated within the
// Monday to Sunday week containing ref, optionally restricted to one shift.
func (a *Aggregator) FilterByWeekStrict(logs []types.ChecklistLog, ref time.Time, line, shift string, users []types.User) []types.ChecklistLog {
	start, end := WeekRange(ref.In(a.loc))
	return Filter{
		Window:    DateRange{Start: start, End: end},
		Line:      line,
		MatchLine: true,
		Shift:     shift,
		Users:     types.IndexUsers(users),
		Location:  a.loc,
	}.Apply(logs)
}

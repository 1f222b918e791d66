// Package report selects the checklist logs that make up a weekly report.
package report

import (
	"math"
	"time"
)

const millisPerDay = 86400000

// WeekOf returns the week number of t's calendar day.
//
// The day is moved to the Thursday of its Monday-based week and counted from
// January 1st of that Thursday's year, so the result runs from 1 to 53 and
// the last days of December can belong to week 1. Stored week numbers were
// computed with this exact arithmetic.
func WeekOf(t time.Time) int {
	year, month, day := t.Date()
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	d = d.AddDate(0, 0, 4-weekday)

	yearStart := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := float64(d.Sub(yearStart).Milliseconds()) / millisPerDay
	return int(math.Ceil((days + 1) / 7))
}

// WeekRange returns the Monday 00:00:00.000 and the Sunday 23:59:59.999
// bounding the week that contains ref, in ref's location.
func WeekRange(ref time.Time) (start, end time.Time) {
	weekday := int(ref.Weekday())
	offset := 1 - weekday
	if weekday == 0 {
		offset = -6
	}

	year, month, day := ref.Date()
	start = time.Date(year, month, day+offset, 0, 0, 0, 0, ref.Location())
	end = time.Date(year, month, day+offset+6, 23, 59, 59, int(999*time.Millisecond), ref.Location())
	return start, end
}

var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads a stored log date. Values carrying a zone or offset keep
// it; values without one, date-only values included, are read in loc. A bare
// "2024-01-08" is therefore midnight in loc, not UTC midnight. The result is
// expressed in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

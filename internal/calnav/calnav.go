// Package calnav holds date navigation helpers for the week grid and the
// mini month calendar.
package calnav

import (
	"fmt"
	"strings"
	"time"

	"weekgrid/internal/timeunit"
)

// DaysPerWeek is the number of columns in a week view.
const DaysPerWeek = 7

// ParseWeekday maps "sunday" to time.Sunday and everything else, including
// "monday" and "", to time.Monday.
func ParseWeekday(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// WeekStart returns midnight of the first day of the week containing t.
func WeekStart(t time.Time, first time.Weekday) time.Time {
	day := timeunit.StartOfDay(t)
	offset := (int(day.Weekday()) - int(first) + DaysPerWeek) % DaysPerWeek
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the seven midnights of the week containing t.
func WeekDays(t time.Time, first time.Weekday) []time.Time {
	start := WeekStart(t, first)
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// NextWeek moves t forward by one week.
func NextWeek(t time.Time) time.Time { return t.AddDate(0, 0, DaysPerWeek) }

// PrevWeek moves t back by one week.
func PrevWeek(t time.Time) time.Time { return t.AddDate(0, 0, -DaysPerWeek) }

// MonthGrid returns a 6x7 grid of midnights covering month, starting on the
// week containing the first of the month. Cells outside the month belong to
// the neighbouring months.
func MonthGrid(year int, month time.Month, first time.Weekday, loc *time.Location) [6][DaysPerWeek]time.Time {
	if loc == nil {
		loc = time.Local
	}
	start := WeekStart(time.Date(year, month, 1, 0, 0, 0, 0, loc), first)

	var grid [6][DaysPerWeek]time.Time
	for w := range grid {
		for d := range grid[w] {
			grid[w][d] = start.AddDate(0, 0, w*DaysPerWeek+d)
		}
	}
	return grid
}

// InMonth reports whether t lies in the given month.
func InMonth(t time.Time, year int, month time.Month) bool {
	return t.Year() == year && t.Month() == month
}

// ISOWeekLabel formats t's ISO week, e.g. "2026-W10".
func ISOWeekLabel(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", y, w)
}

// ParseDate reads "YYYY-MM-DD" in loc. An empty string yields now.
func ParseDate(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if strings.TrimSpace(s) == "" {
		return timeunit.StartOfDay(now.In(loc)), nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("calnav: invalid date %q: %w", s, err)
	}
	return t, nil
}

package calnav

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	// Thursday 2026-03-05
	thu := time.Date(2026, 3, 5, 15, 4, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), WeekStart(thu, time.Monday))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), WeekStart(thu, time.Sunday))

	sun := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), WeekStart(sun, time.Monday))
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), WeekStart(sun, time.Sunday))
}

func TestWeekDays(t *testing.T) {
	days := WeekDays(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), time.Monday)
	require.Len(t, days, 7)
	assert.Equal(t, time.Monday, days[0].Weekday())
	assert.Equal(t, time.Sunday, days[6].Weekday())
	assert.Equal(t, 8, days[6].Day())
}

func TestNavigation(t *testing.T) {
	d := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, NextWeek(d).Day())
	assert.Equal(t, 26, PrevWeek(d).Day())
}

func TestMonthGrid(t *testing.T) {
	grid := MonthGrid(2026, time.March, time.Monday, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), grid[0][0])
	assert.True(t, InMonth(grid[0][6], 2026, time.March))
	assert.Equal(t, 1, grid[0][6].Day())
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), grid[5][6])
}

func TestParseWeekday(t *testing.T) {
	assert.Equal(t, time.Sunday, ParseWeekday("Sunday"))
	assert.Equal(t, time.Monday, ParseWeekday("monday"))
	assert.Equal(t, time.Monday, ParseWeekday("friday"))
}

func TestISOWeekLabel(t *testing.T) {
	assert.Equal(t, "2026-W10", ISOWeekLabel(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseDate(t *testing.T) {
	now := time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC)
	got, err := ParseDate("", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2026-04-01", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.April, got.Month())

	_, err = ParseDate("04/01/2026", time.UTC, now)
	assert.Error(t, err)
}

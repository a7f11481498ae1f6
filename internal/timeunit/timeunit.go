// Package timeunit converts between wall-clock time, minutes since midnight,
// pixel offsets and day indices. Everything here is pure.
package timeunit

import (
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinutesPerDay is the length of a calendar day on the grid.
const MinutesPerDay = 24 * 60

// MinutesSinceMidnight returns the minutes elapsed since the start of t's
// calendar day in t's location. The result is always in [0, MinutesPerDay).
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// ParseTimeOfDay accepts "H", "H:MM" or a decimal hour ("9.5") and returns
// minutes since midnight. Anything else yields 0.
func ParseTimeOfDay(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if h, m, ok := strings.Cut(s, ":"); ok {
		hours, err := strconv.Atoi(h)
		if err != nil || hours < 0 {
			return 0
		}
		mins, err := strconv.Atoi(m)
		if err != nil || mins < 0 || mins >= 60 || len(m) != 2 {
			return 0
		}
		return clampDay(hours*60 + mins)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return HoursToMinutes(f)
}

// HoursToMinutes converts a decimal hour count to minutes (9.5 -> 570).
// NaN, infinities and negatives yield 0.
func HoursToMinutes(h float64) int {
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0
	}
	return clampDay(int(math.Round(h * 60)))
}

func clampDay(m int) int {
	return Clamp(m, 0, MinutesPerDay)
}

// PixelsPerMinute is the single vertical conversion factor shared by layout
// and interaction.
func PixelsPerMinute(slotHeightPx float64, slotMinutes int) float64 {
	if slotMinutes <= 0 || slotHeightPx <= 0 {
		return 1
	}
	return slotHeightPx / float64(slotMinutes)
}

// SnapDown rounds minutes down to the enclosing multiple of slot.
func SnapDown(minutes, slot int) int {
	if slot <= 0 {
		return minutes
	}
	q := minutes / slot
	if minutes%slot != 0 && minutes < 0 {
		q--
	}
	return q * slot
}

// SnapNearest rounds minutes to the closest multiple of slot, ties upward.
func SnapNearest(minutes, slot int) int {
	if slot <= 0 {
		return minutes
	}
	return SnapDown(minutes+slot/2, slot)
}

// Clamp limits v to [lo, hi]. When lo > hi, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AtMinute returns the wall-clock time minute minutes after midnight of day.
// Values past MinutesPerDay roll into the following day.
func AtMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayIndex returns the index of the day in days that t falls on, or -1.
func DayIndex(days []time.Time, t time.Time) int {
	for i, d := range days {
		if SameDay(d, t.In(d.Location())) {
			return i
		}
	}
	return -1
}

// FormatMinute renders minutes since midnight as "HH:MM".
func FormatMinute(m int) string {
	m = clampDay(m)
	return twoDigits(m/60) + ":" + twoDigits(m%60)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// TimeOfDay is a minute-of-day value that unmarshals from YAML as either
// a string ("8", "8:30", "8.5") or a number (8.5).
type TimeOfDay int

// Minutes returns the value as an int.
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string { return FormatMinute(int(t)) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*t = 0
		return nil
	}
	*t = TimeOfDay(ParseTimeOfDay(node.Value))
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (t TimeOfDay) MarshalYAML() (any, error) {
	return FormatMinute(int(t)), nil
}

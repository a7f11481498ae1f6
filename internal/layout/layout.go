// Package layout packs overlapping events of a calendar day into side-by-side
// columns.
//
// Columns are assigned greedily in start order: each event takes the lowest
// column whose previous occupant has already ended. Widths are then scoped to
// the event's overlap component, so a cluster of two overlapping events is
// laid out on two columns even if an unrelated cluster earlier in the day
// needed five.
package layout

import (
	"sort"
	"time"

	"weekgrid/internal/model"
	"weekgrid/internal/timeunit"
)

// AugmentedEvent is the per-pass layout view of a CalendarEvent.
type AugmentedEvent struct {
	Event model.CalendarEvent

	StartMinute int
	EndMinute   int

	// Column is the 0-based lane inside the event's overlap component and
	// ColumnCount the number of lanes that component uses.
	Column      int
	ColumnCount int
}

// Overlaps reports whether two half-open minute intervals intersect.
// Touching intervals (a.End == b.Start) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// Day lays out events that all start on the same calendar day. Events with a
// non-positive duration after minute conversion are dropped. Events running
// past midnight are cut at the end of the day.
func Day(events []model.CalendarEvent) []AugmentedEvent {
	items := make([]AugmentedEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Valid() {
			continue
		}
		start := timeunit.MinutesSinceMidnight(ev.Start)
		end := endMinute(ev)
		if end <= start {
			continue
		}
		items = append(items, AugmentedEvent{
			Event:       ev,
			StartMinute: start,
			EndMinute:   end,
		})
	}
	if len(items) == 0 {
		return items
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].StartMinute != items[j].StartMinute {
			return items[i].StartMinute < items[j].StartMinute
		}
		return items[i].EndMinute < items[j].EndMinute
	})

	assignColumns(items)
	normalizeComponents(items)
	return items
}

// endMinute converts the event end into minutes relative to the start's
// midnight, capped at the end of that day.
func endMinute(ev model.CalendarEvent) int {
	end := ev.End.In(ev.Start.Location())
	if timeunit.SameDay(ev.Start, end) {
		return timeunit.MinutesSinceMidnight(end)
	}
	return timeunit.MinutesPerDay
}

// assignColumns is the greedy interval colouring pass. items must be sorted.
func assignColumns(items []AugmentedEvent) {
	var columnEnd []int
	for i := range items {
		col := -1
		for c, end := range columnEnd {
			if end <= items[i].StartMinute {
				col = c
				break
			}
		}
		if col < 0 {
			col = len(columnEnd)
			columnEnd = append(columnEnd, 0)
		}
		columnEnd[col] = items[i].EndMinute
		items[i].Column = col
	}
}

// normalizeComponents splits sorted items into overlap components and sets
// each item's ColumnCount to the number of columns its component uses.
func normalizeComponents(items []AugmentedEvent) {
	start := 0
	maxEnd := items[0].EndMinute
	for i := 1; i <= len(items); i++ {
		if i < len(items) && items[i].StartMinute < maxEnd {
			if items[i].EndMinute > maxEnd {
				maxEnd = items[i].EndMinute
			}
			continue
		}
		countComponent(items[start:i])
		if i < len(items) {
			start = i
			maxEnd = items[i].EndMinute
		}
	}
}

// countComponent relies on the greedy pass: every column of an earlier
// component is free again when a component starts, so a component always
// occupies columns 0..k-1 without gaps.
func countComponent(group []AugmentedEvent) {
	count := 0
	for _, it := range group {
		count = max(count, it.Column+1)
	}
	for i := range group {
		group[i].ColumnCount = count
	}
}

// Week buckets events by the calendar day their start falls on and lays out
// each day independently. The result is indexed like days; events outside
// every day are dropped.
func Week(events []model.CalendarEvent, days []time.Time) [][]AugmentedEvent {
	buckets := make([][]model.CalendarEvent, len(days))
	for _, ev := range events {
		idx := timeunit.DayIndex(days, ev.Start)
		if idx < 0 {
			continue
		}
		loc := days[idx].Location()
		ev.Start = ev.Start.In(loc)
		ev.End = ev.End.In(loc)
		buckets[idx] = append(buckets[idx], ev)
	}

	out := make([][]AugmentedEvent, len(days))
	for i, b := range buckets {
		out[i] = Day(b)
	}
	return out
}

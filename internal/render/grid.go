// Package render turns laid-out events into absolutely positioned boxes and
// maps grid clicks back to time ranges.
package render

import (
	"math"
	"time"

	"weekgrid/internal/interact"
	"weekgrid/internal/layout"
	"weekgrid/internal/model"
	"weekgrid/internal/timeunit"
)

// Policy chooses how overlapping columns share a day's width.
type Policy string

const (
	// PolicySplit gives every column 100/ColumnCount percent of the width.
	PolicySplit Policy = "split"
	// PolicyStacked draws every event at nearly full width, offset per column.
	PolicyStacked Policy = "stacked"
)

// DefaultStackOffsetPct is the per-column indent used by PolicyStacked.
const DefaultStackOffsetPct = 8.0

// Grid is the visible geometry of a week view.
type Grid struct {
	// WindowStart and WindowEnd are minutes since midnight.
	WindowStart int
	WindowEnd   int

	SlotMinutes    int
	SlotHeightPx   float64
	DayWidthPx     float64
	HeaderHeightPx float64
	GutterWidthPx  float64

	Policy         Policy
	StackOffsetPct float64
}

// Box is one positioned event. Top and Height are pixels from the top of
// the grid body; LeftPct and WidthPct are percentages of the day column.
type Box struct {
	Event    model.CalendarEvent `json:"event"`
	DayIndex int                 `json:"day"`

	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
	Column      int `json:"column"`
	ColumnCount int `json:"column_count"`

	Top      float64 `json:"top"`
	Height   float64 `json:"height"`
	LeftPct  float64 `json:"left_pct"`
	WidthPct float64 `json:"width_pct"`
}

// PixelsPerMinute is the vertical scale shared with the interaction layer.
func (g Grid) PixelsPerMinute() float64 {
	return timeunit.PixelsPerMinute(g.SlotHeightPx, g.SlotMinutes)
}

// BodyHeight is the pixel height of the visible window.
func (g Grid) BodyHeight() float64 {
	return float64(g.WindowEnd-g.WindowStart) * g.PixelsPerMinute()
}

// Slots returns the start minute of every slot row in the window.
func (g Grid) Slots() []int {
	if g.SlotMinutes <= 0 {
		return nil
	}
	var out []int
	for m := g.WindowStart; m < g.WindowEnd; m += g.SlotMinutes {
		out = append(out, m)
	}
	return out
}

// Boxes lays out events for days and positions them. Events entirely
// outside the visible window are skipped; partially visible ones are cut.
func (g Grid) Boxes(events []model.CalendarEvent, days []time.Time) []Box {
	ppm := g.PixelsPerMinute()
	perDay := layout.Week(events, days)

	var out []Box
	for day, items := range perDay {
		for _, it := range items {
			top := max(it.StartMinute, g.WindowStart)
			bottom := min(it.EndMinute, g.WindowEnd)
			if bottom <= top {
				continue
			}
			left, width := g.horizontal(it.Column, it.ColumnCount)
			out = append(out, Box{
				Event:       it.Event,
				DayIndex:    day,
				StartMinute: it.StartMinute,
				EndMinute:   it.EndMinute,
				Column:      it.Column,
				ColumnCount: it.ColumnCount,
				Top:         float64(top-g.WindowStart) * ppm,
				Height:      float64(bottom-top) * ppm,
				LeftPct:     left,
				WidthPct:    width,
			})
		}
	}
	return out
}

func (g Grid) horizontal(col, count int) (left, width float64) {
	if count < 1 {
		count = 1
	}
	if g.Policy == PolicyStacked {
		off := g.StackOffsetPct
		if off <= 0 {
			off = DefaultStackOffsetPct
		}
		left = math.Min(float64(col)*off, 100-off)
		return left, 100 - left
	}
	width = 100 / float64(count)
	return float64(col) * width, width
}

// BoxItem converts a box back into the layout view the interaction layer
// expects.
func (b Box) BoxItem() layout.AugmentedEvent {
	return layout.AugmentedEvent{
		Event:       b.Event,
		StartMinute: b.StartMinute,
		EndMinute:   b.EndMinute,
		Column:      b.Column,
		ColumnCount: b.ColumnCount,
	}
}

// DayRects returns the bounding rectangle of each of n day columns, in the
// same pixel space as pointer coordinates.
func (g Grid) DayRects(n int) []interact.Rect {
	rects := make([]interact.Rect, n)
	for i := range rects {
		rects[i] = interact.Rect{
			Left:   g.GutterWidthPx + float64(i)*g.DayWidthPx,
			Top:    g.HeaderHeightPx,
			Width:  g.DayWidthPx,
			Height: g.BodyHeight(),
		}
	}
	return rects
}

// SlotAt maps a click y offset within a day column body to the enclosing
// slot. Creation floors to the slot the pointer is in.
func (g Grid) SlotAt(day time.Time, y float64) (start, end time.Time) {
	slot := max(1, g.SlotMinutes)
	minute := g.WindowStart + int(math.Floor(y/g.PixelsPerMinute()))
	minute = timeunit.SnapDown(minute, slot)
	minute = timeunit.Clamp(minute, g.WindowStart, g.WindowEnd-slot)
	day = timeunit.StartOfDay(day)
	return timeunit.AtMinute(day, minute), timeunit.AtMinute(day, minute+slot)
}

// SelectSlot reports a click on empty grid space through onSelect, unless a
// gesture is running anywhere on the grid.
func (g Grid) SelectSlot(lock *interact.Lock, day time.Time, y float64, onSelect func(start, end time.Time)) bool {
	if lock != nil && lock.Busy() {
		return false
	}
	start, end := g.SlotAt(day, y)
	if onSelect != nil {
		onSelect(start, end)
	}
	return true
}

// InteractConfig derives the interaction geometry so pointer math uses the
// same scale as the rendered boxes.
func (g Grid) InteractConfig(minDuration int, resizable, draggable bool) interact.Config {
	return interact.Config{
		SlotMinutes:     g.SlotMinutes,
		PixelsPerMinute: g.PixelsPerMinute(),
		WindowStart:     g.WindowStart,
		WindowEnd:       g.WindowEnd,
		MinDuration:     minDuration,
		Resizable:       resizable,
		Draggable:       draggable,
	}
}

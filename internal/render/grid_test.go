package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/interact"
	"weekgrid/internal/model"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func testGrid() Grid {
	return Grid{
		WindowStart:    8 * 60,
		WindowEnd:      18 * 60,
		SlotMinutes:    30,
		SlotHeightPx:   45,
		DayWidthPx:     120,
		HeaderHeightPx: 30,
		GutterWidthPx:  50,
		Policy:         PolicySplit,
	}
}

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = monday.AddDate(0, 0, i)
	}
	return out
}

func ev(id string, day, startMin, endMin int) model.CalendarEvent {
	d := monday.AddDate(0, 0, day)
	return model.CalendarEvent{
		ID:    id,
		Title: id,
		Start: d.Add(time.Duration(startMin) * time.Minute),
		End:   d.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestBoxesSplitPolicy(t *testing.T) {
	g := testGrid()
	boxes := g.Boxes([]model.CalendarEvent{
		ev("a", 0, 540, 600),
		ev("b", 0, 570, 630),
		ev("c", 1, 600, 660),
	}, days(7))
	require.Len(t, boxes, 3)

	byID := map[string]Box{}
	for _, b := range boxes {
		byID[b.Event.ID] = b
	}

	a := byID["a"]
	assert.Equal(t, 0, a.DayIndex)
	assert.InDelta(t, 90.0, a.Top, 1e-9) // 60 minutes * 1.5 px
	assert.InDelta(t, 90.0, a.Height, 1e-9)
	assert.InDelta(t, 0.0, a.LeftPct, 1e-9)
	assert.InDelta(t, 50.0, a.WidthPct, 1e-9)

	b := byID["b"]
	assert.InDelta(t, 50.0, b.LeftPct, 1e-9)
	assert.InDelta(t, 50.0, b.WidthPct, 1e-9)

	c := byID["c"]
	assert.Equal(t, 1, c.DayIndex)
	assert.InDelta(t, 100.0, c.WidthPct, 1e-9)
}

func TestBoxesStackedPolicy(t *testing.T) {
	g := testGrid()
	g.Policy = PolicyStacked
	boxes := g.Boxes([]model.CalendarEvent{
		ev("a", 0, 540, 600),
		ev("b", 0, 570, 630),
	}, days(1))
	require.Len(t, boxes, 2)
	assert.InDelta(t, 100.0, boxes[0].WidthPct, 1e-9)
	assert.InDelta(t, DefaultStackOffsetPct, boxes[1].LeftPct, 1e-9)
	assert.InDelta(t, 100-DefaultStackOffsetPct, boxes[1].WidthPct, 1e-9)
}

func TestBoxesClipToWindow(t *testing.T) {
	g := testGrid()
	boxes := g.Boxes([]model.CalendarEvent{
		ev("early", 0, 360, 420),
		ev("partial", 0, 450, 510),
		ev("late", 0, 1100, 1200),
	}, days(1))
	require.Len(t, boxes, 1)
	assert.Equal(t, "partial", boxes[0].Event.ID)
	assert.InDelta(t, 0.0, boxes[0].Top, 1e-9)
	assert.InDelta(t, 45.0, boxes[0].Height, 1e-9)
	assert.Equal(t, 450, boxes[0].BoxItem().StartMinute)
}

func TestDayRects(t *testing.T) {
	g := testGrid()
	rects := g.DayRects(3)
	require.Len(t, rects, 3)
	assert.Equal(t, interact.Rect{Left: 170, Top: 30, Width: 120, Height: 900}, rects[1])
}

func TestSlotAtFloors(t *testing.T) {
	g := testGrid()
	start, end := g.SlotAt(monday.Add(13*time.Hour), 89)
	assert.Equal(t, monday.Add(8*time.Hour+30*time.Minute), start)
	assert.Equal(t, monday.Add(9*time.Hour), end)

	start, _ = g.SlotAt(monday, 5000)
	assert.Equal(t, monday.Add(17*time.Hour+30*time.Minute), start)

	start, _ = g.SlotAt(monday, -40)
	assert.Equal(t, monday.Add(8*time.Hour), start)
}

func TestSelectSlotSuppressedDuringGesture(t *testing.T) {
	g := testGrid()
	lock := interact.NewLock()
	calls := 0
	onSelect := func(_, _ time.Time) { calls++ }

	assert.True(t, g.SelectSlot(lock, monday, 10, onSelect))

	box := interact.NewBox(g.InteractConfig(0, true, true), lock, g.Boxes([]model.CalendarEvent{ev("a", 0, 540, 600)}, days(1))[0].BoxItem(), 0, nil)
	box.BeginResize(interact.Point{Y: 100})
	assert.False(t, g.SelectSlot(lock, monday, 10, onSelect))
	box.PointerUp(interact.Point{Y: 100})
	assert.True(t, g.SelectSlot(lock, monday, 10, onSelect))

	assert.Equal(t, 2, calls)
}

func TestInteractConfigSharesScale(t *testing.T) {
	g := testGrid()
	cfg := g.InteractConfig(15, true, false)
	assert.InDelta(t, g.PixelsPerMinute(), cfg.PixelsPerMinute, 1e-12)
	assert.Equal(t, 480, cfg.WindowStart)
	assert.Equal(t, 1080, cfg.WindowEnd)
	assert.Equal(t, 15, cfg.MinDurationMinutes())
	assert.False(t, cfg.Draggable)
}

func TestWriteHTML(t *testing.T) {
	g := testGrid()
	v := g.NewWeekView([]model.CalendarEvent{ev("standup", 0, 540, 570)}, days(7))
	assert.Equal(t, "2026-W10", v.Label)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, v))
	out := buf.String()
	assert.Contains(t, out, `data-ready="true"`)
	assert.Contains(t, out, `data-id="standup"`)
	assert.Contains(t, out, "09:00 standup")
	assert.Contains(t, out, "Mon 03/02")
}

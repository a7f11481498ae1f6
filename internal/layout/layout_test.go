package layout

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/model"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func ev(id string, startMin, endMin int) model.CalendarEvent {
	return model.CalendarEvent{
		ID:    id,
		Title: id,
		Start: monday.Add(time.Duration(startMin) * time.Minute),
		End:   monday.Add(time.Duration(endMin) * time.Minute),
	}
}

func byID(items []AugmentedEvent) map[string]AugmentedEvent {
	out := make(map[string]AugmentedEvent, len(items))
	for _, it := range items {
		out[it.Event.ID] = it
	}
	return out
}

func TestDaySingleEvent(t *testing.T) {
	got := Day([]model.CalendarEvent{ev("a", 540, 600)})
	require.Len(t, got, 1)
	assert.Equal(t, 540, got[0].StartMinute)
	assert.Equal(t, 600, got[0].EndMinute)
	assert.Equal(t, 0, got[0].Column)
	assert.Equal(t, 1, got[0].ColumnCount)
}

func TestDayColumnCountLocality(t *testing.T) {
	got := byID(Day([]model.CalendarEvent{
		ev("C", 200, 260),
		ev("B", 30, 90),
		ev("A", 0, 60),
	}))

	assert.Equal(t, 0, got["A"].Column)
	assert.Equal(t, 2, got["A"].ColumnCount)
	assert.Equal(t, 1, got["B"].Column)
	assert.Equal(t, 2, got["B"].ColumnCount)
	assert.Equal(t, 0, got["C"].Column)
	assert.Equal(t, 1, got["C"].ColumnCount)
}

func TestDayLaterComponentStartsAtColumnZero(t *testing.T) {
	got := byID(Day([]model.CalendarEvent{
		ev("a", 0, 120),
		ev("b", 30, 120),
		ev("c", 60, 120),
		ev("d", 300, 400),
		ev("e", 350, 420),
	}))

	assert.Equal(t, 2, got["c"].Column)
	assert.Equal(t, 3, got["a"].ColumnCount)
	assert.Equal(t, 0, got["d"].Column)
	assert.Equal(t, 1, got["e"].Column)
	assert.Equal(t, 2, got["d"].ColumnCount)
	assert.Equal(t, 2, got["e"].ColumnCount)
}

func TestDayTouchingIsNotOverlap(t *testing.T) {
	got := byID(Day([]model.CalendarEvent{
		ev("a", 540, 600),
		ev("b", 600, 660),
	}))
	assert.Equal(t, 0, got["a"].Column)
	assert.Equal(t, 0, got["b"].Column)
	assert.Equal(t, 1, got["a"].ColumnCount)
	assert.Equal(t, 1, got["b"].ColumnCount)
}

func TestDayReusesFreedColumn(t *testing.T) {
	got := byID(Day([]model.CalendarEvent{
		ev("a", 0, 60),
		ev("b", 30, 120),
		ev("c", 60, 90),
	}))
	assert.Equal(t, 0, got["a"].Column)
	assert.Equal(t, 1, got["b"].Column)
	assert.Equal(t, 0, got["c"].Column)
	for _, id := range []string{"a", "b", "c"} {
		assert.Equal(t, 2, got[id].ColumnCount, id)
	}
}

func TestDayDropsNonPositive(t *testing.T) {
	got := Day([]model.CalendarEvent{
		ev("zero", 540, 540),
		ev("neg", 600, 540),
		ev("ok", 600, 630),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Event.ID)
}

func TestDayCutsAtMidnight(t *testing.T) {
	got := Day([]model.CalendarEvent{ev("late", 23*60, 25*60)})
	require.Len(t, got, 1)
	assert.Equal(t, 1440, got[0].EndMinute)
}

func TestDayDoesNotMutateInput(t *testing.T) {
	in := []model.CalendarEvent{ev("b", 60, 120), ev("a", 0, 90)}
	_ = Day(in)
	assert.Equal(t, "b", in[0].ID)
	assert.Equal(t, "a", in[1].ID)
}

func TestDayPackingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 300; round++ {
		n := rng.Intn(12) + 1
		events := make([]model.CalendarEvent, 0, n)
		for i := 0; i < n; i++ {
			// coarse 15 minute grid so exact touching is common
			start := rng.Intn(40) * 15
			end := start + (rng.Intn(8)+1)*15
			events = append(events, ev(fmt.Sprintf("e%d", i), start, end))
		}

		got := Day(events)
		require.Len(t, got, n)

		for i := range got {
			a := got[i]
			require.GreaterOrEqual(t, a.Column, 0)
			require.Less(t, a.Column, a.ColumnCount)
			for j := i + 1; j < len(got); j++ {
				b := got[j]
				if Overlaps(a.StartMinute, a.EndMinute, b.StartMinute, b.EndMinute) {
					require.NotEqual(t, a.Column, b.Column,
						"round %d: %s[%d,%d) and %s[%d,%d) share column",
						round, a.Event.ID, a.StartMinute, a.EndMinute, b.Event.ID, b.StartMinute, b.EndMinute)
					require.Equal(t, a.ColumnCount, b.ColumnCount)
				}
			}
		}
	}
}

func TestWeekBucketsByStartDay(t *testing.T) {
	days := []time.Time{monday, monday.AddDate(0, 0, 1)}
	tuesday := model.CalendarEvent{
		ID:    "t",
		Start: days[1].Add(14 * time.Hour),
		End:   days[1].Add(15 * time.Hour),
	}
	outside := model.CalendarEvent{
		ID:    "x",
		Start: monday.AddDate(0, 0, 5),
		End:   monday.AddDate(0, 0, 5).Add(time.Hour),
	}

	got := Week([]model.CalendarEvent{ev("m", 60, 120), tuesday, outside}, days)
	require.Len(t, got, 2)
	require.Len(t, got[0], 1)
	require.Len(t, got[1], 1)
	assert.Equal(t, "m", got[0][0].Event.ID)
	assert.Equal(t, "t", got[1][0].Event.ID)
	assert.Equal(t, 840, got[1][0].StartMinute)
}

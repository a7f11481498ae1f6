package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekgrid/internal/model"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func event(id string, offsetH int) model.CalendarEvent {
	return model.CalendarEvent{
		ID:    id,
		Title: id,
		Start: base.Add(time.Duration(offsetH) * time.Hour),
		End:   base.Add(time.Duration(offsetH+1) * time.Hour),
	}
}

func TestReplaceIsPerSource(t *testing.T) {
	m := NewMemory()
	m.Replace("work", []model.CalendarEvent{event("w1", 0), event("w2", 2)})
	m.Replace("home", []model.CalendarEvent{event("h1", 1)})
	require.Equal(t, 3, m.Len())

	m.Replace("work", []model.CalendarEvent{event("w3", 3)})
	got := m.Events(time.Time{}, time.Time{})
	require.Len(t, got, 2)
	assert.Equal(t, "h1", got[0].ID)
	assert.Equal(t, "w3", got[1].ID)
}

func TestEventsWindowIsHalfOpen(t *testing.T) {
	m := NewMemory()
	m.Replace("s", []model.CalendarEvent{event("a", 0), event("b", 1), event("c", 5)})

	got := m.Events(base.Add(time.Hour), base.Add(5*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestUpdate(t *testing.T) {
	m := NewMemory()
	m.Replace("s", []model.CalendarEvent{event("a", 0)})

	ev, err := m.Update("a", base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), ev.Start)

	got, err := m.Get("a")
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Hour), got.End)

	_, err = m.Update("missing", base, base.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Update("a", base, base)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestAddRejectsEmpty(t *testing.T) {
	m := NewMemory()
	assert.ErrorIs(t, m.Add("s", model.CalendarEvent{ID: "z", Start: base, End: base}), ErrInvalidRange)
	require.NoError(t, m.Add("s", event("ok", 0)))
	assert.False(t, m.UpdatedAt().IsZero())
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMemory()
	m.Replace("s", []model.CalendarEvent{event("a", 0)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = m.Events(time.Time{}, time.Time{})
		}()
		go func(i int) {
			defer wg.Done()
			_, _ = m.Update("a", base.Add(time.Duration(i)*time.Minute), base.Add(time.Hour))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, m.Len())
}

// Package store is the in-process backing store that supplies events to the
// grid and absorbs range updates emitted by reconciliation.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"weekgrid/internal/model"
)

// ErrNotFound is returned when an event id is unknown.
var ErrNotFound = errors.New("store: event not found")

// ErrInvalidRange is returned for updates with end <= start.
var ErrInvalidRange = errors.New("store: end must be after start")

// Memory keeps events grouped by the source that produced them, so a feed
// refresh replaces only its own events.
type Memory struct {
	mu       sync.RWMutex
	bySource map[string][]model.CalendarEvent
	updated  time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{bySource: make(map[string][]model.CalendarEvent)}
}

// Replace swaps every event of source for events.
func (m *Memory) Replace(source string, events []model.CalendarEvent) {
	cp := append([]model.CalendarEvent(nil), events...)
	m.mu.Lock()
	m.bySource[source] = cp
	m.updated = time.Now()
	m.mu.Unlock()
}

// Add appends a single event to source.
func (m *Memory) Add(source string, ev model.CalendarEvent) error {
	if !ev.Valid() {
		return ErrInvalidRange
	}
	m.mu.Lock()
	m.bySource[source] = append(m.bySource[source], ev)
	m.updated = time.Now()
	m.mu.Unlock()
	return nil
}

// Events returns events intersecting [from, to), ordered by start.
// A zero to means unbounded.
func (m *Memory) Events(from, to time.Time) []model.CalendarEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.CalendarEvent
	for _, evs := range m.bySource {
		for _, ev := range evs {
			if !to.IsZero() && !ev.Start.Before(to) {
				continue
			}
			if !ev.End.After(from) {
				continue
			}
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get looks an event up by id.
func (m *Memory) Get(id string) (model.CalendarEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, evs := range m.bySource {
		for _, ev := range evs {
			if ev.ID == id {
				return ev, nil
			}
		}
	}
	return model.CalendarEvent{}, ErrNotFound
}

// Update moves event id to [start, end).
func (m *Memory) Update(id string, start, end time.Time) (model.CalendarEvent, error) {
	if !end.After(start) {
		return model.CalendarEvent{}, ErrInvalidRange
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for src, evs := range m.bySource {
		for i := range evs {
			if evs[i].ID != id {
				continue
			}
			evs[i].Start = start
			evs[i].End = end
			m.bySource[src] = evs
			m.updated = time.Now()
			return evs[i], nil
		}
	}
	return model.CalendarEvent{}, ErrNotFound
}

// UpdatedAt is the time of the last mutation.
func (m *Memory) UpdatedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.updated
}

// Len returns the total number of stored events.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, evs := range m.bySource {
		n += len(evs)
	}
	return n
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// RangeID identifies a controlled DateRange independently of its position in
// the owning list, so reordering or filtering the list cannot misroute an
// update.
type RangeID uuid.UUID

// NewRangeID returns a fresh random RangeID.
func NewRangeID() RangeID {
	return RangeID(uuid.New())
}

// IsZero reports whether id is the zero value (no range attached).
func (id RangeID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id RangeID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler.
func (id RangeID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes
// to the zero ID.
func (id *RangeID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = RangeID{}
		return nil
	}
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}
	*id = RangeID(u)
	return nil
}

// CalendarEvent is a single time-ranged event as supplied by the backing
// store on every render. The engine never mutates it in place.
type CalendarEvent struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Color string    `json:"color,omitempty"`

	// RangeID is set only on synthetic events generated from controlled
	// ranges; it ties interaction results back to the originating range.
	RangeID RangeID `json:"range_id,omitzero"`
}

// Duration returns End - Start.
func (e CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Valid reports whether the event has a strictly positive duration.
func (e CalendarEvent) Valid() bool {
	return e.End.After(e.Start)
}

// DateRange is the externally controlled representation used in controlled
// mode. List order is the index reported back to the owner.
type DateRange struct {
	ID        RangeID   `json:"id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// RangesToEvents builds one synthetic CalendarEvent per range. Ranges with a
// zero ID are assigned one in place so callers can keep using the slice.
func RangesToEvents(ranges []DateRange, title string) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(ranges))
	for i := range ranges {
		if ranges[i].ID.IsZero() {
			ranges[i].ID = NewRangeID()
		}
		r := ranges[i]
		out = append(out, CalendarEvent{
			ID:      r.ID.String(),
			Title:   title,
			Start:   r.StartDate,
			End:     r.EndDate,
			RangeID: r.ID,
		})
	}
	return out
}

// IndexOfRange returns the position of id in ranges, or -1.
func IndexOfRange(ranges []DateRange, id RangeID) int {
	if id.IsZero() {
		return -1
	}
	for i, r := range ranges {
		if r.ID == id {
			return i
		}
	}
	return -1
}

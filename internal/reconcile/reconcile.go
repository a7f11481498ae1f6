// Package reconcile turns committed gestures and clicks into updates of the
// caller's domain model, either as full-list replacements of controlled
// ranges or as legacy per-event callbacks.
package reconcile

import (
	"errors"
	"time"

	"weekgrid/internal/interact"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/timeunit"
)

// Mode selects how updates are emitted.
type Mode int

const (
	// ModeLegacy invokes OnResizeEvent and OnMoveEvent.
	ModeLegacy Mode = iota
	// ModeControlled emits full replacement lists through OnChangeRanges.
	ModeControlled
)

// ParseMode maps "controlled" to ModeControlled and anything else to
// ModeLegacy.
func ParseMode(s string) Mode {
	if s == "controlled" {
		return ModeControlled
	}
	return ModeLegacy
}

func (m Mode) String() string {
	if m == ModeControlled {
		return "controlled"
	}
	return "legacy"
}

// Callbacks are the outputs of the engine. Nil callbacks are skipped.
type Callbacks struct {
	OnChangeRanges func(next []model.DateRange)
	OnResizeEvent  func(ev model.CalendarEvent, nextStart, nextEnd time.Time)
	OnMoveEvent    func(ev model.CalendarEvent, nextStart, nextEnd time.Time)
	OnSelectEvent  func(ev model.CalendarEvent)
	OnSelectSlot   func(start, end time.Time)
}

var errIndexLost = errors.New("range index not recoverable")

// Reconciler is the single authority for turning interaction results into
// emitted updates.
type Reconciler struct {
	Mode      Mode
	Callbacks Callbacks

	// Days maps day indices from interaction commits to calendar dates.
	Days []time.Time

	ranges []model.DateRange
}

// New returns a Reconciler for mode with the given callbacks.
func New(mode Mode, cb Callbacks, days []time.Time) *Reconciler {
	return &Reconciler{Mode: mode, Callbacks: cb, Days: days}
}

// SetRanges replaces the controlled range list. The slice is copied.
func (r *Reconciler) SetRanges(ranges []model.DateRange) {
	r.ranges = append([]model.DateRange(nil), ranges...)
}

// Ranges returns a copy of the controlled range list.
func (r *Reconciler) Ranges() []model.DateRange {
	return append([]model.DateRange(nil), r.ranges...)
}

// Events returns the synthetic events for the controlled ranges, assigning
// ids to ranges that lack one.
func (r *Reconciler) Events(title string) []model.CalendarEvent {
	return model.RangesToEvents(r.ranges, title)
}

// EmitRangeUpdate publishes that ev should now span [nextStart, nextEnd).
func (r *Reconciler) EmitRangeUpdate(ev model.CalendarEvent, nextStart, nextEnd time.Time) {
	if r.Mode == ModeLegacy {
		if r.Callbacks.OnResizeEvent != nil {
			r.Callbacks.OnResizeEvent(ev, nextStart, nextEnd)
		}
		if r.Callbacks.OnMoveEvent != nil {
			r.Callbacks.OnMoveEvent(ev, nextStart, nextEnd)
		}
		return
	}

	idx := model.IndexOfRange(r.ranges, ev.RangeID)
	if idx < 0 {
		// Degraded: the owner gets the single updated range and decides how
		// to merge it.
		appLog.Error("reconcile: emitting single range", errIndexLost,
			"event", ev.ID, "range_id", ev.RangeID.String(), "ranges", len(r.ranges))
		id := ev.RangeID
		if id.IsZero() {
			id = model.NewRangeID()
		}
		r.emit([]model.DateRange{{ID: id, StartDate: nextStart, EndDate: nextEnd}})
		return
	}

	next := r.Ranges()
	next[idx] = model.DateRange{ID: next[idx].ID, StartDate: nextStart, EndDate: nextEnd}
	r.ranges = next
	r.emit(r.Ranges())
}

func (r *Reconciler) emit(next []model.DateRange) {
	if r.Callbacks.OnChangeRanges == nil {
		appLog.Debug("reconcile: no OnChangeRanges callback", "ranges", len(next))
		return
	}
	r.Callbacks.OnChangeRanges(next)
}

// Commit converts an interaction commit from day/minute space into
// timestamps and emits it. It implements interact.Committer.
func (r *Reconciler) Commit(c interact.Commit) {
	day := r.dayFor(c)
	start := timeunit.AtMinute(day, c.StartMinute)
	end := timeunit.AtMinute(day, c.EndMinute)
	r.EmitRangeUpdate(c.Event, start, end)
}

// dayFor resolves the target calendar date of a commit. Without a usable Days
// entry it shifts the event's own date by the day offset of the gesture.
func (r *Reconciler) dayFor(c interact.Commit) time.Time {
	if c.Day >= 0 && c.Day < len(r.Days) {
		return timeunit.StartOfDay(r.Days[c.Day])
	}
	own := timeunit.StartOfDay(c.Event.Start)
	return own.AddDate(0, 0, c.Day-c.OriginDay)
}

// SelectEvent forwards a discrete click on an event.
func (r *Reconciler) SelectEvent(ev model.CalendarEvent) {
	if r.Callbacks.OnSelectEvent != nil {
		r.Callbacks.OnSelectEvent(ev)
	}
}

// SelectSlot forwards an empty-space click.
func (r *Reconciler) SelectSlot(start, end time.Time) {
	if r.Callbacks.OnSelectSlot != nil {
		r.Callbacks.OnSelectSlot(start, end)
	}
}

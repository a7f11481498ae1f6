// Package engine binds the event store, renderer, interaction controller and
// reconciler into the single object the HTTP layer and CLI drive.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"weekgrid/internal/calnav"
	"weekgrid/internal/config"
	"weekgrid/internal/interact"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/reconcile"
	"weekgrid/internal/render"
	"weekgrid/internal/store"
)

var (
	// ErrEventNotFound is returned when a script names an event that has no
	// box in the requested week.
	ErrEventNotFound = errors.New("engine: event not visible in week")
	// ErrBadScript is returned for gesture scripts that cannot be replayed.
	ErrBadScript = errors.New("engine: invalid gesture script")
	// ErrNotControlled is returned by range operations in legacy mode.
	ErrNotControlled = errors.New("engine: not in controlled mode")
	// ErrBadDay is returned for day indices outside the week.
	ErrBadDay = errors.New("engine: day index out of range")
)

// DefaultRangeTitle labels synthetic events built from controlled ranges.
const DefaultRangeTitle = "Available"

// Options configure an Engine.
type Options struct {
	Grid      render.Grid
	Location  *time.Location
	WeekStart time.Weekday
	Mode      reconcile.Mode

	// MinDuration is the resize floor in minutes; zero means one slot.
	MinDuration int
	Resizable   bool
	Draggable   bool

	RangeTitle string

	// Now is the engine clock. Nil means time.Now.
	Now func() time.Time
}

// OptionsFromConfig derives engine options from the application config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Options{}, fmt.Errorf("engine: timezone %q: %w", cfg.Timezone, err)
	}
	g := cfg.Grid
	return Options{
		Grid: render.Grid{
			WindowStart:    g.StartAt.Minutes(),
			WindowEnd:      g.EndAt.Minutes(),
			SlotMinutes:    g.SlotMinutes,
			SlotHeightPx:   g.SlotHeightPx,
			DayWidthPx:     g.DayWidthPx,
			HeaderHeightPx: g.HeaderHeightPx,
			GutterWidthPx:  g.GutterWidthPx,
			Policy:         render.Policy(g.Policy),
		},
		Location:    loc,
		WeekStart:   calnav.ParseWeekday(cfg.WeekStart),
		Mode:        reconcile.ParseMode(cfg.Mode),
		MinDuration: g.MinDurationMinutes,
		Resizable:   g.Resizable,
		Draggable:   g.Draggable,
	}, nil
}

// Engine is safe for concurrent use. Gesture replays are serialized; each
// replay runs a complete pointer sequence against one box.
type Engine struct {
	mu     sync.Mutex
	opts   Options
	store  *store.Memory
	lock   *interact.Lock
	ranges []model.DateRange
}

// New returns an Engine reading events from st.
func New(opts Options, st *store.Memory) *Engine {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RangeTitle == "" {
		opts.RangeTitle = DefaultRangeTitle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if st == nil {
		st = store.NewMemory()
	}
	return &Engine{
		opts:  opts,
		store: st,
		lock:  interact.NewLock(),
	}
}

// Lock exposes the grid-wide interaction lock.
func (e *Engine) Lock() *interact.Lock { return e.lock }

// Mode reports the reconciliation mode.
func (e *Engine) Mode() reconcile.Mode { return e.opts.Mode }

// Grid returns the grid geometry.
func (e *Engine) Grid() render.Grid { return e.opts.Grid }

// Location returns the display timezone.
func (e *Engine) Location() *time.Location { return e.opts.Location }

// Now returns the engine clock reading in the display timezone.
func (e *Engine) Now() time.Time { return e.opts.Now().In(e.opts.Location) }

// Days returns the seven dates of the week containing anchor.
func (e *Engine) Days(anchor time.Time) []time.Time {
	return calnav.WeekDays(anchor.In(e.opts.Location), e.opts.WeekStart)
}

// Week lays out and positions the week containing anchor.
func (e *Engine) Week(anchor time.Time) render.WeekView {
	e.mu.Lock()
	defer e.mu.Unlock()
	days := e.Days(anchor)
	return e.opts.Grid.NewWeekView(e.eventsLocked(days), days)
}

// eventsLocked returns the events the grid shows for days. Legacy mode shows
// the store; controlled mode shows only the synthetic range events.
func (e *Engine) eventsLocked(days []time.Time) []model.CalendarEvent {
	var events []model.CalendarEvent
	if e.opts.Mode == reconcile.ModeControlled {
		events = model.RangesToEvents(e.ranges, e.opts.RangeTitle)
	} else if len(days) > 0 {
		events = e.store.Events(days[0], days[len(days)-1].AddDate(0, 0, 1))
	}
	for i := range events {
		events[i].Start = events[i].Start.In(e.opts.Location)
		events[i].End = events[i].End.In(e.opts.Location)
	}
	return events
}

// ControlledRanges returns a copy of the externally owned range list.
func (e *Engine) ControlledRanges() []model.DateRange {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.DateRange(nil), e.ranges...)
}

// SetControlledRanges replaces the range list. Ranges without an ID are
// assigned one; ranges with end <= start are rejected.
func (e *Engine) SetControlledRanges(ranges []model.DateRange) ([]model.DateRange, error) {
	if e.opts.Mode != reconcile.ModeControlled {
		return nil, ErrNotControlled
	}
	next := append([]model.DateRange(nil), ranges...)
	for i, r := range next {
		if !r.EndDate.After(r.StartDate) {
			return nil, fmt.Errorf("engine: range %d: %w", i, store.ErrInvalidRange)
		}
		if r.ID.IsZero() {
			next[i].ID = model.NewRangeID()
		}
	}

	e.mu.Lock()
	e.ranges = next
	e.mu.Unlock()
	appLog.Info("controlled ranges replaced", "ranges", len(next))
	return append([]model.DateRange(nil), next...), nil
}

// SlotSelection is the outcome of a click on empty grid space.
type SlotSelection struct {
	Selected bool      `json:"selected"`
	Start    time.Time `json:"start,omitzero"`
	End      time.Time `json:"end,omitzero"`
}

// SelectSlot resolves a click at pixel offset y inside the body of day
// column day of the week containing anchor. It reports Selected=false while
// a gesture holds the interaction lock.
func (e *Engine) SelectSlot(anchor time.Time, day int, y float64) (SlotSelection, error) {
	days := e.Days(anchor)
	if day < 0 || day >= len(days) {
		return SlotSelection{}, ErrBadDay
	}

	var sel SlotSelection
	rec := reconcile.New(e.opts.Mode, reconcile.Callbacks{
		OnSelectSlot: func(start, end time.Time) {
			sel = SlotSelection{Selected: true, Start: start, End: end}
		},
	}, days)
	e.opts.Grid.SelectSlot(e.lock, days[day], y, rec.SelectSlot)
	if sel.Selected {
		appLog.Debug("slot selected", "start", sel.Start.Format(time.RFC3339), "end", sel.End.Format(time.RFC3339))
	}
	return sel, nil
}

// Event returns the event with id as currently shown, from the store in
// legacy mode or from the range list in controlled mode.
func (e *Engine) Event(id string) (model.CalendarEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opts.Mode == reconcile.ModeControlled {
		for _, ev := range model.RangesToEvents(e.ranges, e.opts.RangeTitle) {
			if ev.ID == id {
				return ev, nil
			}
		}
		return model.CalendarEvent{}, store.ErrNotFound
	}
	return e.store.Get(id)
}

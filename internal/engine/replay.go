package engine

import (
	"fmt"
	"time"

	"weekgrid/internal/interact"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/reconcile"
	"weekgrid/internal/timeunit"
)

// GestureScript is a recorded pointer sequence against one event box.
// Points are in grid pixel space (the same space as Grid.DayRects). The first
// point is pointer-down, the last is pointer-up, anything between is a move.
type GestureScript struct {
	// Kind is "resize", "move" or "click".
	Kind    string    `json:"kind"`
	EventID string    `json:"event_id"`
	Week    time.Time `json:"week"`

	Points []interact.Point `json:"points"`

	// Cancel abandons the gesture at the last point instead of releasing.
	Cancel bool `json:"cancel,omitempty"`

	// ClickAfterMs, when set, sends a click this many milliseconds after
	// pointer-up.
	ClickAfterMs *int `json:"click_after_ms,omitempty"`
}

// ReplayResult reports what a script did.
type ReplayResult struct {
	Started bool   `json:"started"`
	State   string `json:"state"`

	Commit  *CommitInfo        `json:"commit,omitempty"`
	Preview []interact.Preview `json:"preview,omitempty"`

	// Event is the event after reconciliation.
	Event model.CalendarEvent `json:"event"`

	// Ranges is the emitted list in controlled mode.
	Ranges []model.DateRange `json:"ranges,omitempty"`

	Clicked  bool `json:"clicked"`
	Selected bool `json:"selected"`
}

// CommitInfo is the timestamped form of an interaction commit.
type CommitInfo struct {
	Kind  string    `json:"kind"`
	Day   int       `json:"day"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func parseKind(s string) (interact.Kind, bool, error) {
	switch s {
	case "resize":
		return interact.KindResize, false, nil
	case "move":
		return interact.KindMove, false, nil
	case "click":
		return 0, true, nil
	default:
		return 0, false, fmt.Errorf("%w: unknown kind %q", ErrBadScript, s)
	}
}

// Replay runs script through an interaction box and reconciles any commit
// into the store (legacy mode) or the controlled range list.
func (e *Engine) Replay(script GestureScript) (ReplayResult, error) {
	kind, clickOnly, err := parseKind(script.Kind)
	if err != nil {
		return ReplayResult{}, err
	}
	if !clickOnly && len(script.Points) == 0 {
		return ReplayResult{}, fmt.Errorf("%w: no points", ErrBadScript)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	anchor := script.Week
	if anchor.IsZero() {
		anchor = e.Now()
	}
	days := e.Days(anchor)
	view := e.opts.Grid.NewWeekView(e.eventsLocked(days), days)

	idx := -1
	for i, b := range view.Boxes {
		if b.Event.ID == script.EventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ReplayResult{}, fmt.Errorf("%w: %q", ErrEventNotFound, script.EventID)
	}
	target := view.Boxes[idx]

	res := ReplayResult{State: interact.StateIdle.String(), Event: target.Event}

	rec := reconcile.New(e.opts.Mode, e.callbacks(&res), days)
	rec.SetRanges(e.ranges)

	// A virtual clock keeps the ghost-click window deterministic.
	clock := e.opts.Now()
	cfg := e.opts.Grid.InteractConfig(e.opts.MinDuration, e.opts.Resizable, e.opts.Draggable)
	box := interact.NewBox(cfg, e.lock, target.BoxItem(), target.DayIndex, interact.CommitterFunc(func(c interact.Commit) {
		day := days[c.Day]
		res.Commit = &CommitInfo{
			Kind:  c.Kind.String(),
			Day:   c.Day,
			Start: timeunit.AtMinute(day, c.StartMinute),
			End:   timeunit.AtMinute(day, c.EndMinute),
		}
		rec.Commit(c)
	}))
	box.Now = func() time.Time { return clock }
	box.OnSelect = rec.SelectEvent

	if !clickOnly {
		pts := script.Points
		if kind == interact.KindMove {
			res.Started = box.BeginMove(pts[0], e.opts.Grid.DayRects(len(days)))
		} else {
			res.Started = box.BeginResize(pts[0])
		}
		if !res.Started {
			appLog.Debug("replay: gesture rejected", "kind", kind.String(), "event", script.EventID)
			return res, nil
		}

		for _, p := range pts[1:] {
			box.PointerMove(p)
			res.Preview = append(res.Preview, box.Preview())
		}
		last := pts[len(pts)-1]
		if script.Cancel {
			box.Cancel()
			res.State = interact.StateCancelled.String()
		} else {
			res.State = box.PointerUp(last).String()
		}
	}

	if clickOnly || script.ClickAfterMs != nil {
		if script.ClickAfterMs != nil {
			clock = clock.Add(time.Duration(*script.ClickAfterMs) * time.Millisecond)
		}
		res.Clicked = box.Click()
	}
	return res, nil
}

// callbacks wires reconciliation outputs back into the engine's state. The
// caller holds e.mu.
func (e *Engine) callbacks(res *ReplayResult) reconcile.Callbacks {
	update := func(ev model.CalendarEvent, start, end time.Time) {
		updated, err := e.store.Update(ev.ID, start, end)
		if err != nil {
			appLog.Error("replay: store update failed", err, "event", ev.ID)
			return
		}
		res.Event = updated
	}
	return reconcile.Callbacks{
		OnResizeEvent: update,
		OnMoveEvent:   update,
		OnChangeRanges: func(next []model.DateRange) {
			e.ranges = append([]model.DateRange(nil), next...)
			res.Ranges = next
			for _, ev := range model.RangesToEvents(e.ranges, e.opts.RangeTitle) {
				if ev.RangeID == res.Event.RangeID {
					res.Event = ev
				}
			}
		},
		OnSelectEvent: func(model.CalendarEvent) {
			res.Selected = true
		},
	}
}

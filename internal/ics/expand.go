package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
)

const defaultMaxInstances = 5000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// Location is the display timezone; nil means time.Local.
	Location *time.Location

	// RangeStart and RangeEnd bound the instances produced.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxInstances caps expansion per UID. Zero uses defaultMaxInstances.
	MaxInstances int
}

// ExpandResult holds the concrete events and the UIDs that hit the cap.
type ExpandResult struct {
	Events    []model.CalendarEvent
	Truncated []string
}

// Expand turns feed entries into concrete timed events for the grid.
// All-day entries are left out; the time grid has no all-day lane.
func Expand(entries []Entry, cfg ExpandConfig) (ExpandResult, error) {
	var res ExpandResult
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return res, errors.New("ics: expand range end before start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = defaultMaxInstances
	}

	bases := make(map[string][]Entry)
	overrides := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		if e.IsOverride() {
			overrides[e.UID] = append(overrides[e.UID], e)
			continue
		}
		if _, seen := bases[e.UID]; !seen {
			order = append(order, e.UID)
		}
		bases[e.UID] = append(bases[e.UID], e)
	}

	for _, uid := range order {
		truncated := false
		for _, e := range bases[uid] {
			if e.AllDay {
				continue
			}
			evs, hitCap := expandEntry(e, overrides[uid], cfg)
			truncated = truncated || hitCap
			res.Events = append(res.Events, evs...)
		}
		if truncated {
			res.Truncated = append(res.Truncated, uid)
			appLog.Error("ics expand truncated", errors.New("max instances reached"),
				"uid", uid, "cap", cfg.MaxInstances)
		}
	}
	return res, nil
}

func expandEntry(e Entry, overrides []Entry, cfg ExpandConfig) ([]model.CalendarEvent, bool) {
	if e.RawRRule == "" {
		if !intersects(e.Start, e.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		inst := e
		if o, ok := findOverride(overrides, e.Start); ok {
			inst = o
		}
		return []model.CalendarEvent{toEvent(inst, inst.Start, inst.End, false, cfg.Location)}, false
	}

	r, err := rrule.StrToRRule(e.RawRRule)
	if err != nil {
		appLog.Error("ics expand: bad RRULE", err, "uid", e.UID, "rrule", e.RawRRule)
		return nil, false
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range e.ExDates {
		set.ExDate(ex.In(e.Start.Location()))
	}

	loc := e.Start.Location()
	// Include instances that start before the range but are still running.
	dur := e.End.Sub(e.Start)
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxInstances {
		starts = starts[:cfg.MaxInstances]
		hitCap = true
	}

	out := make([]model.CalendarEvent, 0, len(starts))
	for _, s := range starts {
		inst, start, end := e, s, s.Add(dur)
		if o, ok := findOverride(overrides, s); ok {
			inst, start, end = o, o.Start, o.End
		}
		if !intersects(start, end, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, toEvent(inst, start, end, true, cfg.Location))
	}
	return out, hitCap
}

func findOverride(overrides []Entry, start time.Time) (Entry, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return Entry{}, false
}

func toEvent(e Entry, start, end time.Time, recurring bool, loc *time.Location) model.CalendarEvent {
	start = start.In(loc)
	end = end.In(loc)

	id := e.UID
	if recurring {
		id = e.UID + "/" + start.Format(time.RFC3339)
	}
	color := e.Color
	if color == "" {
		color = e.Source.Color
	}
	return model.CalendarEvent{
		ID:    id,
		Title: e.Summary,
		Start: start,
		End:   end,
		Color: color,
	}
}

// intersects is a half-open overlap test on timestamps.
func intersects(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

package ics

import (
	"context"
	"errors"

	"weekgrid/internal/model"
)

// Sink receives the expanded events of one source.
type Sink interface {
	Replace(source string, events []model.CalendarEvent)
}

// SyncReport summarizes one refresh.
type SyncReport struct {
	Sources   int
	Events    int
	FromCache int
	Errors    []error
}

// Sync fetches, parses and expands every source and hands each source's
// events to sink. A source that fails to fetch or parse keeps whatever sink
// already holds for it.
func Sync(ctx context.Context, f *Fetcher, sources []Source, cfg ExpandConfig, sink Sink) SyncReport {
	rep := SyncReport{Sources: len(sources)}

	results, errs := f.FetchAll(ctx, sources)
	rep.Errors = append(rep.Errors, errs...)

	for _, res := range results {
		if res.FromCache {
			rep.FromCache++
		}
		entries, err := Parse(res.Source, res.Body)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			continue
		}
		out, err := Expand(entries, cfg)
		if err != nil {
			rep.Errors = append(rep.Errors, err)
			continue
		}
		sink.Replace(res.Source.ID, out.Events)
		rep.Events += len(out.Events)
	}
	return rep
}

// Err joins the report errors, or returns nil.
func (r SyncReport) Err() error {
	return errors.Join(r.Errors...)
}

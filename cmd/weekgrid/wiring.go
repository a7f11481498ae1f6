package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"weekgrid/internal/config"
	"weekgrid/internal/engine"
	"weekgrid/internal/ics"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/store"
)

// Feed expansion covers a few weeks either side of today so week navigation
// in the UI has data without a refresh per request.
const (
	feedBackfill = 14 * 24 * time.Hour
	feedHorizon  = 42 * 24 * time.Hour
)

// buildEngine creates the store and engine described by cfg.
func buildEngine(cfg *config.Config) (*engine.Engine, *store.Memory, error) {
	opts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	st := store.NewMemory()
	return engine.New(opts, st), st, nil
}

// feedRefresher pulls every configured ICS feed into the store.
type feedRefresher struct {
	fetcher *ics.Fetcher
	sources []ics.Source
	sink    ics.Sink
	loc     *time.Location
	now     func() time.Time
}

func newFeedRefresher(cfg *config.Config, sink ics.Sink, loc *time.Location) *feedRefresher {
	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, c := range cfg.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL, Color: c.Color})
	}
	return &feedRefresher{
		fetcher: ics.NewFetcher(cfg.CacheDir),
		sources: sources,
		sink:    sink,
		loc:     loc,
		now:     time.Now,
	}
}

// Refresh implements web.Refresher.
func (f *feedRefresher) Refresh(ctx context.Context) ics.SyncReport {
	if len(f.sources) == 0 {
		return ics.SyncReport{}
	}
	now := f.now().In(f.loc)
	start := time.Now()
	rep := ics.Sync(ctx, f.fetcher, f.sources, ics.ExpandConfig{
		Location:   f.loc,
		RangeStart: now.Add(-feedBackfill),
		RangeEnd:   now.Add(feedHorizon),
	}, f.sink)
	if err := rep.Err(); err != nil {
		appLog.Error("feed refresh finished with errors", err, "sources", rep.Sources, "events", rep.Events)
	} else {
		appLog.Info("feed refresh finished",
			"sources", rep.Sources,
			"events", rep.Events,
			"from_cache", rep.FromCache,
			"elapsed", time.Since(start).Round(time.Millisecond).String(),
		)
	}
	return rep
}

// loadEventsFile reads a JSON array of events into st under source "file".
func loadEventsFile(path string, st *store.Memory) error {
	if path == "" {
		return nil
	}
	var events []model.CalendarEvent
	if err := readJSONFile(path, &events); err != nil {
		return err
	}
	st.Replace("file", events)
	appLog.Debug("events loaded", "path", path, "count", len(events))
	return nil
}

// loadRangesFile reads a JSON array of controlled ranges into eng.
func loadRangesFile(path string, eng *engine.Engine) error {
	if path == "" {
		return nil
	}
	var ranges []model.DateRange
	if err := readJSONFile(path, &ranges); err != nil {
		return err
	}
	_, err := eng.SetControlledRanges(ranges)
	return err
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

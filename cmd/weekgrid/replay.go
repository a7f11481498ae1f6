package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"weekgrid/internal/calnav"
	"weekgrid/internal/engine"
)

var (
	replayScript string
	replayEvents string
	replayRanges string
	replayDate   string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded gesture and print the result",
	Long: `Replay a gesture script (JSON: kind, event_id, points, cancel,
click_after_ms) against the events in --events or the ranges in --ranges and
print the reconciled result as JSON.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayScript, "script", "", "JSON gesture script")
	replayCmd.Flags().StringVar(&replayEvents, "events", "", "JSON file of events")
	replayCmd.Flags().StringVar(&replayRanges, "ranges", "", "JSON file of controlled ranges")
	replayCmd.Flags().StringVar(&replayDate, "date", "", "Any date in the week (YYYY-MM-DD); overrides the script's week")
	_ = replayCmd.MarkFlagRequired("script")
}

func runReplay(cmd *cobra.Command, args []string) error {
	eng, st, err := buildEngine(conf)
	if err != nil {
		return err
	}
	if err := loadEventsFile(replayEvents, st); err != nil {
		return err
	}
	if err := loadRangesFile(replayRanges, eng); err != nil {
		return err
	}

	var script engine.GestureScript
	if err := readJSONFile(replayScript, &script); err != nil {
		return err
	}
	if replayDate != "" || script.Week.IsZero() {
		script.Week, err = calnav.ParseDate(replayDate, eng.Location(), eng.Now())
		if err != nil {
			return err
		}
	}

	res, err := eng.Replay(script)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

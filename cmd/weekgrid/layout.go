package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"weekgrid/internal/calnav"
	"weekgrid/internal/render"
	"weekgrid/internal/timeunit"
)

var (
	layoutDate   string
	layoutEvents string
	layoutRanges string
	layoutJSON   bool
	layoutFeeds  bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Print the laid-out boxes of one week",
	Long: `Lay out one week and print every box with its column assignment and
position. Events come from --events, --ranges (controlled mode) and, with
--feeds, the configured ICS feeds.`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().StringVar(&layoutDate, "date", "", "Any date in the week (YYYY-MM-DD), defaults to today")
	layoutCmd.Flags().StringVar(&layoutEvents, "events", "", "JSON file of events")
	layoutCmd.Flags().StringVar(&layoutRanges, "ranges", "", "JSON file of controlled ranges")
	layoutCmd.Flags().BoolVar(&layoutJSON, "json", false, "Output as JSON")
	layoutCmd.Flags().BoolVar(&layoutFeeds, "feeds", false, "Fetch the configured ICS feeds first")
}

func runLayout(cmd *cobra.Command, args []string) error {
	eng, st, err := buildEngine(conf)
	if err != nil {
		return err
	}
	if err := loadEventsFile(layoutEvents, st); err != nil {
		return err
	}
	if err := loadRangesFile(layoutRanges, eng); err != nil {
		return err
	}
	if layoutFeeds {
		if err := newFeedRefresher(conf, st, eng.Location()).Refresh(context.Background()).Err(); err != nil {
			return err
		}
	}

	anchor, err := calnav.ParseDate(layoutDate, eng.Location(), eng.Now())
	if err != nil {
		return err
	}
	v := eng.Week(anchor)

	out := cmd.OutOrStdout()
	if layoutJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return printBoxes(out, v)
}

func printBoxes(w io.Writer, v render.WeekView) error {
	fmt.Fprintf(w, "Week %s\n\n", v.Label)
	if len(v.Boxes) == 0 {
		fmt.Fprintln(w, "No events.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tTIME\tCOL\tLEFT%\tWIDTH%\tTITLE\tID")
	for _, b := range v.Boxes {
		fmt.Fprintf(tw, "%s\t%s-%s\t%d/%d\t%.1f\t%.1f\t%s\t%s\n",
			v.Days[b.DayIndex].Format("Mon 01-02"),
			timeunit.FormatMinute(b.StartMinute),
			timeunit.FormatMinute(b.EndMinute),
			b.Column+1, b.ColumnCount,
			b.LeftPct, b.WidthPct,
			b.Event.Title, b.Event.ID,
		)
	}
	return tw.Flush()
}

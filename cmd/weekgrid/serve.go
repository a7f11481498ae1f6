package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "weekgrid/internal/log"
	"weekgrid/internal/web"
)

var (
	serveListen string
	serveEvents string
	serveRanges string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and HTML week view",
	Long: `Serve the week grid over HTTP. ICS feeds from the config are fetched at
start-up and then on the "refresh" cron schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address (overrides config if set)")
	serveCmd.Flags().StringVar(&serveEvents, "events", "", "JSON file of extra events to load")
	serveCmd.Flags().StringVar(&serveRanges, "ranges", "", "JSON file of initial controlled ranges")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveListen != "" {
		conf.Listen = serveListen
	}

	eng, st, err := buildEngine(conf)
	if err != nil {
		return err
	}
	if err := loadEventsFile(serveEvents, st); err != nil {
		return err
	}
	if err := loadRangesFile(serveRanges, eng); err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"mode", conf.Mode,
		"refresh", conf.RefreshCron,
		"ics_count", len(conf.ICS),
		"window", conf.Grid.StartAt.String()+"-"+conf.Grid.EndAt.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ref := newFeedRefresher(conf, st, eng.Location())
	ref.Refresh(ctx)

	c := cron.New(cron.WithLocation(eng.Location()))
	if _, err := c.AddFunc(conf.RefreshCron, func() { ref.Refresh(ctx) }); err != nil {
		return err
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	err = web.Serve(ctx, web.NewServer(conf, eng, ref))
	appLog.Info("weekgrid exiting")
	return err
}

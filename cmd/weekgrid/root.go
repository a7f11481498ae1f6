package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"weekgrid/internal/config"
	appLog "weekgrid/internal/log"
)

var (
	configPath string
	logLevel   string

	// conf is loaded once in PersistentPreRunE for every subcommand.
	conf    *config.Config
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "weekgrid",
	Short: "Time-grid week calendar with resizable and movable events",
	Long: `weekgrid lays out a week of time-ranged events on a grid, packing
overlapping events into side-by-side columns, and applies resize and move
gestures with slot snapping, window clamping and a minimum duration.

  - serve     Run the HTTP API and HTML week view, refreshing ICS feeds on a schedule
  - layout    Print the laid-out boxes of one week
  - replay    Replay a recorded gesture and print the reconciled result
  - capture   Screenshot the week view to a PNG`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}

		level := conf.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		appLog.SetLevel(appLog.ParseLevel(level))
		if conf.LogFile != "" {
			logFile = appLog.SetFile(conf.LogFile, 10, 3)
		}
		appLog.Debug("config loaded", "path", configPath, "mode", conf.Mode, "ics_count", len(conf.ICS))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logFile != nil {
			return logFile.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./weekgrid.yaml", "Path to config file (created with defaults if missing)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(captureCmd)
}

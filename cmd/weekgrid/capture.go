package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"weekgrid/internal/calnav"
	"weekgrid/internal/capture"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/web"
)

var (
	captureURL     string
	captureDate    string
	captureOut     string
	captureEvents  string
	captureTimeout time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Screenshot the week view to a PNG",
	Long: `Render the week view in headless Chromium and write a PNG. Without --url
an in-process server is started on a loopback port for the capture.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureURL, "url", "", "Base URL of a running weekgrid server")
	captureCmd.Flags().StringVar(&captureDate, "date", "", "Any date in the week (YYYY-MM-DD), defaults to today")
	captureCmd.Flags().StringVar(&captureOut, "out", "", "Output PNG path (defaults to preview_path from config)")
	captureCmd.Flags().StringVar(&captureEvents, "events", "", "JSON file of events for the in-process server")
	captureCmd.Flags().DurationVar(&captureTimeout, "timeout", capture.DefaultTimeout, "Capture timeout")
}

func runCapture(cmd *cobra.Command, args []string) error {
	eng, st, err := buildEngine(conf)
	if err != nil {
		return err
	}
	if captureDate != "" {
		if _, err := calnav.ParseDate(captureDate, eng.Location(), eng.Now()); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	base := captureURL
	if base == "" {
		if err := loadEventsFile(captureEvents, st); err != nil {
			return err
		}
		ref := newFeedRefresher(conf, st, eng.Location())
		ref.Refresh(ctx)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: web.NewServer(conf, eng, ref).Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("capture server failed", err)
			}
		}()
		defer srv.Close()
		base = "http://" + ln.Addr().String()
	}

	out := captureOut
	if out == "" {
		out = conf.PreviewPath
	}
	width, height := capture.Viewport(eng.Grid(), calnav.DaysPerWeek)
	opts := capture.Options{
		BaseURL:    base,
		Date:       captureDate,
		OutputPath: out,
		Width:      width,
		Height:     height,
		Timeout:    captureTimeout,
	}
	if conf.BasicAuth != nil {
		opts.Username = conf.BasicAuth.Username
		opts.Password = conf.BasicAuth.Password
	}
	return capture.WeekPNG(ctx, opts)
}

package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "weekgrid/internal/log"
	"weekgrid/internal/render"
)

// Default capture parameters. The timeout covers browser start-up.
const (
	DefaultTimeout = 30 * time.Second
	viewportMargin = 16
)

// ErrNoURL is returned when no page URL is given.
var ErrNoURL = errors.New("capture: URL is required")

// Options defines one screenshot of the week view.
type Options struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Date selects the week ("YYYY-MM-DD"); empty means the current week.
	Date string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Username and Password are sent when basic auth is on.
	Username string
	Password string

	// Width and Height are the viewport in pixels. Zero derives them from
	// the grid geometry.
	Width  int
	Height int

	Timeout time.Duration
}

// Viewport returns the pixel size that fits a full week of g.
func Viewport(g render.Grid, days int) (width, height int) {
	width = int(g.GutterWidthPx+float64(days)*g.DayWidthPx) + viewportMargin
	height = int(g.HeaderHeightPx+g.BodyHeight()) + viewportMargin
	return width, height
}

// PageURL builds the /calendar URL for opts.
func PageURL(opts Options) (string, error) {
	if opts.BaseURL == "" {
		return "", ErrNoURL
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: base URL: %w", err)
	}
	u = u.JoinPath("calendar")
	if opts.Date != "" {
		q := u.Query()
		q.Set("date", opts.Date)
		u.RawQuery = q.Encode()
	}
	if opts.Username != "" {
		u.User = url.UserPassword(opts.Username, opts.Password)
	}
	return u.String(), nil
}

// WeekPNG launches a headless Chromium via chromedp, loads the week view,
// waits for the root element to report data-ready="true" and writes a PNG
// screenshot to opts.OutputPath.
func WeekPNG(parentCtx context.Context, opts Options) error {
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	page, err := PageURL(opts)
	if err != nil {
		return err
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("capture: invalid viewport %dx%d", opts.Width, opts.Height)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(page),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	appLog.Info("week captured", "path", opts.OutputPath, "bytes", len(png), "date", opts.Date)
	return nil
}

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"weekgrid/internal/timeunit"
)

// ICSConfig describes a single ICS subscription feeding the event store.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Color is the default box color for events of this feed.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// SourceID returns ID, falling back to Name and then URL.
func (c ICSConfig) SourceID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.Name != "":
		return c.Name
	default:
		return c.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// GridConfig is the visible window and interaction behavior of the week grid.
type GridConfig struct {
	// StartAt and EndAt bound the visible day. Accepts "8", "8:30" or 8.5.
	StartAt timeunit.TimeOfDay `yaml:"start_at" json:"start_at"`
	EndAt   timeunit.TimeOfDay `yaml:"end_at" json:"end_at"`

	SlotMinutes  int     `yaml:"slot_minutes" json:"slot_minutes"`
	SlotHeightPx float64 `yaml:"slot_height_px" json:"slot_height_px"`
	DayWidthPx   float64 `yaml:"day_width_px" json:"day_width_px"`

	HeaderHeightPx float64 `yaml:"header_height_px" json:"header_height_px"`
	GutterWidthPx  float64 `yaml:"gutter_width_px" json:"gutter_width_px"`

	// MinDurationMinutes is the resize floor; zero means one slot.
	MinDurationMinutes int `yaml:"min_duration_minutes" json:"min_duration_minutes"`

	Resizable bool `yaml:"resizable" json:"resizable"`
	Draggable bool `yaml:"draggable" json:"draggable"`

	// Policy is "split" (default) or "stacked".
	Policy string `yaml:"policy" json:"policy"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the grid is drawn in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is the cron schedule for re-reading ICS feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Mode is "legacy" (per-event callbacks, store-backed) or "controlled"
	// (externally owned range list).
	Mode string `yaml:"mode" json:"mode"`

	Grid GridConfig  `yaml:"grid" json:"grid"`
	ICS  []ICSConfig `yaml:"ics" json:"ics"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// PreviewPath is where the capture command writes the week PNG and
	// where /preview.png serves it from.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`

	// LogFile, if set, receives a rotated copy of the log.
	LogFile  string `yaml:"log_file,omitempty" json:"log_file,omitempty"`
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		WeekStart:   "monday",
		RefreshCron: "*/15 * * * *",
		Mode:        "legacy",
		Grid: GridConfig{
			StartAt:        timeunit.TimeOfDay(8 * 60),
			EndAt:          timeunit.TimeOfDay(20 * 60),
			SlotMinutes:    30,
			SlotHeightPx:   40,
			DayWidthPx:     140,
			HeaderHeightPx: 32,
			GutterWidthPx:  56,
			Resizable:      true,
			Draggable:      true,
			Policy:         "split",
		},
		ICS:         []ICSConfig{},
		CacheDir:    "./var/ics-cache",
		PreviewPath: "./var/preview.png",
		LogLevel:    "info",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = d.WeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	switch c.Mode {
	case "legacy", "controlled":
	default:
		c.Mode = d.Mode
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.PreviewPath == "" {
		c.PreviewPath = d.PreviewPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	c.Grid.normalize(d.Grid)
}

func (g *GridConfig) normalize(d GridConfig) {
	if g.SlotMinutes <= 0 {
		g.SlotMinutes = d.SlotMinutes
	}
	if g.SlotHeightPx <= 0 {
		g.SlotHeightPx = d.SlotHeightPx
	}
	if g.DayWidthPx <= 0 {
		g.DayWidthPx = d.DayWidthPx
	}
	if g.HeaderHeightPx < 0 {
		g.HeaderHeightPx = d.HeaderHeightPx
	}
	if g.GutterWidthPx < 0 {
		g.GutterWidthPx = d.GutterWidthPx
	}
	if g.MinDurationMinutes < 0 {
		g.MinDurationMinutes = 0
	}
	// An empty or inverted window falls back to the whole default window.
	if g.EndAt <= g.StartAt {
		g.StartAt, g.EndAt = d.StartAt, d.EndAt
	}
	switch g.Policy {
	case "split", "stacked":
	default:
		g.Policy = d.Policy
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Start from defaults so absent booleans keep their default.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekgrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

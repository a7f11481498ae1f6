// Package interact implements the per-box resize and move gesture state
// machine: pointer-down captures a snapshot, pointer-move accumulates a
// snapped and clamped delta for live feedback, and pointer-up commits the
// result through a Committer.
package interact

import (
	"math"
	"time"
)

// DefaultClickCooldown is how long after a commit a click on the same box is
// treated as the synthetic click trailing the pointer-up.
const DefaultClickCooldown = 300 * time.Millisecond

// Config is the grid geometry and feature set shared by every box.
type Config struct {
	SlotMinutes     int
	PixelsPerMinute float64

	// WindowStart and WindowEnd bound the visible day, in minutes since
	// midnight.
	WindowStart int
	WindowEnd   int

	// MinDuration is the shortest duration a resize may produce. Zero means
	// one slot.
	MinDuration int

	Resizable bool
	Draggable bool

	// ClickCooldown defaults to DefaultClickCooldown when zero.
	ClickCooldown time.Duration
}

// MinDurationMinutes returns the effective duration floor, never below one
// minute.
func (c Config) MinDurationMinutes() int {
	m := c.MinDuration
	if m <= 0 {
		m = c.SlotMinutes
	}
	return max(1, m)
}

func (c Config) cooldown() time.Duration {
	if c.ClickCooldown <= 0 {
		return DefaultClickCooldown
	}
	return c.ClickCooldown
}

// minutesFor converts a vertical pixel distance to whole minutes.
func (c Config) minutesFor(dy float64) int {
	ppm := c.PixelsPerMinute
	if ppm <= 0 {
		ppm = 1
	}
	return int(math.Round(dy / ppm))
}

// Point is a pointer position in grid pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a day column's bounding box in grid pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ContainsX reports whether x lies within [Left, Left+Width).
func (r Rect) ContainsX(x float64) bool {
	return x >= r.Left && x < r.Left+r.Width
}

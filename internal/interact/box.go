package interact

import (
	"time"

	"weekgrid/internal/layout"
	appLog "weekgrid/internal/log"
	"weekgrid/internal/model"
	"weekgrid/internal/timeunit"
)

// Kind distinguishes the two gesture variants.
type Kind int

const (
	KindResize Kind = iota
	KindMove
)

func (k Kind) String() string {
	if k == KindMove {
		return "move"
	}
	return "resize"
}

// State is a box's position in the gesture state machine.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Commit is the result of a gesture that changed something.
type Commit struct {
	Kind  Kind
	Event model.CalendarEvent

	OriginDay int
	Day       int

	StartMinute int
	EndMinute   int
}

// Committer receives committed gestures.
type Committer interface {
	Commit(c Commit)
}

// CommitterFunc adapts a func to Committer.
type CommitterFunc func(Commit)

func (f CommitterFunc) Commit(c Commit) { f(c) }

// Snapshot is captured at pointer-down and read-only for the rest of the
// gesture. DayRects is a private copy; later layout passes cannot change it.
// EndMinute is the event's true end and may pass MinutesPerDay for events
// that run past midnight.
type Snapshot struct {
	StartMinute int
	EndMinute   int
	Origin      Point
	OriginDay   int
	DayRects    []Rect
}

// Preview is the live feedback for an in-flight gesture.
type Preview struct {
	Active       bool
	Kind         Kind
	DeltaMinutes int
	TargetDay    int
	StartMinute  int
	EndMinute    int
}

// Box drives gestures for one rendered event. It is not safe for concurrent
// use; all calls are expected from the same pointer event loop.
type Box struct {
	cfg       Config
	lock      *Lock
	committer Committer

	// OnSelect is called for clicks that are not ghost clicks.
	OnSelect func(model.CalendarEvent)
	// Now is the clock used for the ghost-click cooldown.
	Now func() time.Time

	event       model.CalendarEvent
	day         int
	startMinute int
	endMinute   int
	// trueEnd differs from endMinute only when layout cut the event at
	// midnight.
	trueEnd int

	state      State
	kind       Kind
	snap       Snapshot
	delta      int
	targetDay  int
	lastCommit time.Time
}

// NewBox binds a laid-out event on day index day to the gesture machinery.
// lock may be nil when no grid-wide coordination is needed.
func NewBox(cfg Config, lock *Lock, item layout.AugmentedEvent, day int, c Committer) *Box {
	trueEnd := item.EndMinute
	if d := int(item.Event.End.Sub(item.Event.Start) / time.Minute); item.StartMinute+d > trueEnd {
		trueEnd = item.StartMinute + d
	}
	return &Box{
		cfg:         cfg,
		lock:        lock,
		committer:   c,
		Now:         time.Now,
		event:       item.Event,
		day:         day,
		startMinute: item.StartMinute,
		endMinute:   item.EndMinute,
		trueEnd:     trueEnd,
	}
}

// Event returns the event this box was built for.
func (b *Box) Event() model.CalendarEvent { return b.event }

// State returns the current state.
func (b *Box) State() State { return b.state }

// Snapshot returns the active gesture snapshot.
func (b *Box) Snapshot() Snapshot { return b.snap }

// BeginResize starts a resize gesture from the end handle. It reports false
// when resizing is disabled or a gesture is already running on this box.
func (b *Box) BeginResize(p Point) bool {
	if !b.cfg.Resizable || b.state == StateDragging {
		return false
	}
	b.begin(KindResize, p, nil)
	return true
}

// BeginMove starts a move gesture. dayRects are the day column bounds at
// this instant; they are copied and never re-read.
func (b *Box) BeginMove(p Point, dayRects []Rect) bool {
	if !b.cfg.Draggable || b.state == StateDragging {
		return false
	}
	b.begin(KindMove, p, dayRects)
	return true
}

func (b *Box) begin(kind Kind, p Point, dayRects []Rect) {
	var rects []Rect
	if len(dayRects) > 0 {
		rects = make([]Rect, len(dayRects))
		copy(rects, dayRects)
	}

	b.kind = kind
	b.state = StateDragging
	b.delta = 0
	b.targetDay = b.day
	b.snap = Snapshot{
		StartMinute: b.startMinute,
		EndMinute:   b.trueEnd,
		Origin:      p,
		OriginDay:   b.day,
		DayRects:    rects,
	}

	if b.lock != nil {
		b.lock.acquire()
	}
	appLog.Debug("gesture start", "kind", kind.String(), "event", b.event.ID, "day", b.day)
}

// PointerMove updates the live delta. It is a no-op outside a gesture.
func (b *Box) PointerMove(p Point) {
	if b.state != StateDragging {
		return
	}

	step := timeunit.SnapNearest(b.cfg.minutesFor(p.Y-b.snap.Origin.Y), b.cfg.SlotMinutes)

	switch b.kind {
	case KindResize:
		if step == 0 {
			b.delta = 0
			return
		}
		minEnd := b.snap.StartMinute + b.cfg.MinDurationMinutes()
		// An end already past the window is never pulled in by the clamp.
		end := timeunit.Clamp(b.snap.EndMinute+step, minEnd, max(b.cfg.WindowEnd, b.snap.EndMinute))
		// Clamp lets the lower bound win, so the floor holds even when the
		// window is shorter than the minimum duration.
		b.delta = end - b.snap.EndMinute

	case KindMove:
		for i, r := range b.snap.DayRects {
			if r.ContainsX(p.X) {
				b.targetDay = i
				break
			}
		}
		// A press and release in place must not drag an event that starts
		// outside the window into it.
		if step == 0 && b.targetDay == b.snap.OriginDay {
			b.delta = 0
			return
		}
		dur := b.snap.EndMinute - b.snap.StartMinute
		start := timeunit.Clamp(b.snap.StartMinute+step, b.cfg.WindowStart, b.cfg.WindowEnd-dur)
		b.delta = start - b.snap.StartMinute
	}
}

// Preview reports the in-flight result without touching the event.
func (b *Box) Preview() Preview {
	if b.state != StateDragging {
		return Preview{TargetDay: b.day, StartMinute: b.startMinute, EndMinute: b.endMinute}
	}
	pv := Preview{
		Active:       true,
		Kind:         b.kind,
		DeltaMinutes: b.delta,
		TargetDay:    b.targetDay,
		StartMinute:  b.snap.StartMinute,
		EndMinute:    b.snap.EndMinute + b.delta,
	}
	if b.kind == KindMove {
		pv.StartMinute += b.delta
	}
	return pv
}

// PointerUp applies the final position and ends the gesture, committing when
// the minute delta is nonzero or, for moves, the day changed. It returns the
// terminal state (StateCommitted or StateCancelled); the box is Idle again
// afterwards.
func (b *Box) PointerUp(p Point) State {
	if b.state != StateDragging {
		return StateIdle
	}
	b.PointerMove(p)

	outcome := StateCancelled
	defer func() {
		b.state = StateIdle
		if b.lock != nil {
			b.lock.release()
		}
	}()

	changed := b.delta != 0
	if b.kind == KindMove && b.targetDay != b.snap.OriginDay {
		changed = true
	}
	if !changed {
		b.state = outcome
		appLog.Debug("gesture end without change", "kind", b.kind.String(), "event", b.event.ID)
		return outcome
	}

	c := Commit{
		Kind:        b.kind,
		Event:       b.event,
		OriginDay:   b.snap.OriginDay,
		Day:         b.snap.OriginDay,
		StartMinute: b.snap.StartMinute,
		EndMinute:   b.snap.EndMinute + b.delta,
	}
	if b.kind == KindMove {
		c.Day = b.targetDay
		c.StartMinute += b.delta
	}

	outcome = StateCommitted
	b.state = outcome
	b.lastCommit = b.now()
	appLog.Debug("gesture commit",
		"kind", c.Kind.String(),
		"event", c.Event.ID,
		"day", c.Day,
		"start", timeunit.FormatMinute(c.StartMinute),
		"end", timeunit.FormatMinute(c.EndMinute),
	)
	if b.committer != nil {
		b.committer.Commit(c)
	}
	return outcome
}

// Cancel abandons the running gesture without committing.
func (b *Box) Cancel() {
	if b.state != StateDragging {
		return
	}
	b.state = StateIdle
	b.delta = 0
	if b.lock != nil {
		b.lock.release()
	}
	appLog.Debug("gesture cancelled", "kind", b.kind.String(), "event", b.event.ID)
}

// Click handles a click on the box. Clicks during a gesture or within the
// cooldown after a commit are swallowed; it reports whether OnSelect ran.
func (b *Box) Click() bool {
	if b.state == StateDragging {
		return false
	}
	if !b.lastCommit.IsZero() && b.now().Sub(b.lastCommit) < b.cfg.cooldown() {
		appLog.Debug("ghost click suppressed", "event", b.event.ID)
		return false
	}
	if b.OnSelect != nil {
		b.OnSelect(b.event)
	}
	return true
}

func (b *Box) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

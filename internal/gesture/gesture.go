// Package gesture interprets touch-style pointer events over a scrollable
// surface as a pull-to-refresh interaction. It owns the gesture state machine
// (Idle, Pulling, Refreshing), decides when a release triggers the configured
// refresh action, and remembers the last successful refresh across sessions
// through a pluggable key-value store.
package gesture

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/fieldsync/skiff/internal/model"
	"github.com/fieldsync/skiff/internal/syncstate"
)

// dampingFactor is the fixed resistance applied to raw finger displacement
// before it is reported as pull distance.
const dampingFactor = 0.5

// Phase is the interpreter's discrete state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePulling
	PhaseRefreshing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePulling:
		return "pulling"
	case PhaseRefreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Config configures an Interpreter. Refresh is required; everything else has
// a usable zero value.
type Config struct {
	// Refresh is the caller-supplied refresh action. It is invoked at most
	// once per completed gesture and is never retried by the interpreter.
	Refresh func(ctx context.Context) error

	// ActivationThreshold is the damped pull distance at which a release
	// triggers Refresh. The boundary is inclusive. Defaults to
	// model.DefaultActivationThreshold.
	ActivationThreshold float64

	// MaxPullDistance clamps the reported pull distance. Defaults to
	// model.DefaultMaxPullDistance.
	MaxPullDistance float64

	// Disabled makes all gesture handling inert. Attach becomes a no-op and
	// events never change phase.
	Disabled bool

	// Store persists the last successful refresh time across sessions.
	// Optional; store failures are logged and never block the gesture flow.
	Store syncstate.Store

	// Clock overrides time.Now, for tests.
	Clock func() time.Time

	// Logger receives refresh and store failures. Defaults to the standard
	// logger.
	Logger *log.Logger
}

// RefreshRun executes the configured refresh action once. It restores the
// interpreter to Idle on every exit path, including panics, and stamps the
// last-sync time only on success.
type RefreshRun func(ctx context.Context) error

// session tracks one touch-start to touch-end cycle.
type session struct {
	originY   float64
	scrollTop float64
}

// Interpreter is the pull-to-refresh state machine. All exported methods are
// safe for concurrent use; a refresh run may complete on a different
// goroutine than the one feeding events.
type Interpreter struct {
	cfg Config

	mu           sync.Mutex
	phase        Phase
	pullDistance float64
	lastSync     time.Time // zero = never synced
	sess         *session
}

// New creates an Interpreter, applying defaults and seeding the last-sync
// time from the configured store. Store read failures degrade to "never
// synced".
func New(cfg Config) (*Interpreter, error) {
	if cfg.Refresh == nil {
		return nil, errors.New("gesture: Refresh action is required")
	}
	if cfg.ActivationThreshold <= 0 {
		cfg.ActivationThreshold = model.DefaultActivationThreshold
	}
	if cfg.MaxPullDistance <= 0 {
		cfg.MaxPullDistance = model.DefaultMaxPullDistance
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	it := &Interpreter{cfg: cfg}
	if cfg.Store != nil {
		last, err := syncstate.LoadLastSync(cfg.Store)
		if err != nil {
			it.logf("gesture: load last sync: %v", err)
		}
		it.lastSync = last
	}
	return it, nil
}

// Enabled reports whether the interpreter reacts to events.
func (it *Interpreter) Enabled() bool { return !it.cfg.Disabled }

// ActivationThreshold returns the damped distance a release must reach to
// trigger a refresh. Hosts use it to hint "release to refresh".
func (it *Interpreter) ActivationThreshold() float64 { return it.cfg.ActivationThreshold }

// HandleEvent feeds one touch event through the state machine. consumed is
// true when the event drove a pull and the host should suppress its default
// scroll handling. refresh is non-nil when the event completed a gesture past
// the activation threshold; the caller decides where to run it (a goroutine,
// a UI command). While the returned run is outstanding the interpreter is in
// PhaseRefreshing and no new gesture can trigger.
func (it *Interpreter) HandleEvent(ev Event) (consumed bool, refresh RefreshRun) {
	switch ev.Kind {
	case TouchStart:
		return it.touchStart(ev), nil
	case TouchMove:
		return it.touchMove(ev), nil
	case TouchEnd:
		return it.touchEnd()
	default:
		return false, nil
	}
}

func (it *Interpreter) touchStart(ev Event) bool {
	if it.cfg.Disabled || !ev.InScope {
		return false
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	// Recorded even while Refreshing so a later move or release observes a
	// session and cannot misfire; the refreshing guard suppresses the rest.
	it.sess = &session{originY: ev.Y, scrollTop: ev.ScrollTop}
	return false
}

func (it *Interpreter) touchMove(ev Event) bool {
	if it.cfg.Disabled {
		return false
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if it.phase == PhaseRefreshing || it.sess == nil {
		return false
	}

	// A user scrolling down inside content is not pulling.
	if ev.ScrollTop > 0 {
		it.phase = PhaseIdle
		it.pullDistance = 0
		return false
	}

	raw := ev.Y - it.sess.originY
	if raw <= 0 {
		return false
	}

	d := raw * dampingFactor
	if d > it.cfg.MaxPullDistance {
		d = it.cfg.MaxPullDistance
	}
	it.phase = PhasePulling
	it.pullDistance = d
	return true
}

func (it *Interpreter) touchEnd() (bool, RefreshRun) {
	if it.cfg.Disabled {
		return false, nil
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	it.sess = nil

	if it.phase == PhaseRefreshing {
		return false, nil
	}

	if it.pullDistance >= it.cfg.ActivationThreshold {
		it.phase = PhaseRefreshing
		it.pullDistance = 0
		return true, it.refreshRun()
	}

	it.phase = PhaseIdle
	it.pullDistance = 0
	return false, nil
}

// TriggerRefresh starts a refresh outside a gesture (a key binding, a timer).
// It shares the refreshing guard: while a refresh is outstanding it returns
// (nil, false).
func (it *Interpreter) TriggerRefresh() (RefreshRun, bool) {
	if it.cfg.Disabled {
		return nil, false
	}

	it.mu.Lock()
	defer it.mu.Unlock()

	if it.phase == PhaseRefreshing {
		return nil, false
	}
	it.phase = PhaseRefreshing
	it.pullDistance = 0
	it.sess = nil
	return it.refreshRun(), true
}

// refreshRun builds the run closure for an already-entered Refreshing phase.
func (it *Interpreter) refreshRun() RefreshRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			it.mu.Lock()
			it.phase = PhaseIdle
			it.pullDistance = 0
			it.mu.Unlock()
		}()

		if err = it.cfg.Refresh(ctx); err != nil {
			it.logf("gesture: refresh failed: %v", err)
			return err
		}

		now := it.cfg.Clock()
		it.mu.Lock()
		it.lastSync = now
		it.mu.Unlock()

		if it.cfg.Store != nil {
			if serr := syncstate.SaveLastSync(it.cfg.Store, now); serr != nil {
				it.logf("gesture: persist last sync: %v", serr)
			}
		}
		return nil
	}
}

// Snapshot is the read-only observable surface.
type Snapshot struct {
	Phase        Phase
	PullDistance float64
	LastSync     time.Time // zero = never synced
}

func (s Snapshot) IsPulling() bool    { return s.Phase == PhasePulling }
func (s Snapshot) IsRefreshing() bool { return s.Phase == PhaseRefreshing }

// Snapshot returns the current observable state.
func (it *Interpreter) Snapshot() Snapshot {
	it.mu.Lock()
	defer it.mu.Unlock()
	return Snapshot{
		Phase:        it.phase,
		PullDistance: it.pullDistance,
		LastSync:     it.lastSync,
	}
}

// FormatLastSync renders the time since the last successful refresh.
func (it *Interpreter) FormatLastSync() string {
	return FormatRelative(it.Snapshot().LastSync, it.cfg.Clock())
}

func (it *Interpreter) logf(format string, args ...any) {
	if it.cfg.Logger != nil {
		it.cfg.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

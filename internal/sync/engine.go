// Package sync reconciles the local store with the remote row store.
//
// One goroutine runs reconciliation cycles. Triggers are fed through a
// single-slot queue, so any number of triggers that arrive while a cycle is
// running collapse into exactly one follow-up cycle. Conflicts are resolved
// per row by last write wins on updated_at; ties keep the local row.
package sync

import (
	"context"
	"database/sql"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/remote"
	"github.com/erazemk/zamrzovalnik/internal/store"
)

// DefaultInterval is the period of the background trigger.
const DefaultInterval = 30 * time.Second

// Remote is the remote row store as the engine uses it.
type Remote interface {
	Configured() bool
	// Session returns nil, nil when signed out.
	Session(ctx context.Context) (*remote.Session, error)
	UpsertCategories(ctx context.Context, rows []remote.CategoryRow) error
	UpsertItems(ctx context.Context, rows []remote.ItemRow) error
	CategoriesSince(ctx context.Context, owner string, since time.Time) ([]remote.CategoryRow, error)
	ItemsSince(ctx context.Context, owner string, since time.Time) ([]remote.ItemRow, error)
}

// authNotifier is implemented by remotes that report sign-in and sign-out.
type authNotifier interface {
	OnAuthStateChange(fn func(*remote.Session)) func()
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithInterval sets the background trigger period. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithCache makes the engine reload c after every successful cycle.
func WithCache(c *store.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// Engine runs reconciliation cycles between a local database and a Remote.
type Engine struct {
	db       *sql.DB
	remote   Remote
	cache    *store.Cache
	now      func() time.Time
	interval time.Duration

	requests chan struct{}
	cycleMu  gosync.Mutex

	mu       gosync.Mutex
	running  bool
	state    State
	changed  chan struct{}
	started  uint64
	finished uint64
}

// New creates an engine. It does nothing until Start, TriggerSync or SyncNow.
func New(db *sql.DB, r Remote, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		remote:   r,
		now:      time.Now,
		interval: DefaultInterval,
		requests: make(chan struct{}, 1),
		state:    State{Status: StatusIdle},
		changed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the reconciliation goroutine and the periodic trigger,
// subscribes to auth changes of the remote and requests a first cycle.
// Everything stops when ctx is cancelled. Calling Start again is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.loop(ctx)

	if e.interval > 0 {
		go e.tick(ctx)
	}

	if n, ok := e.remote.(authNotifier); ok {
		unsubscribe := n.OnAuthStateChange(func(*remote.Session) { e.TriggerSync() })
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
	}

	e.TriggerSync()
}

// TriggerSync requests a cycle. It never blocks; if a request is already
// queued this one merges into it.
func (e *Engine) TriggerSync() {
	select {
	case e.requests <- struct{}{}:
	default:
	}
}

// SyncNow requests a cycle and waits for a cycle that started after the
// call to finish. Without Start it runs the cycle on the calling goroutine.
func (e *Engine) SyncNow(ctx context.Context) (State, error) {
	e.mu.Lock()
	running := e.running
	target := e.started + 1
	e.mu.Unlock()

	if !running {
		e.cycle(ctx)
		return e.State(), nil
	}

	e.TriggerSync()
	for {
		e.mu.Lock()
		if e.finished >= target {
			st := e.state
			e.mu.Unlock()
			return st, nil
		}
		ch := e.changed
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return e.State(), ctx.Err()
		}
	}
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Changed returns a channel that is closed on the next state change.
func (e *Engine) Changed() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed
}

func (e *Engine) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.requests:
			e.cycle(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.TriggerSync()
		}
	}
}

// update applies fn to the state and wakes everyone waiting on Changed.
func (e *Engine) update(fn func(*State)) {
	e.mu.Lock()
	fn(&e.state)
	close(e.changed)
	e.changed = make(chan struct{})
	e.mu.Unlock()
}

// cycle runs one reconciliation and records its outcome.
func (e *Engine) cycle(ctx context.Context) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	e.mu.Lock()
	e.started++
	seq := e.started
	e.mu.Unlock()

	done := func(fn func(*State)) {
		e.update(func(s *State) {
			fn(s)
			e.finished = seq
		})
	}

	if !e.remote.Configured() {
		done(func(s *State) { s.Status = StatusIdle })
		return
	}

	session, err := e.remote.Session(ctx)
	if err != nil {
		e.fail(done, storageErr("reading session", err))
		return
	}
	if session == nil {
		done(func(s *State) { s.Status = StatusIdle })
		return
	}

	e.update(func(s *State) {
		s.Status = StatusSyncing
		s.LastError = ""
		s.ErrorKind = ""
	})

	start := time.Now()
	res, err := e.reconcile(ctx, session.UserID)
	if err != nil {
		e.fail(done, err)
		return
	}

	slog.Info("sync finished",
		"pushed_categories", res.pushedCategories,
		"pushed_items", res.pushedItems,
		"pulled_categories", res.pulledCategories,
		"pulled_items", res.pulledItems,
		"watermark", res.watermark,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	done(func(s *State) {
		s.Status = StatusIdle
		s.LastSyncedAt = res.watermark
		s.LastError = ""
		s.ErrorKind = ""
	})
}

func (e *Engine) fail(done func(func(*State)), err error) {
	kind := kindOf(err)
	slog.Error("sync failed", "kind", kind, "error", err)
	done(func(s *State) {
		s.Status = StatusError
		s.LastError = err.Error()
		s.ErrorKind = kind
	})
}

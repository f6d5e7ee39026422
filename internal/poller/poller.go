// Package poller keeps the merged reaction list of one activity up to date by
// asking the ClassPulse API for it on a fixed interval.
package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gauthierbraillon/classpulse/internal/aggregator"
	"github.com/gauthierbraillon/classpulse/internal/feedback"
	"github.com/gauthierbraillon/classpulse/internal/store"
)

// DefaultInterval is how often the API is polled unless configured otherwise.
const DefaultInterval = 2 * time.Second

// LoadErrorMessage is shown while the dashboard falls back to known results.
const LoadErrorMessage = "cannot load feedback, showing last known results"

// Source fetches the reactions and metadata of an activity.
type Source interface {
	GetFeedbacksByActivity(ctx context.Context, activityID string) ([]feedback.Event, error)
	GetActivityByID(ctx context.Context, activityID string) (*feedback.Activity, error)
}

// State is a copy of what the poller currently knows.
type State struct {
	ActivityID string             `json:"activity_id"`
	Activity   *feedback.Activity `json:"activity,omitempty"`
	Events     []feedback.Event   `json:"events"`
	Err        string             `json:"error,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Snapshot derives the dashboard view of the state at now.
func (s State) Snapshot(now time.Time) aggregator.Snapshot {
	snap := aggregator.Build(s.Activity, s.Events, now)
	if snap.ActivityID == "" {
		snap.ActivityID = s.ActivityID
	}
	snap.Error = s.Err
	return snap
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the polling period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithOnChange registers a listener called after every tick and every
// completed fetch. Calls are serialized. The listener must not call Stop.
func WithOnChange(fn func(State)) Option {
	return func(p *Poller) {
		p.onChange = fn
	}
}

// Poller owns the polling loop of a single activity.
type Poller struct {
	activityID string
	source     Source
	cache      *store.FeedbackStore
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
	onChange   func(State)

	mu      sync.Mutex
	state   State
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}

	notifyMu sync.Mutex
	inFlight atomic.Bool
	fetches  sync.WaitGroup
	restore  sync.Once
	stopOnce sync.Once
}

// New creates a poller for activityID. Nothing happens until Start or Refresh.
func New(activityID string, source Source, cache *store.FeedbackStore, opts ...Option) *Poller {
	p := &Poller{
		activityID: activityID,
		source:     source,
		cache:      cache,
		interval:   DefaultInterval,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		onChange:   func(State) {},
		state: State{
			ActivityID: activityID,
			Events:     []feedback.Event{},
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start restores cached reactions, then loads the activity and polls
// immediately and on every interval until Stop or ctx is done.
// Calling Start more than once, or after Stop, does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	p.restoreCache(ctx)

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	go p.loadActivity(ctx)
	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick launches a fetch unless one is still pending. A skipped tick still
// notifies so listeners can re-evaluate time-dependent views.
func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.logger.Debug("poll skipped, previous fetch still pending", "activity", p.activityID)
		p.notify()
		return
	}

	p.fetches.Add(1)
	go func() {
		defer p.fetches.Done()
		p.fetch(ctx)
		p.inFlight.Store(false)
		p.notify()
	}()
}

// Stop cancels the loop. In-flight fetches may still return but their results
// are discarded. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		cancel, done := p.cancel, p.done
		p.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		// wait out a notification that passed the stop check before we set it
		p.notifyMu.Lock()
		defer p.notifyMu.Unlock()
	})
}

// Refresh loads the activity and fetches reactions once, synchronously, and
// returns the resulting state. If a fetch is already pending only the
// activity is reloaded.
func (p *Poller) Refresh(ctx context.Context) State {
	p.restoreCache(ctx)
	p.loadActivity(ctx)

	if p.inFlight.CompareAndSwap(false, true) {
		p.fetch(ctx)
		p.inFlight.Store(false)
	}

	p.notify()
	return p.State()
}

// State returns a copy of the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyState()
}

func (p *Poller) copyState() State {
	st := p.state
	st.Events = slices.Clone(p.state.Events)
	if st.Events == nil {
		st.Events = []feedback.Event{}
	}
	if p.state.Activity != nil {
		activity := *p.state.Activity
		st.Activity = &activity
	}
	return st
}

func (p *Poller) restoreCache(ctx context.Context) {
	p.restore.Do(func() {
		cached := p.cache.Load(ctx, p.activityID)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stopped {
			return
		}
		p.state.Events = feedback.Merge(cached, p.state.Events)
	})
}

func (p *Poller) loadActivity(ctx context.Context) {
	activity, err := p.source.GetActivityByID(ctx, p.activityID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	if err != nil {
		p.logger.Debug("activity load failed", "activity", p.activityID, "error", err)
		return
	}
	p.state.Activity = activity
}

func (p *Poller) fetch(ctx context.Context) {
	incoming, err := p.source.GetFeedbacksByActivity(ctx, p.activityID)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}

	var merged []feedback.Event
	switch {
	case errors.Is(err, feedback.ErrNotAList):
		p.state.Err = ""
	case err != nil:
		p.logger.Warn("feedback fetch failed", "activity", p.activityID, "error", err)
		p.state.Err = LoadErrorMessage
	default:
		merged = feedback.Merge(p.state.Events, incoming)
		p.state.Events = merged
		p.state.Err = ""
		p.state.UpdatedAt = p.now()
	}
	p.mu.Unlock()

	if merged != nil {
		p.cache.Save(ctx, p.activityID, merged)
	}
}

func (p *Poller) notify() {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	st := p.copyState()
	p.mu.Unlock()

	p.onChange(st)
}

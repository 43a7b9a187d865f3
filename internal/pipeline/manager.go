package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dk/stagecraft/internal/ctxlog"
	"github.com/dk/stagecraft/internal/stage"
)

// ErrUnknownStage is returned by Execute when the requested name is not one
// of the eight workflow stages. Callers hitting this have a wiring bug, not a
// recoverable run-time condition.
var ErrUnknownStage = errors.New("unknown pipeline stage")

// Status is the run-time state of one workflow stage.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// The eight fixed workflow stages, in pipeline order. Each stage depends on
// the one before it.
const (
	StageRequest  = "request"
	StageGenerate = "generate"
	StageParse    = "parse"
	StageAnalyze  = "analyze"
	StageInstall  = "install"
	StageLint     = "lint"
	StagePersist  = "persist"
	StagePreview  = "preview"
)

// StageNames lists the workflow stages in pipeline order.
var StageNames = []string{
	StageRequest, StageGenerate, StageParse, StageAnalyze,
	StageInstall, StageLint, StagePersist, StagePreview,
}

// StageState is a snapshot of one stage's run-time state.
type StageState struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Result   any           `json:"result,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Progress int           `json:"progress"`
}

// Work is the asynchronous body of one stage.
type Work func(ctx context.Context) (any, error)

// Subscriber receives a snapshot of all eight stage states after every state
// change. Notification is synchronous, in registration order.
type Subscriber func(states []StageState)

type subscription struct {
	id int
	fn Subscriber
}

// Manager orchestrates the fixed eight-stage workflow. It layers per-stage
// result caching, synthetic progress reporting, and observer notification on
// top of the generic stage engine, which it delegates ordering, timeout
// racing, and fail-fast behavior to.
type Manager struct {
	mu       sync.Mutex
	states   map[string]*StageState
	cache    map[string]any
	opts     Options
	timeouts map[string]time.Duration
	subs     []subscription
	nextSub  int
}

// New constructs a manager with all eight stages in the pending state.
func New(opts Options) *Manager {
	m := &Manager{
		cache:    make(map[string]any),
		opts:     opts,
		timeouts: make(map[string]time.Duration),
	}
	m.states = freshStates()
	return m
}

func freshStates() map[string]*StageState {
	states := make(map[string]*StageState, len(StageNames))
	for _, name := range StageNames {
		states[name] = &StageState{Name: name, Status: StatusPending}
	}
	return states
}

// SetStageTimeout overrides the timeout for one stage on subsequent runs.
func (m *Manager) SetStageTimeout(name string, d time.Duration) error {
	if !knownStage(name) {
		return fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts[name] = d
	return nil
}

// Options returns the current feature toggles.
func (m *Manager) Options() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opts
}

// SetOptions replaces the feature toggles. Safe to call between and during
// runs; the manager reads toggles at the moment it needs them.
func (m *Manager) SetOptions(opts Options) {
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
}

// Subscribe registers a listener for stage-state changes and returns a
// function that removes it again.
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// States returns a snapshot of all eight stage states in pipeline order.
func (m *Manager) States() []StageState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() []StageState {
	out := make([]StageState, 0, len(StageNames))
	for _, name := range StageNames {
		out = append(out, *m.states[name])
	}
	return out
}

// notify synchronously delivers the current snapshot to every subscriber in
// registration order. The lock is not held across callbacks so subscribers
// may query the manager.
func (m *Manager) notify() {
	m.mu.Lock()
	snapshot := m.snapshotLocked()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// Execute runs the named stage's work, driving its state machine
// (pending → running → completed|error) and its synthetic progress. When
// caching is enabled a previously stored result short-circuits the work
// entirely. Errors from the work are returned unchanged, never swallowed.
func (m *Manager) Execute(ctx context.Context, name string, work Work) (any, error) {
	if !knownStage(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
	logger := ctxlog.FromContext(ctx)

	m.mu.Lock()
	if m.opts.Caching {
		if cached, ok := m.cache[name]; ok {
			st := m.states[name]
			st.Status = StatusCompleted
			st.Result = cached
			st.Err = ""
			st.Progress = 100
			m.mu.Unlock()
			logger.Debug("Stage served from cache.", "stage", name)
			m.notify()
			return cached, nil
		}
	}
	st := m.states[name]
	st.Status = StatusRunning
	st.Result = nil
	st.Err = ""
	st.Progress = 0
	m.mu.Unlock()
	m.notify()

	stopTicker := m.startProgressTicker(name)
	started := time.Now()

	result, err := work(ctx)
	duration := time.Since(started)
	stopTicker()

	if err != nil {
		m.mu.Lock()
		st.Status = StatusError
		st.Err = err.Error()
		st.Duration = duration
		st.Progress = 0
		m.mu.Unlock()
		m.notify()
		return nil, err
	}

	m.mu.Lock()
	st.Status = StatusCompleted
	st.Result = result
	st.Duration = duration
	st.Progress = 100
	if m.opts.Caching {
		m.cache[name] = result
	}
	m.mu.Unlock()
	logger.Debug("Stage completed.", "stage", name, "duration", duration)
	m.notify()
	return result, nil
}

// startProgressTicker advances the stage's progress by a small random
// increment roughly twice a second while it remains running, capped below
// 100 so only real completion can report it. The ticks exist purely for
// responsive progress feedback and carry no correctness meaning.
func (m *Manager) startProgressTicker(name string) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.mu.Lock()
				st := m.states[name]
				if st.Status != StatusRunning || st.Progress >= 90 {
					m.mu.Unlock()
					continue
				}
				st.Progress += rand.IntN(10) + 1
				if st.Progress > 90 {
					st.Progress = 90
				}
				m.mu.Unlock()
				m.notify()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// Run executes the requested subset of the eight workflow stages in pipeline
// order by delegating to a generic stage engine built for this run. Each
// engine stage wraps Execute, so caching, progress, and notification behave
// exactly as they do for a single stage. The run fails fast on the first
// stage error; stages after it stay pending.
func (m *Manager) Run(ctx context.Context, works map[string]Work) error {
	names := make([]string, 0, len(works))
	for name := range works {
		if !knownStage(name) {
			return fmt.Errorf("%w: %q", ErrUnknownStage, name)
		}
	}

	engine := stage.NewEngine()
	m.mu.Lock()
	timeouts := make(map[string]time.Duration, len(m.timeouts))
	for k, v := range m.timeouts {
		timeouts[k] = v
	}
	m.mu.Unlock()

	// Register the full chain so the linear ordering holds for whatever
	// subset the caller requested; unrequested dependencies are ignored by
	// the engine.
	for i, name := range StageNames {
		work, requested := works[name]
		if !requested {
			continue
		}
		var deps []string
		if i > 0 {
			deps = StageNames[:i]
		}
		name := name
		engine.Register(stage.Stage{
			Name:      name,
			DependsOn: deps,
			Timeout:   timeouts[name],
			Run: func(ctx context.Context) (any, error) {
				return m.Execute(ctx, name, work)
			},
		})
		names = append(names, name)
	}

	_, err := engine.Execute(ctx, names...)
	return err
}

// ClearCache drops all cached stage results. Stage states are untouched.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]any)
	m.mu.Unlock()
}

// Reset returns every stage to pending and clears the cache, then notifies
// subscribers once with the fresh state.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.states = freshStates()
	m.cache = make(map[string]any)
	m.mu.Unlock()
	m.notify()
}

func knownStage(name string) bool {
	for _, n := range StageNames {
		if n == name {
			return true
		}
	}
	return false
}

package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dk/stagecraft/internal/ctxlog"
)

// DefaultTimeout is applied to any stage registered without an explicit one.
const DefaultTimeout = 30 * time.Second

// ErrRunInProgress is returned by Execute when another run is still active on
// the same engine instance. An engine runs at most one set of stages at a time.
var ErrRunInProgress = errors.New("a run is already in progress on this engine")

// Stage is a named unit of asynchronous work with declared prerequisites.
type Stage struct {
	// Name uniquely identifies the stage within one engine instance.
	Name string

	// DependsOn lists stages that must complete before this one may run.
	// Dependencies outside the set requested for a given run are ignored
	// for that run.
	DependsOn []string

	// Timeout bounds the wall-clock duration of Run. Zero means DefaultTimeout.
	Timeout time.Duration

	// Run performs the stage's work. The context is cancelled when the
	// stage's timeout elapses, giving the work a way to observe the
	// deadline and abort instead of leaking.
	Run func(ctx context.Context) (any, error)
}

// Engine holds a registry of stages and executes requested subsets of them in
// dependency order, one at a time, racing each stage against its timeout.
type Engine struct {
	mu      sync.Mutex
	stages  map[string]*Stage
	running bool
	results map[string]any
	errs    map[string]error
}

// NewEngine returns an empty engine ready for stage registration.
func NewEngine() *Engine {
	return &Engine{
		stages:  make(map[string]*Stage),
		results: make(map[string]any),
		errs:    make(map[string]error),
	}
}

// Register adds a stage to the engine. Registering two stages with the same
// name is a programmer error, so it panics rather than returning an error.
func (e *Engine) Register(s Stage) {
	if s.Name == "" {
		panic("stage: Register called with an empty stage name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.stages[s.Name]; exists {
		panic(fmt.Sprintf("stage: duplicate registration of stage %q", s.Name))
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	e.stages[s.Name] = &s
}

// Execute runs the named stages in dependency-respecting order and returns a
// map from stage name to result. Configuration errors (unknown stage name,
// circular dependency) are detected before any stage runs. The first stage
// error aborts the remainder of the run.
func (e *Engine) Execute(ctx context.Context, names ...string) (map[string]any, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, ErrRunInProgress
	}
	e.running = true
	e.results = make(map[string]any)
	e.errs = make(map[string]error)
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	logger := ctxlog.FromContext(ctx)

	order, err := e.resolveOrder(names)
	if err != nil {
		return nil, err
	}
	logger.Debug("Stage order resolved.", "order", order)

	for _, name := range order {
		s := e.stages[name]
		logger.Debug("Stage starting.", "stage", name, "timeout", s.Timeout)
		started := time.Now()

		result, err := e.runStage(ctx, s)

		e.mu.Lock()
		if err != nil {
			e.errs[name] = err
		} else {
			e.results[name] = result
		}
		e.mu.Unlock()

		if err != nil {
			logger.Error("Stage failed, aborting run.", "stage", name, "error", err, "duration", time.Since(started))
			return e.resultsSnapshot(), fmt.Errorf("stage %q failed: %w", name, err)
		}
		logger.Debug("Stage completed.", "stage", name, "duration", time.Since(started))
	}

	return e.resultsSnapshot(), nil
}

// stageResult carries a stage outcome through the done channel of the
// timeout race.
type stageResult struct {
	value any
	err   error
}

// runStage races a single stage's work against its timeout. On timeout the
// stage context is cancelled so the work can observe it and stop, and the
// stage is reported failed with an error wrapping context.DeadlineExceeded.
func (e *Engine) runStage(ctx context.Context, s *Stage) (any, error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	done := make(chan stageResult, 1)
	go func() {
		value, err := s.Run(stageCtx)
		done <- stageResult{value: value, err: err}
	}()

	select {
	case <-stageCtx.Done():
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("stage %q timed out after %s: %w", s.Name, s.Timeout, context.DeadlineExceeded)
		}
		return nil, stageCtx.Err()
	case res := <-done:
		return res.value, res.err
	}
}

// resolveOrder computes a dependency-respecting execution order for the
// requested stages using depth-first traversal with three-color marking.
// Visiting an in-progress stage again means a circular dependency, which
// aborts the run before anything executes.
func (e *Engine) resolveOrder(names []string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := e.stages[name]; !ok {
			return nil, fmt.Errorf("unknown stage %q requested", name)
		}
		requested[name] = true
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	colors := make(map[string]int, len(names))
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case visited:
			return nil
		case visiting:
			return fmt.Errorf("circular dependency detected involving stage %q", name)
		}
		colors[name] = visiting

		for _, dep := range e.stages[name].DependsOn {
			// Dependencies outside the requested set place no ordering
			// constraint on this run.
			if !requested[dep] {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		colors[name] = visited
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// resultsSnapshot copies the per-run result map for return to the caller.
func (e *Engine) resultsSnapshot() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]any, len(e.results))
	for k, v := range e.results {
		out[k] = v
	}
	return out
}

// Result returns the recorded result for a stage from the most recent run.
func (e *Engine) Result(name string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.results[name]
	return v, ok
}

// Err returns the recorded error for a stage from the most recent run, or nil.
func (e *Engine) Err(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs[name]
}

// HasErrors reports whether any stage in the most recent run failed.
func (e *Engine) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.errs) > 0
}

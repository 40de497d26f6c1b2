package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/ports"
)

// Version is the release version.
const Version = "0.1.0"

// ErrNotCompleted is returned by Result for an interview that is still
// running.
var ErrNotCompleted = errors.New("interview not completed")

// Engine is the high-level entry point for the parley library. It wraps the
// update loop and a state store behind opaque state keys.
type Engine struct {
	interviews map[string]*interview.Interview
	store      ports.StateStore
	runner     *interview.Runner
	logger     *slog.Logger
	runnerOpts []interview.RunnerOption
	now        func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore injects a state store, bypassing the default in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHTTPClient sets the client used by http steps.
func WithHTTPClient(client interview.HTTPClient) Option {
	return func(e *Engine) {
		e.runnerOpts = append(e.runnerOpts, interview.WithHTTPClient(client))
	}
}

// WithInterviews registers interviews directly, bypassing config loading.
// New's path may be empty when this option is given.
func WithInterviews(interviews map[string]*interview.Interview) Option {
	return func(e *Engine) {
		e.interviews = interviews
	}
}

// WithClock overrides the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New initializes an Engine from an interview config file. By default it
// stores state in memory; use WithStore to persist elsewhere.
func New(configPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.interviews == nil {
		if configPath == "" {
			return nil, fmt.Errorf("config path is required when no interviews are provided")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		eng.interviews = cfg.Interviews
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	eng.runner = interview.NewRunner(append(eng.runnerOpts, interview.WithLogger(eng.logger))...)
	return eng, nil
}

// Interviews returns the registered interviews by id.
func (e *Engine) Interviews() map[string]*interview.Interview {
	return e.interviews
}

// Start begins a run of the named interview and stores its initial state.
// The target is opaque to the engine; it is handed back with the completed
// result. Returns the state key of the fresh snapshot.
func (e *Engine) Start(ctx context.Context, interviewID, target string, runContext, data map[string]any) (string, *interview.Context, error) {
	iv, ok := e.interviews[interviewID]
	if !ok {
		return "", nil, interview.ErrInterviewNotFound
	}

	state := interview.NewState(target, runContext, data)
	ic := interview.NewContext(iv.Questions, iv.QuestionOrder, iv.Steps, state, e.interviews)
	key, err := e.store.Put(ctx, ic)
	if err != nil {
		return "", nil, err
	}
	e.logger.Debug("started interview", "interview", interviewID, "state", key)
	return key, ic, nil
}

// Update advances the run identified by stateKey with the given responses
// and stores the resulting snapshot. The returned content is the next
// question, an exit message, or nil when the interview completed.
func (e *Engine) Update(ctx context.Context, stateKey string, responses map[string]any) (string, interview.Content, error) {
	ic, err := e.store.Get(ctx, stateKey)
	if err != nil {
		return "", nil, err
	}

	next, content, err := e.runner.Update(ctx, ic, responses)
	if err != nil {
		return "", nil, err
	}
	key, err := e.store.Put(ctx, next)
	if err != nil {
		return "", nil, err
	}
	return key, content, nil
}

// Result holds the outcome of a completed interview.
type Result struct {
	DateStarted time.Time      `json:"date_started"`
	DateExpires time.Time      `json:"date_expires"`
	Target      string         `json:"target"`
	Context     map[string]any `json:"context"`
	Data        map[string]any `json:"data"`
}

// Result returns the outcome of a completed run. It returns ErrNotCompleted
// for a run still in progress and interview.ErrInterviewNotFound when the
// key is unknown or the snapshot has expired.
func (e *Engine) Result(ctx context.Context, stateKey string) (*Result, error) {
	ic, err := e.store.Get(ctx, stateKey)
	if err != nil {
		return nil, err
	}
	if !ic.State.Completed {
		return nil, ErrNotCompleted
	}
	if !e.now().Before(ic.State.DateExpires) {
		return nil, interview.ErrInterviewNotFound
	}
	return &Result{
		DateStarted: ic.State.DateStarted,
		DateExpires: ic.State.DateExpires,
		Target:      ic.State.Target,
		Context:     ic.State.Context,
		Data:        ic.State.Data,
	}, nil
}

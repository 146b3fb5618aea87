package spec

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/kode4food/bpmspec/internal/util"
	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/assert"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/trace"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// Scenario is one Given/When/Then script bound to an engine. Every step
	// returns the same Scenario so calls can be chained. The first failing
	// step aborts the chain: later steps do nothing and Err reports the
	// failure. A Scenario is driven by one goroutine at a time
	Scenario struct {
		ctx       context.Context
		engine    api.Engine
		checker   *assert.Checker
		sink      trace.Sink
		resources fs.FS
		t         TestingT
		logger    *slog.Logger
		instance  *api.ProcessInstance
		collected value.Variables
		declared  util.Set[string]
		err       error
		name      string
		key       string
		message   string
	}

	// Option configures a Scenario
	Option func(*Scenario)

	// TestingT is the subset of *testing.T a Scenario reports failures to
	TestingT interface {
		Helper()
		Errorf(format string, args ...any)
		FailNow()
	}
)

var (
	ErrStartFailed       = errors.New("process instance could not be started")
	ErrNoProcessInstance = errors.New("no process instance has been started")
	ErrMissingArgument   = errors.New("required argument missing")
	ErrExtensionFailed   = errors.New("extension failed")
	ErrAssertionFailed   = assert.ErrAssertionFailed

	ErrEngineNotConfigured = assert.ErrEngineNotConfigured
)

// New creates a scenario against eng and traces its instantiation
func New(eng api.Engine, name string, opts ...Option) *Scenario {
	s := &Scenario{
		ctx:       context.Background(),
		engine:    eng,
		checker:   assert.New(eng),
		sink:      trace.NewWriter(nil),
		logger:    slog.Default(),
		collected: value.Variables{},
		declared:  util.Set[string]{},
		name:      name,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.phrase(trace.KindScenario,
		"Instantiated specification for scenario %s", name)
	return s
}

// WithContext sets the context passed to every engine call
func WithContext(ctx context.Context) Option {
	return func(s *Scenario) {
		s.ctx = ctx
	}
}

// WithSink replaces the default standard output trace
func WithSink(sink trace.Sink) Option {
	return func(s *Scenario) {
		if sink == nil {
			sink = trace.Discard
		}
		s.sink = sink
	}
}

// WithResources sets the file system message payloads are resolved from
func WithResources(fsys fs.FS) Option {
	return func(s *Scenario) {
		s.resources = fsys
	}
}

// WithT reports the first failure to t and stops the test immediately
func WithT(t TestingT) Option {
	return func(s *Scenario) {
		s.t = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scenario) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func (s *Scenario) Name() string {
	return s.name
}

func (s *Scenario) Context() context.Context {
	return s.ctx
}

func (s *Scenario) Engine() api.Engine {
	return s.engine
}

func (s *Scenario) Sink() trace.Sink {
	return s.sink
}

// ProcessInstance returns the active instance, or nil before a When-step
// has started one
func (s *Scenario) ProcessInstance() *api.ProcessInstance {
	return s.instance
}

// Var returns a collected variable
func (s *Scenario) Var(name string) (value.Value, bool) {
	v, ok := s.collected[name]
	return v, ok
}

// Vars returns a copy of every collected variable
func (s *Scenario) Vars() value.Variables {
	return s.collected.Clone()
}

// Declared returns the variable names declared for later collection, in
// sorted order
func (s *Scenario) Declared() []string {
	return util.SortedStrings(s.declared)
}

// Err returns the failure that aborted the scenario, if any
func (s *Scenario) Err() error {
	return s.err
}

// Failed returns true once a step has failed
func (s *Scenario) Failed() bool {
	return s.err != nil
}

// step runs fn unless the chain has already been aborted. A scenario
// without an engine fails its first step
func (s *Scenario) step(fn func() error) *Scenario {
	if s.err != nil {
		return s
	}
	if s.engine == nil {
		s.fail(assert.ErrEngineNotConfigured)
		return s
	}
	if err := fn(); err != nil {
		s.fail(err)
	}
	return s
}

// thenStep is a step that requires an active process instance
func (s *Scenario) thenStep(fn func(id api.InstanceID) error) *Scenario {
	return s.step(func() error {
		if s.instance == nil {
			return ErrNoProcessInstance
		}
		return fn(s.instance.ID)
	})
}

func (s *Scenario) fail(err error) {
	s.err = err
	s.logger.Warn("Scenario step failed",
		log.Scenario(s.name),
		log.Error(err))
	if s.t != nil {
		s.t.Helper()
		s.t.Errorf("scenario %q: %v", s.name, err)
		s.t.FailNow()
	}
}

func (s *Scenario) phrase(kind trace.Kind, format string, args ...any) {
	s.sink.Write(trace.Phrase{
		Time:     time.Now(),
		Scenario: s.name,
		Kind:     kind,
		Text:     fmt.Sprintf(format, args...),
	})
}

func failed(format string, args ...any) error {
	args = append([]any{ErrAssertionFailed}, args...)
	return fmt.Errorf("%w: "+format, args...)
}

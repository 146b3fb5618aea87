package memengine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// Engine is a deterministic in-memory implementation of api.Engine. It
	// executes Models in declaration order and keeps a full history, which
	// makes it suitable as a stand-in for a real engine in unit tests
	Engine struct {
		clock        Clock
		definitions  map[string][]*definition
		running      map[api.InstanceID]*instance
		tasks        map[string]*task
		jobs         map[string]*job
		users        map[string]*user
		groups       map[string]*api.Group
		revisions    map[api.InstanceID]map[string]int
		processes    []*api.HistoricProcess
		activities   []*api.HistoricActivity
		details      []*api.HistoricDetail
		pollInterval time.Duration
		seq          int64
		mu           sync.Mutex
	}

	// Clock provides the engine's current time
	Clock func() time.Time

	// Option configures an Engine
	Option func(*Engine)

	definition struct {
		*Model
		id      string
		version int
	}

	instance struct {
		def      *definition
		parent   *instance
		parked   *api.HistoricActivity
		record   *api.HistoricProcess
		vars     value.Variables
		message  string
		id       api.InstanceID
		tenant   string
		pos      int
	}
)

const DefaultPollInterval = 50 * time.Millisecond

var (
	ErrServiceFailed     = errors.New("service task failed")
	ErrMessageStartTaken = errors.New(
		"message start event belongs to another definition",
	)
)

// New creates an empty engine. Without WithClock the engine follows the
// wall clock until SetClock is first called
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:        time.Now,
		definitions:  map[string][]*definition{},
		running:      map[api.InstanceID]*instance{},
		tasks:        map[string]*task{},
		jobs:         map[string]*job{},
		users:        map[string]*user{},
		groups:       map[string]*api.Group{},
		revisions:    map[api.InstanceID]map[string]int{},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithClock fixes the engine clock at t
func WithClock(t time.Time) Option {
	return WithClockFunc(fixedClock(t))
}

// WithClockFunc installs a custom clock. SetClock still replaces it with a
// fixed one
func WithClockFunc(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithPollInterval sets how often WaitForJobs rechecks pending jobs
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// Deploy registers each model as a new version of its definition key. A
// message start event can only be owned by one key per tenant
func (e *Engine) Deploy(models ...*Model) error {
	for _, m := range models {
		if err := m.Validate(); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkMessageStarts(models); err != nil {
		return err
	}
	for _, m := range models {
		version := len(e.definitions[m.key]) + 1
		def := &definition{
			Model:   m,
			id:      fmt.Sprintf("%s:%d:%s", m.key, version, e.nextID()),
			version: version,
		}
		e.definitions[m.key] = append(e.definitions[m.key], def)
		slog.Debug("Definition deployed",
			slog.String("definition_id", def.id),
			slog.String("key", m.key))
	}
	return nil
}

// MustDeploy is Deploy for test setup, panicking on invalid models
func (e *Engine) MustDeploy(models ...*Model) *Engine {
	if err := e.Deploy(models...); err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) latestByKey(key, tenant string) (*definition, bool) {
	defs := e.definitions[key]
	for i := len(defs) - 1; i >= 0; i-- {
		if defs[i].tenant == tenant {
			return defs[i], true
		}
	}
	return nil, false
}

// latestByMessage relies on Deploy keeping message starts unique, so at
// most one key can match
func (e *Engine) latestByMessage(message, tenant string) (*definition, bool) {
	for key := range e.definitions {
		def, ok := e.latestByKey(key, tenant)
		if ok && def.message == message {
			return def, true
		}
	}
	return nil, false
}

func (e *Engine) checkMessageStarts(models []*Model) error {
	type slot struct{ message, tenant string }
	owners := map[slot]string{}
	for _, m := range models {
		if m.message == "" {
			continue
		}
		sl := slot{m.message, m.tenant}
		owner, ok := owners[sl]
		if !ok {
			if def, found := e.latestByMessage(sl.message, sl.tenant); found {
				owner, ok = def.key, true
			}
		}
		if ok && owner != m.key {
			return fmt.Errorf("%w: %s is started by %s, not %s",
				ErrMessageStartTaken, m.message, owner, m.key)
		}
		owners[sl] = m.key
	}
	return nil
}

func (e *Engine) nextID() string {
	return uuid.NewString()
}

func (e *Engine) nextSeq() int64 {
	e.seq++
	return e.seq
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) logInstance(msg string, inst *instance, attrs ...any) {
	args := append([]any{
		log.InstanceID(inst.id),
		slog.String("definition_id", inst.def.id),
	}, attrs...)
	slog.Debug(msg, args...)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}

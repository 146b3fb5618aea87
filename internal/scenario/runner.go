package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/ext"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/trace"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// Runner executes scenario files
	Runner struct {
		engine        api.Engine
		sink          trace.Sink
		bucket        ext.BucketWriter
		logger        *slog.Logger
		memOptions    []memengine.Option
		archivePrefix string
		tenant        string
		jobTimeout    time.Duration
	}

	// RunnerOption configures a Runner
	RunnerOption func(*Runner)

	// Result is the outcome of one scenario file
	Result struct {
		Err      error
		Instance *api.ProcessInstance
		Path     string
		Name     string
		Elapsed  time.Duration
	}
)

const DefaultJobTimeout = 10 * time.Second

var (
	ErrNoEngine       = errors.New("no engine configured")
	ErrNoArchive      = errors.New("no archive bucket configured")
	ErrScenarioFailed = errors.New("scenario failed")
)

// NewRunner creates a Runner. Files that declare models run on their own
// in-memory engine. All others need WithEngine
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		sink:       trace.NewWriter(nil),
		logger:     slog.Default(),
		jobTimeout: DefaultJobTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithEngine(eng api.Engine) RunnerOption {
	return func(r *Runner) {
		r.engine = eng
	}
}

func WithSink(sink trace.Sink) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// WithArchive enables archive steps
func WithArchive(bucket ext.BucketWriter, prefix string) RunnerOption {
	return func(r *Runner) {
		r.bucket = bucket
		r.archivePrefix = prefix
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithJobTimeout bounds allJobs steps that do not name their own duration
func WithJobTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.jobTimeout = d
		}
	}
}

// WithTenant is the tenant used by files that do not name one
func WithTenant(tenant string) RunnerOption {
	return func(r *Runner) {
		r.tenant = tenant
	}
}

// WithMemEngineOptions configures the in-memory engines built for files
// that declare models
func WithMemEngineOptions(opts ...memengine.Option) RunnerOption {
	return func(r *Runner) {
		r.memOptions = append(r.memOptions, opts...)
	}
}

// Passed returns true if the scenario ran without failure
func (r *Result) Passed() bool {
	return r.Err == nil
}

// RunAll runs every file in order, stopping early only if ctx is done
func (r *Runner) RunAll(ctx context.Context, files []*File) []*Result {
	res := make([]*Result, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		res = append(res, r.Run(ctx, f))
	}
	return res
}

// Run executes one scenario file
func (r *Runner) Run(ctx context.Context, f *File) *Result {
	start := time.Now()
	res := &Result{Path: f.Path, Name: f.Name}

	eng, err := r.engineFor(f)
	if err != nil {
		res.Err = err
		res.Elapsed = time.Since(start)
		return res
	}

	s := spec.New(eng, f.Name,
		spec.WithContext(ctx),
		spec.WithSink(r.sink),
		spec.WithLogger(r.logger),
		spec.WithResources(os.DirFS(f.ResourceDir())),
	)
	if f.Given != "" {
		s.Given(f.Given)
	}
	tenant := f.Tenant
	if tenant == "" {
		tenant = r.tenant
	}
	for i := range f.Steps {
		r.apply(s, &f.Steps[i], tenant)
		if s.Failed() {
			break
		}
	}

	res.Instance = s.ProcessInstance()
	res.Elapsed = time.Since(start)
	if err := s.Err(); err != nil {
		res.Err = fmt.Errorf("%w: %s: %w", ErrScenarioFailed, f.Name, err)
		r.logger.Warn("Scenario failed",
			log.Scenario(f.Name),
			slog.String("path", f.Path),
			log.Error(err))
		return res
	}
	r.logger.Info("Scenario passed",
		log.Scenario(f.Name),
		slog.String("path", f.Path),
		slog.Duration("elapsed", res.Elapsed))
	return res
}

func (r *Runner) engineFor(f *File) (api.Engine, error) {
	if len(f.Models) > 0 {
		return Deploy(f.Models, f.Users, r.memOptions...)
	}
	if r.engine == nil {
		return nil, fmt.Errorf("%w: %s declares no models", ErrNoEngine, f.Path)
	}
	return r.engine, nil
}

func (r *Runner) apply(s *spec.Scenario, st *Step, tenant string) {
	switch st.Kind {
	case KindStart:
		t := st.Start.Tenant
		if t == "" {
			t = tenant
		}
		s.WhenTenantEventOccurs(
			orDefault(st.Start.Event, "process "+st.Start.Process+" started"),
			st.Start.Process, t, st.Start.Collect, vars(st.Start.Vars),
		)
	case KindMessage:
		m := st.Message
		s.WhenMsgReceived(
			orDefault(m.Event, "message "+m.Message+" received"),
			m.Message, m.Payload, orDefault(m.Tenant, tenant),
		)
	case KindFollowUp:
		m := st.Message
		s.WhenFollowUpMsgReceived(
			orDefault(m.Event, "message "+m.Message+" received"),
			m.Message, m.Payload, orDefault(m.Tenant, tenant),
		)
	case KindServiceTask:
		s.ThenServiceTask(st.Task.ID, st.Task.Collect...)
	case KindScriptTask:
		s.ThenScriptTask(st.Task.ID, st.Task.Collect...)
	case KindUserTask:
		s.ThenUserTask(st.UserTask.Key, st.UserTask.Collect,
			vars(st.UserTask.Vars))
	case KindJobsFor:
		s.WhenExecuteJobsForTime(st.Duration)
	case KindAllJobs:
		d := st.Duration
		if d == 0 {
			d = r.jobTimeout
		}
		s.WhenExecuteAllJobs(d)
	case KindTimePassed:
		unit, _ := api.ParseTimeUnit(st.TimePassed.Unit)
		s.WhenProcessTimePassed(unit, st.TimePassed.Amount)
	case KindSubProcess:
		s.ThenSubProcessCalled(st.Text)
	case KindTimer:
		s.ThenTimerExpired(st.Text)
	case KindComplete:
		s.ThenProcessIsComplete()
	case KindEndedIn:
		s.ThenProcessEndedAndInEndEvents(st.Names...)
	case KindEndedExactly:
		s.ThenProcessEndedAndInExclusiveEndEvent(st.Text)
	case KindUserExists:
		s.ThenUserExists(st.User.ID, st.User.Groups...)
	case KindAuthenticates:
		s.ThenUserAuthenticated(st.Auth.User, st.Auth.Password)
	case KindCollect:
		s.CollectVar(st.Text)
	case KindExpect:
		s.ThenExtension(ext.Expect(st.Text))
	case KindLua:
		s.ThenExtension(ext.Lua(st.Text))
	case KindAudit:
		s.ThenExtension(ext.DumpAuditTrail(nil))
	case KindArchive:
		s.ThenExtension(r.archive(st.Text))
	}
}

func (r *Runner) archive(prefix string) spec.Action {
	if prefix == "" {
		prefix = r.archivePrefix
	}
	a, err := ext.ArchiveAuditTrail(r.bucket, prefix)
	if err != nil {
		return spec.NamedAction("archive audit trail",
			spec.ActionFunc(func(*spec.Scenario) error {
				return fmt.Errorf("%w: %w", ErrNoArchive, err)
			}),
		)
	}
	return a
}

func vars(m map[string]any) value.Variables {
	if len(m) == 0 {
		return value.Variables{}
	}
	return value.VariablesOf(m)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/redis/go-redis/v9"
	"gocloud.dev/blob"

	"github.com/kode4food/bpmspec/internal/config"
	"github.com/kode4food/bpmspec/internal/scenario"
	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/flowable"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/trace"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// session holds the collaborators a run builds from configuration
type session struct {
	cfg    *config.Config
	out    io.Writer
	sink   trace.Sink
	engine api.Engine
	bucket *blob.Bucket
	redis  *redis.Client
}

var ErrOpenBucket = errors.New("failed to open archive bucket")

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func openSession(
	ctx context.Context, cfg *config.Config, out io.Writer,
) (*session, error) {
	s := &session{cfg: cfg, out: out}
	if cfg.Styled {
		s.sink = trace.NewStyled(out)
	} else {
		s.sink = trace.NewWriter(out)
	}

	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.sink = trace.Tee(s.sink, trace.NewRedis(s.redis, cfg.RedisKey))
	}

	if !cfg.InMemory() {
		opts := []flowable.Option{
			flowable.WithTimeout(cfg.Timeout),
			flowable.WithPollInterval(cfg.PollInterval),
		}
		if cfg.User != "" {
			opts = append(opts,
				flowable.WithCredentials(cfg.User, cfg.Password),
			)
		}
		eng, err := flowable.NewClient(cfg.EngineURL, opts...)
		if err != nil {
			s.close()
			return nil, err
		}
		s.engine = eng
	}

	if cfg.ArchiveBucket != "" {
		b, err := blob.OpenBucket(ctx, cfg.ArchiveBucket)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("%w: %w", ErrOpenBucket, err)
		}
		s.bucket = b
	}
	return s, nil
}

func (s *session) close() {
	if s.bucket != nil {
		_ = s.bucket.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func (s *session) runner() *scenario.Runner {
	opts := []scenario.RunnerOption{
		scenario.WithSink(s.sink),
		scenario.WithLogger(slog.Default()),
		scenario.WithJobTimeout(s.cfg.JobTimeout),
		scenario.WithTenant(s.cfg.Tenant),
		scenario.WithMemEngineOptions(
			memengine.WithPollInterval(s.cfg.PollInterval),
		),
	}
	if s.engine != nil {
		opts = append(opts, scenario.WithEngine(s.engine))
	}
	if s.bucket != nil {
		opts = append(opts,
			scenario.WithArchive(s.bucket, s.cfg.ArchivePrefix),
		)
	}
	return scenario.NewRunner(opts...)
}

// runOnce loads every matching file and runs them in order. Invalid files
// stop the run before any scenario starts
func (s *session) runOnce(ctx context.Context, patterns []string) error {
	files, err := scenario.LoadAll(patterns...)
	if err != nil {
		return err
	}
	return s.report(s.runner().RunAll(ctx, files))
}

func (s *session) report(results []*scenario.Result) error {
	failed := 0
	_, _ = fmt.Fprintln(s.out)
	for _, r := range results {
		if r.Passed() {
			_, _ = fmt.Fprintf(s.out, "%s %s (%s)\n",
				s.style(passStyle, "PASS"), r.Name, r.Elapsed)
			continue
		}
		failed++
		_, _ = fmt.Fprintf(s.out, "%s %s: %v\n",
			s.style(failStyle, "FAIL"), r.Path, r.Err)
	}
	_, _ = fmt.Fprintf(s.out, "\n%d passed, %d failed\n",
		len(results)-failed, failed)

	if failed > 0 {
		slog.Warn("Scenarios failed",
			slog.Int("failed", failed),
			slog.Int("total", len(results)))
		return fmt.Errorf("%w: %d of %d", ErrScenariosFailed,
			failed, len(results))
	}
	return nil
}

func (s *session) style(st lipgloss.Style, text string) string {
	if !s.cfg.Styled {
		return text
	}
	return st.Render(text)
}

func (s *session) rerun(ctx context.Context, patterns []string) {
	if err := s.runOnce(ctx, patterns); err != nil {
		slog.Warn("Run failed", log.Error(err))
	}
	_, _ = fmt.Fprintln(s.out, "Watching for changes...")
}

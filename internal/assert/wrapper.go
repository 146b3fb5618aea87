package assert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bpmspec/internal/config"
	"github.com/kode4food/bpmspec/pkg/api"
	check "github.com/kode4food/bpmspec/pkg/assert"
	"github.com/kode4food/bpmspec/pkg/spec"
	"github.com/kode4food/bpmspec/pkg/trace"
)

// Wrapper wraps testify assertions with scenario-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *require.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 20 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus scenario-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// ScenarioPassed asserts that no step of the scenario failed
func (w *Wrapper) ScenarioPassed(s *spec.Scenario) {
	w.Helper()
	w.NoError(s.Err(), "scenario %q should pass", s.Name())
}

// ScenarioFailed asserts that the scenario was aborted with target
func (w *Wrapper) ScenarioFailed(s *spec.Scenario, target error) error {
	w.Helper()
	err := s.Err()
	w.Error(err, "scenario %q should fail", s.Name())
	w.ErrorIs(err, target)
	return err
}

// Traced asserts the recorder saw exactly these phrase kinds, in order
func (w *Wrapper) Traced(rec *trace.Recorder, kinds ...trace.Kind) {
	w.Helper()
	w.Equal(kinds, rec.Kinds())
}

// ProcessEnded asserts that the instance has ended on the engine
func (w *Wrapper) ProcessEnded(eng api.Engine, id api.InstanceID) {
	w.Helper()
	w.NoError(check.New(eng).ProcessEnded(context.Background(), id))
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.Timeout > 0)
	w.True(cfg.JobTimeout > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	w.Error(err)
	if err != nil && contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

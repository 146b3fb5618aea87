package assert

import (
	"context"
	"errors"
	"fmt"

	"github.com/kode4food/bpmspec/internal/util"
	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/value"
)

// Checker runs query-and-compare assertions against one engine
type Checker struct {
	engine api.Engine
}

var (
	ErrAssertionFailed     = errors.New("assertion failed")
	ErrEngineNotConfigured = errors.New(
		"engine must be configured before invoking assertions",
	)
)

// New binds a Checker to an engine. A nil engine is allowed, but every
// assertion made through the result fails with ErrEngineNotConfigured
func New(eng api.Engine) *Checker {
	return &Checker{engine: eng}
}

// Engine returns the engine the Checker is bound to
func (c *Checker) Engine() api.Engine {
	return c.engine
}

// ProcessEnded fails unless the instance's history record has an end time
func (c *Checker) ProcessEnded(ctx context.Context, id api.InstanceID) error {
	_, err := c.endedProcess(ctx, id)
	return err
}

// ProcessEndedIn fails unless the instance ended at exactly endEventID
func (c *Checker) ProcessEndedIn(
	ctx context.Context, id api.InstanceID, endEventID string,
) error {
	hp, err := c.endedProcess(ctx, id)
	if err != nil {
		return err
	}
	if hp.EndActivityID != endEventID {
		return failed(
			"process instance %s ended in %q, expected %q",
			id, hp.EndActivityID, endEventID,
		)
	}
	return nil
}

// ProcessEndedInAnyOf fails unless the instance ended at one of the listed
// end events
func (c *Checker) ProcessEndedInAnyOf(
	ctx context.Context, id api.InstanceID, endEventIDs ...string,
) error {
	hp, err := c.endedProcess(ctx, id)
	if err != nil {
		return err
	}
	allowed := util.SetOf(endEventIDs...)
	if !allowed.Contains(hp.EndActivityID) {
		return failed(
			"process instance %s ended in %q, expected one of [%s]",
			id, hp.EndActivityID, util.JoinSorted(allowed),
		)
	}
	return nil
}

// VariableLatestEquals fails unless the latest recorded value of the named
// variable equals expected. The live store is read first and history is
// consulted once the instance has ended
func (c *Checker) VariableLatestEquals(
	ctx context.Context, id api.InstanceID, name string, expected value.Value,
) error {
	got, ok, err := c.LatestVariable(ctx, id, name)
	if err != nil {
		return err
	}
	if !ok {
		return failed(
			"variable %q of process instance %s not found", name, id,
		)
	}
	if !got.Equal(expected) {
		return failed(
			"variable %q of process instance %s is %s, expected %s",
			name, id, got, expected,
		)
	}
	return nil
}

// LatestVariable reads a variable from the live store, falling back to
// history when the instance is no longer running
func (c *Checker) LatestVariable(
	ctx context.Context, id api.InstanceID, name string,
) (value.Value, bool, error) {
	if c.engine == nil {
		return value.Null(), false, ErrEngineNotConfigured
	}
	v, ok, err := c.engine.Variable(ctx, id, name)
	if err == nil {
		return v, ok, nil
	}
	if !errors.Is(err, api.ErrInstanceNotFound) {
		return value.Null(), false, err
	}
	hv, ok, err := c.engine.HistoricVariable(ctx, id, name)
	if err != nil || !ok {
		return value.Null(), false, err
	}
	return hv.Value, true, nil
}

func (c *Checker) endedProcess(
	ctx context.Context, id api.InstanceID,
) (*api.HistoricProcess, error) {
	if c.engine == nil {
		return nil, ErrEngineNotConfigured
	}
	res, err := c.engine.HistoricProcesses(ctx, api.HistoricProcessQuery{
		ProcessInstanceID: id,
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, failed("process instance %s has no history", id)
	}
	hp := res[0]
	if !hp.Ended() {
		return nil, failed("process instance %s has not ended", id)
	}
	return hp, nil
}

func failed(format string, args ...any) error {
	args = append([]any{ErrAssertionFailed}, args...)
	return fmt.Errorf("%w: "+format, args...)
}

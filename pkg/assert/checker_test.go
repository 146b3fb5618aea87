package assert_test

import (
	"context"
	"testing"

	testify "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/assert"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/value"
)

func TestUnconfiguredChecker(t *testing.T) {
	ctx := context.Background()
	c := assert.New(nil)

	testify.ErrorIs(t,
		c.ProcessEnded(ctx, "pi"), assert.ErrEngineNotConfigured,
	)
	testify.ErrorIs(t,
		c.ProcessEndedIn(ctx, "pi", "end"), assert.ErrEngineNotConfigured,
	)
	testify.ErrorIs(t,
		c.ProcessEndedInAnyOf(ctx, "pi", "end"),
		assert.ErrEngineNotConfigured,
	)
	testify.ErrorIs(t,
		c.VariableLatestEquals(ctx, "pi", "x", value.Null()),
		assert.ErrEngineNotConfigured,
	)
}

func TestProcessEnded(t *testing.T) {
	ctx := context.Background()
	eng, running, ended := deployed(t)
	c := assert.New(eng)
	testify.Same(t, eng, c.Engine())

	testify.NoError(t, c.ProcessEnded(ctx, ended))

	err := c.ProcessEnded(ctx, running)
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, string(running))
	testify.ErrorContains(t, err, "has not ended")

	err = c.ProcessEnded(ctx, "unknown")
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, "no history")
}

func TestProcessEndedIn(t *testing.T) {
	ctx := context.Background()
	eng, running, ended := deployed(t)
	c := assert.New(eng)

	testify.NoError(t, c.ProcessEndedIn(ctx, ended, "approved"))

	err := c.ProcessEndedIn(ctx, ended, "rejected")
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, `expected "rejected"`)

	err = c.ProcessEndedIn(ctx, running, "approved")
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
}

func TestProcessEndedInAnyOf(t *testing.T) {
	ctx := context.Background()
	eng, _, ended := deployed(t)
	c := assert.New(eng)

	testify.NoError(t,
		c.ProcessEndedInAnyOf(ctx, ended, "rejected", "approved"),
	)

	err := c.ProcessEndedInAnyOf(ctx, ended, "rejected", "cancelled")
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, "cancelled, rejected")

	err = c.ProcessEndedInAnyOf(ctx, ended)
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
}

func TestVariableLatestEquals(t *testing.T) {
	ctx := context.Background()
	eng, running, ended := deployed(t)
	c := assert.New(eng)

	testify.NoError(t,
		c.VariableLatestEquals(ctx, running, "amount", value.Int(7)),
	)
	testify.NoError(t,
		c.VariableLatestEquals(ctx, ended, "amount", value.Int(9)),
	)

	err := c.VariableLatestEquals(ctx, ended, "amount", value.Int(7))
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, `"amount"`)

	err = c.VariableLatestEquals(ctx, running, "missing", value.Null())
	testify.ErrorIs(t, err, assert.ErrAssertionFailed)
	testify.ErrorContains(t, err, "not found")

	v, ok, err := c.LatestVariable(ctx, ended, "amount")
	testify.NoError(t, err)
	testify.True(t, ok)
	testify.True(t, value.Int(9).Equal(v))
}

func deployed(
	t *testing.T,
) (*memengine.Engine, api.InstanceID, api.InstanceID) {
	t.Helper()
	ctx := context.Background()
	eng := memengine.New()
	eng.MustDeploy(
		memengine.NewModel("Waits").UserTask("review").EndEvent("approved"),
		memengine.NewModel("Quick").EndEvent("approved"),
	)

	running, err := eng.StartByKey(ctx, api.StartRequest{
		Key:       "Waits",
		Variables: value.Variables{"amount": value.Int(7)},
	})
	require.NoError(t, err)

	ended, err := eng.StartByKey(ctx, api.StartRequest{
		Key:       "Quick",
		Variables: value.Variables{"amount": value.Int(9)},
	})
	require.NoError(t, err)
	return eng, running.ID, ended.ID
}

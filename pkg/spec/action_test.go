package spec_test

import (
	"errors"
	"testing"

	"github.com/kode4food/bpmspec/internal/assert"
	"github.com/kode4food/bpmspec/internal/assert/helpers"
	"github.com/kode4food/bpmspec/pkg/spec"
)

type countingAction struct {
	runs int
}

func (a *countingAction) Execute(s *spec.Scenario) error {
	a.runs++
	if s.ProcessInstance() == nil {
		return errors.New("no instance")
	}
	return nil
}

func TestThenExtension(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		action := &countingAction{}

		s := env.Scenario("extension").
			WhenEventOccurs("start", "Example1", nil, nil).
			ThenExtension(action).
			ThenExtension(spec.NamedAction("audit", action))

		as.ScenarioPassed(s)
		as.Equal(2, action.runs)
		as.Contains(env.Recorder.Texts(),
			"THEN: extension '*spec_test.countingAction' is run")
		as.Contains(env.Recorder.Texts(), "THEN: extension 'audit' is run")
	})
}

func TestThenExtensionFailure(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		boom := errors.New("boom")

		s := env.Scenario("failing extension").
			WhenEventOccurs("start", "Example1", nil, nil).
			ThenExtension(spec.NamedAction("explode", spec.ActionFunc(
				func(*spec.Scenario) error { return boom },
			))).
			ThenProcessIsComplete()

		err := as.ScenarioFailed(s, spec.ErrExtensionFailed)
		as.ErrorIs(err, boom)
		as.Contains(err.Error(), "explode")
		as.NotContains(env.Recorder.Texts(), "THEN: The process is complete")
	})
}

func TestThenExtensionNil(t *testing.T) {
	helpers.WithTestEnv(t, func(env *helpers.TestEnv) {
		as := assert.New(t)
		s := env.Scenario("nil extension").
			WhenEventOccurs("start", "Example1", nil, nil).
			ThenExtension(nil)
		as.ScenarioFailed(s, spec.ErrMissingArgument)
	})
}

func TestActionName(t *testing.T) {
	as := assert.New(t)
	as.Equal("<nil>", spec.ActionName(nil))
	as.Equal("named", spec.ActionName(spec.NamedAction("named", nil)))
	as.Equal("spec.ActionFunc", spec.ActionName(spec.ActionFunc(
		func(*spec.Scenario) error { return nil },
	)))
}

func TestVarsHelpers(t *testing.T) {
	as := assert.New(t)
	as.Equal([]string{"a", "b"}, spec.Set("a", "b"))
	as.Empty(spec.Set())

	vars := spec.Vars(spec.Pair("x", 1), spec.Pair("x", "two"))
	as.Len(vars, 1)
	v, _ := vars.Get("x")
	s, ok := v.Str()
	as.True(ok)
	as.Equal("two", s)
}

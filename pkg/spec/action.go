package spec

import (
	"fmt"
	"reflect"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/trace"
)

type (
	// Action extends the scenario vocabulary with custom engine queries or
	// assertions. Returning an error fails the scenario
	Action interface {
		Execute(s *Scenario) error
	}

	// Named lets an Action choose the name it is traced under
	Named interface {
		ActionName() string
	}

	// ActionFunc adapts a function to the Action interface
	ActionFunc func(s *Scenario) error

	namedAction struct {
		Action
		name string
	}
)

func (f ActionFunc) Execute(s *Scenario) error {
	return f(s)
}

// NamedAction wraps an Action so it is traced as name
func NamedAction(name string, a Action) Action {
	return &namedAction{Action: a, name: name}
}

func (a *namedAction) ActionName() string {
	return a.name
}

// ThenExtension runs the action against the scenario and traces its name
func (s *Scenario) ThenExtension(a Action) *Scenario {
	return s.thenStep(func(api.InstanceID) error {
		name := ActionName(a)
		if a == nil {
			return fmt.Errorf("%w: extension", ErrMissingArgument)
		}
		if err := a.Execute(s); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExtensionFailed, name, err)
		}
		s.phrase(trace.KindThen, "THEN: extension '%s' is run", name)
		return nil
	})
}

// ActionName returns the name an action is traced under, which defaults to
// its Go type
func ActionName(a Action) string {
	if n, ok := a.(Named); ok {
		return n.ActionName()
	}
	if a == nil {
		return "<nil>"
	}
	return reflect.TypeOf(a).String()
}

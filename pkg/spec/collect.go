package spec

import (
	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/trace"
)

// CollectVar snapshots the named variable of the active instance into the
// scenario. The live store is read first and history is used once the
// instance has ended. A variable that cannot be found fails the scenario
func (s *Scenario) CollectVar(name string) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		return s.collect(pid, name)
	})
}

func (s *Scenario) collect(pid api.InstanceID, name string) error {
	v, ok, err := s.checker.LatestVariable(s.ctx, pid, name)
	if err != nil {
		return err
	}
	s.phrase(trace.KindVariable, "%s: %s", name, v)
	if !ok || v.IsNull() {
		return failed("variable %q of process instance %s not found",
			name, pid)
	}
	s.collected[name] = v
	return nil
}

func (s *Scenario) collectAll(pid api.InstanceID, names []string) error {
	for _, name := range names {
		if err := s.collect(pid, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) collectDeclared(pid api.InstanceID) error {
	return s.collectAll(pid, s.Declared())
}

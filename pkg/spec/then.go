package spec

import (
	"fmt"
	"strings"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/trace"
	"github.com/kode4food/bpmspec/pkg/value"
)

// ThenServiceTask asserts the active instance executed the activity, then
// collects the named variables
func (s *Scenario) ThenServiceTask(id string, collect ...string) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		acts, err := s.engine.HistoricActivities(s.ctx,
			api.HistoricActivityQuery{
				ActivityID:        id,
				ProcessInstanceID: pid,
			},
		)
		if err != nil {
			return err
		}
		if len(acts) == 0 {
			return failed("did not find the expected task with id %q", id)
		}
		if err := s.collectAll(pid, collect); err != nil {
			return err
		}
		s.phrase(trace.KindThen,
			"THEN: Task '%s' was created and completed", id)
		return nil
	})
}

// ThenScriptTask is ThenServiceTask for script tasks
func (s *Scenario) ThenScriptTask(id string, collect ...string) *Scenario {
	return s.ThenServiceTask(id, collect...)
}

// ThenUserTask asserts exactly one task is pending and that it was created
// from key, collects the named variables, then completes the task with vars
// and checks each of them was recorded. Tasks of descendant instances are
// considered when the active instance has none of its own
func (s *Scenario) ThenUserTask(
	key string, collect []string, vars value.Variables,
) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		tasks, err := s.pendingTasks(pid)
		if err != nil {
			return err
		}
		switch len(tasks) {
		case 0:
			return failed("did not find the expected task with key %q", key)
		case 1:
		default:
			return failed("found %d pending tasks, expected only %q",
				len(tasks), key)
		}
		task := tasks[0]
		if task.DefinitionKey != key {
			return failed("pending task has key %q, expected %q",
				task.DefinitionKey, key)
		}

		if err := s.collectAll(pid, collect); err != nil {
			return err
		}
		if err := s.engine.CompleteTask(s.ctx, task.ID, vars); err != nil {
			return err
		}
		s.logger.Debug("User task completed",
			log.Scenario(s.name),
			log.TaskID(task.ID))

		for _, name := range vars.Names() {
			if err := s.checker.VariableLatestEquals(
				s.ctx, task.ProcessInstanceID, name, vars[name],
			); err != nil {
				return err
			}
		}
		s.phrase(trace.KindThen,
			"THEN: User Task '%s' is created and completed", key)
		return nil
	})
}

// ThenSubProcessCalled asserts some descendant of the active instance, at
// any depth, ran a definition whose id starts with prefix
func (s *Scenario) ThenSubProcessCalled(prefix string) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		if prefix == "" {
			return fmt.Errorf("%w: sub-process key", ErrMissingArgument)
		}
		found, err := s.searchSubProcess(prefix, pid)
		if err != nil {
			return err
		}
		if !found {
			return failed("no call made to %s", prefix)
		}
		s.phrase(trace.KindThen, "THEN: The sub-process %s is called", prefix)
		return nil
	})
}

// ThenProcessIsComplete asserts the active instance has ended
func (s *Scenario) ThenProcessIsComplete() *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		if err := s.checker.ProcessEnded(s.ctx, pid); err != nil {
			return err
		}
		if err := s.collectDeclared(pid); err != nil {
			return err
		}
		s.phrase(trace.KindThen, "THEN: The process is complete")
		return nil
	})
}

// ThenProcessEndedAndInEndEvents asserts the active instance ended in one
// of the listed end events
func (s *Scenario) ThenProcessEndedAndInEndEvents(ids ...string) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		if len(ids) == 0 {
			return fmt.Errorf("%w: end event ids", ErrMissingArgument)
		}
		if err := s.checker.ProcessEndedInAnyOf(
			s.ctx, pid, ids...,
		); err != nil {
			return err
		}
		if err := s.collectDeclared(pid); err != nil {
			return err
		}
		s.phrase(trace.KindThen,
			"THEN: The process is complete and finished in these events %s",
			strings.Join(ids, ", "))
		return nil
	})
}

// ThenProcessEndedAndInExclusiveEndEvent asserts the active instance ended
// in exactly the given end event
func (s *Scenario) ThenProcessEndedAndInExclusiveEndEvent(
	id string,
) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		if err := s.checker.ProcessEndedIn(s.ctx, pid, id); err != nil {
			return err
		}
		if err := s.collectDeclared(pid); err != nil {
			return err
		}
		s.phrase(trace.KindThen,
			"THEN: The process is complete and in the end event %s", id)
		return nil
	})
}

// ThenTimerExpired asserts the timer fired exactly once in the active
// instance
func (s *Scenario) ThenTimerExpired(id string) *Scenario {
	return s.thenStep(func(pid api.InstanceID) error {
		acts, err := s.engine.HistoricActivities(s.ctx,
			api.HistoricActivityQuery{
				ActivityID:        id,
				ProcessInstanceID: pid,
			},
		)
		if err != nil {
			return err
		}
		fired := 0
		for _, a := range acts {
			if a.EndTime != nil {
				fired++
			}
		}
		if fired != 1 {
			return failed("timer %q fired %d times, expected once", id, fired)
		}
		s.phrase(trace.KindThen, "THEN: The timer %s expired", id)
		return nil
	})
}

// ThenUserExists asserts the user and every listed group are registered
func (s *Scenario) ThenUserExists(id string, groups ...string) *Scenario {
	return s.thenStep(func(api.InstanceID) error {
		_, ok, err := s.engine.User(s.ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return failed("user %q does not exist", id)
		}
		for _, g := range groups {
			_, ok, err := s.engine.Group(s.ctx, g)
			if err != nil {
				return err
			}
			if !ok {
				return failed("group %q does not exist", g)
			}
		}
		s.phrase(trace.KindThen, "THEN: The user %s exists", id)
		return nil
	})
}

// ThenUserAuthenticated asserts the password is accepted for the user
func (s *Scenario) ThenUserAuthenticated(id, password string) *Scenario {
	return s.thenStep(func(api.InstanceID) error {
		ok, err := s.engine.CheckPassword(s.ctx, id, password)
		if err != nil {
			return err
		}
		if !ok {
			return failed("user %q did not authenticate", id)
		}
		s.phrase(trace.KindThen, "THEN: The user %s is authenticated", id)
		return nil
	})
}

func (s *Scenario) pendingTasks(pid api.InstanceID) ([]*api.Task, error) {
	tasks, err := s.engine.Tasks(s.ctx, api.TaskQuery{ProcessInstanceID: pid})
	if err != nil || len(tasks) > 0 {
		return tasks, err
	}

	children, err := s.engine.HistoricProcesses(s.ctx,
		api.HistoricProcessQuery{SuperProcessInstanceID: pid},
	)
	if err != nil {
		return nil, err
	}
	var res []*api.Task
	for _, c := range children {
		if c.Ended() {
			continue
		}
		tasks, err := s.pendingTasks(c.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, tasks...)
	}
	return res, nil
}

// searchSubProcess checks each level of children before descending into
// their own children
func (s *Scenario) searchSubProcess(
	prefix string, pid api.InstanceID,
) (bool, error) {
	children, err := s.engine.HistoricProcesses(s.ctx,
		api.HistoricProcessQuery{SuperProcessInstanceID: pid},
	)
	if err != nil {
		return false, err
	}
	for _, c := range children {
		if strings.HasPrefix(c.DefinitionID, prefix) {
			return true, nil
		}
	}
	for _, c := range children {
		found, err := s.searchSubProcess(prefix, c.ID)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

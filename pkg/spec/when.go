package spec

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/trace"
	"github.com/kode4food/bpmspec/pkg/value"
)

// MessageNameVar holds the sanitized name of the message that started or
// resumed an instance
const MessageNameVar = "messageName"

// Given documents a precondition. It never touches the engine
func (s *Scenario) Given(precondition string) *Scenario {
	if s.err == nil {
		s.phrase(trace.KindGiven, "GIVEN: %s", precondition)
	}
	return s
}

// WhenEventOccurs starts the latest definition of key with vars. Names in
// collect are collected once the process is asserted to have ended
func (s *Scenario) WhenEventOccurs(
	desc, key string, collect []string, vars value.Variables,
) *Scenario {
	return s.WhenTenantEventOccurs(desc, key, "", collect, vars)
}

// WhenTenantEventOccurs is WhenEventOccurs for a tenant's definition
func (s *Scenario) WhenTenantEventOccurs(
	desc, key, tenant string, collect []string, vars value.Variables,
) *Scenario {
	return s.step(func() error {
		s.key = key
		for _, name := range collect {
			s.declared.Add(name)
		}
		pi, err := s.engine.StartByKey(s.ctx, api.StartRequest{
			Key:       key,
			TenantID:  tenant,
			Variables: vars,
		})
		if err := s.started(pi, err, key); err != nil {
			return err
		}
		s.phrase(trace.KindWhen, "WHEN: %s", desc)
		return nil
	})
}

// WhenMsgReceived starts the definition whose message start event matches
// msg. The payload is read from the scenario's resources when it names one,
// otherwise it is used literally
func (s *Scenario) WhenMsgReceived(
	desc, msg, payload, tenant string,
) *Scenario {
	return s.step(func() error {
		s.message = msg
		pi, err := s.engine.StartByMessage(s.ctx, api.MessageStartRequest{
			Message:   msg,
			TenantID:  tenant,
			Variables: s.messageVars(msg, payload),
		})
		if err := s.started(pi, err, msg); err != nil {
			return err
		}
		s.logger.Debug("Message start event triggered",
			log.Scenario(s.name),
			log.InstanceID(pi.ID),
			log.Message(msg))
		s.phrase(trace.KindWhen, "WHEN: %s", desc)
		return nil
	})
}

// WhenFollowUpMsgReceived correlates msg with the active instance, which
// must be waiting for it
func (s *Scenario) WhenFollowUpMsgReceived(
	desc, msg, payload, tenant string,
) *Scenario {
	return s.thenStep(func(id api.InstanceID) error {
		s.message = msg
		vars := s.messageVars(msg, payload)
		if err := s.engine.CorrelateMessage(s.ctx, id, msg, vars); err != nil {
			return fmt.Errorf("correlate %s (tenant %q): %w", msg, tenant, err)
		}
		s.logger.Debug("Message correlated",
			log.Scenario(s.name),
			log.InstanceID(id),
			log.Message(msg))
		s.phrase(trace.KindWhen, "WHEN: %s", desc)
		return nil
	})
}

// WhenExecuteJobsForTime lets the engine's job executor run for up to d and
// reports how many jobs remain. Remaining jobs are not a failure
func (s *Scenario) WhenExecuteJobsForTime(d time.Duration) *Scenario {
	return s.step(func() error {
		if err := s.engine.ExecuteJobsFor(s.ctx, d); err != nil {
			return err
		}
		jobs, err := s.engine.Jobs(s.ctx)
		if err != nil {
			return err
		}
		s.phrase(trace.KindWhen,
			"WHEN: executed jobs for %s, %d jobs remained", d, len(jobs))
		return nil
	})
}

// WhenExecuteAllJobs waits until the engine has no jobs left, failing if
// any remain after timeout
func (s *Scenario) WhenExecuteAllJobs(timeout time.Duration) *Scenario {
	return s.step(func() error {
		if err := s.engine.WaitForJobs(s.ctx, timeout); err != nil {
			return err
		}
		s.phrase(trace.KindWhen, "WHEN: executed all jobs")
		return nil
	})
}

// WhenProcessTimePassed moves the engine clock forward by amount units
func (s *Scenario) WhenProcessTimePassed(
	unit api.TimeUnit, amount int,
) *Scenario {
	return s.step(func() error {
		now, err := s.engine.Now(s.ctx)
		if err != nil {
			return err
		}
		next, err := unit.Add(now, amount)
		if err != nil {
			return err
		}
		s.phrase(trace.KindWhen,
			"WHEN: process time advanced to : %s", next.Format(time.RFC3339))
		return s.engine.SetClock(s.ctx, next)
	})
}

func (s *Scenario) started(
	pi *api.ProcessInstance, err error, what string,
) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStartFailed, what, err)
	}
	if pi == nil || pi.ID == "" {
		return fmt.Errorf("%w: %s: no instance id", ErrStartFailed, what)
	}
	s.instance = pi
	s.logger.Debug("Process instance started",
		log.Scenario(s.name),
		log.InstanceID(pi.ID))
	return nil
}

func (s *Scenario) messageVars(msg, payload string) value.Variables {
	name := SanitizeName(msg)
	return value.Variables{
		MessageNameVar: value.String(name),
		name:           value.Text(s.resolvePayload(payload)),
	}
}

// resolvePayload loads ref from the scenario resources. Any failure to load
// means ref is the payload itself
func (s *Scenario) resolvePayload(ref string) string {
	if s.resources == nil {
		return ref
	}
	name := strings.TrimPrefix(ref, "/")
	if !fs.ValidPath(name) {
		return ref
	}
	data, err := fs.ReadFile(s.resources, name)
	if err != nil {
		return ref
	}
	return string(data)
}

// SanitizeName replaces the dots engines reject in variable names
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

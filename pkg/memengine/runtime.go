package memengine

import (
	"context"
	"fmt"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/value"
)

// StartByKey starts the latest definition deployed for the key and tenant
func (e *Engine) StartByKey(
	_ context.Context, req api.StartRequest,
) (*api.ProcessInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok := e.latestByKey(req.Key, req.TenantID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrDefinitionNotFound, req.Key)
	}
	return e.startInstance(def, req.TenantID, req.Variables, nil)
}

// StartByMessage starts the latest definition with a matching message start
func (e *Engine) StartByMessage(
	_ context.Context, req api.MessageStartRequest,
) (*api.ProcessInstance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok := e.latestByMessage(req.Message, req.TenantID)
	if !ok {
		return nil, fmt.Errorf("%w: message %s",
			api.ErrDefinitionNotFound, req.Message)
	}
	return e.startInstance(def, req.TenantID, req.Variables, nil)
}

// CorrelateMessage resumes an instance parked on a catch event for message
func (e *Engine) CorrelateMessage(
	_ context.Context, id api.InstanceID, message string,
	vars value.Variables,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.running[id]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrInstanceNotFound, id)
	}
	if inst.parked == nil || inst.message != message {
		return fmt.Errorf("%w: %s", api.ErrNoSubscription, message)
	}
	inst.message = ""
	e.setVariables(inst, vars)
	return e.resume(inst)
}

// Variable reads a live variable of a running instance
func (e *Engine) Variable(
	_ context.Context, id api.InstanceID, name string,
) (value.Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.running[id]
	if !ok {
		return value.Null(), false, fmt.Errorf("%w: %s",
			api.ErrInstanceNotFound, id)
	}
	v, ok := inst.vars[name]
	return v, ok, nil
}

// Instances returns the ids of every running instance
func (e *Engine) Instances() []api.InstanceID {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]api.InstanceID, 0, len(e.running))
	for _, p := range e.processes {
		if _, ok := e.running[p.ID]; ok {
			res = append(res, p.ID)
		}
	}
	return res
}

func (e *Engine) startInstance(
	def *definition, tenant string, vars value.Variables, parent *instance,
) (*api.ProcessInstance, error) {
	inst := &instance{
		def:    def,
		parent: parent,
		vars:   value.Variables{},
		id:     api.InstanceID(e.nextID()),
		tenant: tenant,
	}
	inst.record = &api.HistoricProcess{
		ID:           inst.id,
		DefinitionID: def.id,
		StartTime:    e.now(),
	}
	if parent != nil {
		inst.record.SuperProcessInstanceID = parent.id
	}
	e.processes = append(e.processes, inst.record)
	e.running[inst.id] = inst
	e.setVariables(inst, vars)
	e.logInstance("Instance started", inst)

	res := &api.ProcessInstance{
		ID:            inst.id,
		DefinitionID:  def.id,
		DefinitionKey: def.key,
		TenantID:      tenant,
	}
	if err := e.run(inst); err != nil {
		return res, err
	}
	return res, nil
}

// run executes nodes from the current position until the instance parks on
// a wait state or ends
func (e *Engine) run(inst *instance) error {
	nodes := inst.def.nodes
	for {
		if inst.pos >= len(nodes) {
			return e.endInstance(inst, nodes[len(nodes)-1].ID)
		}
		n := nodes[inst.pos]
		act := e.beginActivity(inst, n)

		switch n.Type {
		case UserTask:
			e.createTask(inst, n)
			inst.parked = act
			return nil

		case IntermediateCatch:
			if n.IsTimer() {
				e.schedule(inst, n, api.JobTypeTimer, e.now().Add(n.Delay))
			} else {
				inst.message = n.Message
			}
			inst.parked = act
			return nil

		case ServiceTask, ScriptTask:
			if n.Async {
				e.schedule(inst, n, api.JobTypeAsync, e.now())
				inst.parked = act
				return nil
			}
			if err := e.invoke(inst, n); err != nil {
				return err
			}

		case CallActivity:
			def, ok := e.latestByKey(n.Calls, inst.tenant)
			if !ok {
				return e.fail(inst, n, fmt.Errorf("%w: %s",
					api.ErrDefinitionNotFound, n.Calls))
			}
			// a child that ends synchronously resumes its parent itself
			inst.parked = act
			_, err := e.startInstance(def, inst.tenant, inst.vars.Clone(), inst)
			return err

		case ExclusiveGateway:
			target := n.route(inst.vars.Clone())
			idx, ok := inst.def.indexOf(target)
			if !ok {
				return e.fail(inst, n,
					fmt.Errorf("%w: %q", ErrUnknownTarget, target))
			}
			e.endActivity(act)
			inst.pos = idx
			continue

		case EndEvent:
			e.endActivity(act)
			return e.endInstance(inst, n.ID)
		}

		e.endActivity(act)
		inst.pos++
	}
}

// resume completes the parked activity and continues with the next node
func (e *Engine) resume(inst *instance) error {
	e.endActivity(inst.parked)
	inst.parked = nil
	inst.pos++
	return e.run(inst)
}

func (e *Engine) invoke(inst *instance, n *Node) error {
	if n.service == nil {
		return nil
	}
	out, err := n.service(inst.vars.Clone())
	if err != nil {
		return e.fail(inst, n, err)
	}
	e.setVariables(inst, out)
	return nil
}

func (e *Engine) endInstance(inst *instance, endActivityID string) error {
	end := e.now()
	inst.record.EndTime = &end
	inst.record.EndActivityID = endActivityID
	delete(e.running, inst.id)
	e.logInstance("Instance ended", inst,
		log.ActivityID(endActivityID))

	if p := inst.parent; p != nil {
		if _, ok := e.running[p.id]; ok && p.parked != nil {
			return e.resume(p)
		}
	}
	return nil
}

// fail aborts the instance without an end activity
func (e *Engine) fail(inst *instance, n *Node, err error) error {
	e.logInstance("Instance failed", inst,
		log.ActivityID(n.ID),
		log.Error(err))
	end := e.now()
	inst.record.EndTime = &end
	delete(e.running, inst.id)
	e.dropWork(inst.id)
	return fmt.Errorf("%w: %s: %w", ErrServiceFailed, n.ID, err)
}

func (e *Engine) setVariables(inst *instance, vars value.Variables) {
	if len(vars) == 0 {
		return
	}
	revs, ok := e.revisions[inst.id]
	if !ok {
		revs = map[string]int{}
		e.revisions[inst.id] = revs
	}
	now := e.now()
	for _, name := range vars.Names() {
		v := vars[name]
		inst.vars[name] = v
		revs[name]++
		e.details = append(e.details, &api.HistoricDetail{
			ProcessInstanceID: inst.id,
			Name:              name,
			Value:             v,
			Revision:          revs[name] - 1,
			Time:              now,
		})
	}
}

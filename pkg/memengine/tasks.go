package memengine

import (
	"context"
	"fmt"
	"slices"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/log"
	"github.com/kode4food/bpmspec/pkg/value"
)

type task struct {
	api.Task
	inst *instance
	seq  int64
}

// Tasks lists pending user tasks in creation order
func (e *Engine) Tasks(
	_ context.Context, q api.TaskQuery,
) ([]*api.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := make([]*task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if q.ProcessInstanceID != "" &&
			t.ProcessInstanceID != q.ProcessInstanceID {
			continue
		}
		pending = append(pending, t)
	}
	slices.SortFunc(pending, func(a, b *task) int {
		return int(a.seq - b.seq)
	})

	res := make([]*api.Task, len(pending))
	for i, t := range pending {
		cp := t.Task
		res[i] = &cp
	}
	return res, nil
}

// CompleteTask sets vars on the owning instance and continues it
func (e *Engine) CompleteTask(
	_ context.Context, taskID string, vars value.Variables,
) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrTaskNotFound, taskID)
	}
	delete(e.tasks, taskID)
	e.logInstance("Task completed", t.inst, log.TaskID(taskID))
	e.setVariables(t.inst, vars)
	return e.resume(t.inst)
}

func (e *Engine) createTask(inst *instance, n *Node) {
	t := &task{
		Task: api.Task{
			ID:                e.nextID(),
			Name:              n.ID,
			DefinitionKey:     n.ID,
			ProcessInstanceID: inst.id,
		},
		inst: inst,
		seq:  e.nextSeq(),
	}
	e.tasks[t.ID] = t
}

func (e *Engine) dropWork(id api.InstanceID) {
	for k, t := range e.tasks {
		if t.ProcessInstanceID == id {
			delete(e.tasks, k)
		}
	}
	for k, j := range e.jobs {
		if j.ProcessInstanceID == id {
			delete(e.jobs, k)
		}
	}
}

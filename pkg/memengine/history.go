package memengine

import (
	"context"

	"github.com/kode4food/bpmspec/pkg/api"
)

// HistoricActivities lists activity executions in the order they began
func (e *Engine) HistoricActivities(
	_ context.Context, q api.HistoricActivityQuery,
) ([]*api.HistoricActivity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res []*api.HistoricActivity
	for _, a := range e.activities {
		if q.ActivityID != "" && a.ActivityID != q.ActivityID {
			continue
		}
		if q.ProcessInstanceID != "" &&
			a.ProcessInstanceID != q.ProcessInstanceID {
			continue
		}
		cp := *a
		res = append(res, &cp)
	}
	return res, nil
}

// HistoricProcesses lists process instances in the order they started
func (e *Engine) HistoricProcesses(
	_ context.Context, q api.HistoricProcessQuery,
) ([]*api.HistoricProcess, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res []*api.HistoricProcess
	for _, p := range e.processes {
		if q.ProcessInstanceID != "" && p.ID != q.ProcessInstanceID {
			continue
		}
		if q.SuperProcessInstanceID != "" &&
			p.SuperProcessInstanceID != q.SuperProcessInstanceID {
			continue
		}
		cp := *p
		res = append(res, &cp)
	}
	return res, nil
}

// HistoricVariable returns the most recent value recorded for the variable
func (e *Engine) HistoricVariable(
	_ context.Context, id api.InstanceID, name string,
) (*api.HistoricVariable, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := len(e.details) - 1; i >= 0; i-- {
		d := e.details[i]
		if d.ProcessInstanceID == id && d.Name == name {
			return &api.HistoricVariable{
				ProcessInstanceID: id,
				Name:              name,
				Value:             d.Value,
			}, true, nil
		}
	}
	return nil, false, nil
}

// HistoricDetails lists every variable update of the instance in order
func (e *Engine) HistoricDetails(
	_ context.Context, id api.InstanceID,
) ([]*api.HistoricDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res []*api.HistoricDetail
	for _, d := range e.details {
		if d.ProcessInstanceID == id {
			cp := *d
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (e *Engine) beginActivity(
	inst *instance, n *Node,
) *api.HistoricActivity {
	a := &api.HistoricActivity{
		ID:                e.nextID(),
		ActivityID:        n.ID,
		ActivityType:      string(n.Type),
		ProcessInstanceID: inst.id,
		StartTime:         e.now(),
	}
	e.activities = append(e.activities, a)
	return a
}

func (e *Engine) endActivity(a *api.HistoricActivity) {
	if a == nil || a.EndTime != nil {
		return
	}
	end := e.now()
	a.EndTime = &end
}

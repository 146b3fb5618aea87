package fakerest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/flowable"
)

func (s *Server) startInstance(c *gin.Context) {
	body, vars, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	key := body.Get("processDefinitionKey").String()
	msg := body.Get("message").String()
	tenant := body.Get("tenantId").String()

	var p *api.ProcessInstance
	switch {
	case key != "":
		p, err = s.engine.StartByKey(ctx, api.StartRequest{
			Variables: vars,
			Key:       key,
			TenantID:  tenant,
		})
	case msg != "":
		p, err = s.engine.StartByMessage(ctx, api.MessageStartRequest{
			Variables: vars,
			Message:   msg,
			TenantID:  tenant,
		})
	default:
		err = fmt.Errorf("%w: processDefinitionKey or message is required",
			ErrInvalidJSON)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	rec, err := s.process(ctx, p.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flowable.ProcessInstanceBody{
		ID:                   string(p.ID),
		ProcessDefinitionID:  p.DefinitionID,
		ProcessDefinitionKey: p.DefinitionKey,
		TenantID:             p.TenantID,
		Ended:                rec.Ended(),
	})
}

func (s *Server) getInstance(c *gin.Context) {
	id := api.InstanceID(c.Param("id"))
	rec, err := s.running(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flowable.ProcessInstanceBody{
		ID:                  string(rec.ID),
		ProcessDefinitionID: rec.DefinitionID,
	})
}

func (s *Server) getVariable(c *gin.Context) {
	id := api.InstanceID(c.Param("id"))
	name := c.Param("name")
	v, ok, err := s.engine.Variable(c.Request.Context(), id, name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, flowable.ErrorBody{
			Message: fmt.Sprintf(
				"process instance %s has no variable %q", id, name,
			),
		})
		return
	}
	res := flowable.EncodeVariable(name, v)
	res.Scope = "local"
	c.JSON(http.StatusOK, res)
}

// listExecutions reports a running instance as its own single execution.
// The subscription filter is left to the message action, which fails when
// nothing is waiting
func (s *Server) listExecutions(c *gin.Context) {
	id := api.InstanceID(c.Query("processInstanceId"))
	var res []flowable.ExecutionBody
	if _, err := s.running(c.Request.Context(), id); err == nil {
		res = append(res, flowable.ExecutionBody{
			ID:                string(id),
			ProcessInstanceID: string(id),
		})
	}
	c.JSON(http.StatusOK, page(c, res))
}

func (s *Server) executionAction(c *gin.Context) {
	body, vars, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if action := body.Get("action").String(); action !=
		flowable.ActionMessageReceived {
		s.writeError(c, fmt.Errorf("%w: %q", ErrInvalidAction, action))
		return
	}
	id := api.InstanceID(c.Param("id"))
	msg := body.Get("messageName").String()
	err = s.engine.CorrelateMessage(c.Request.Context(), id, msg, vars)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.engine.Tasks(c.Request.Context(), api.TaskQuery{
		ProcessInstanceID: api.InstanceID(c.Query("processInstanceId")),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	res := make([]flowable.TaskBody, len(tasks))
	for i, t := range tasks {
		res[i] = flowable.TaskBody{
			ID:                t.ID,
			Name:              t.Name,
			TaskDefinitionKey: t.DefinitionKey,
			ProcessInstanceID: string(t.ProcessInstanceID),
		}
	}
	c.JSON(http.StatusOK, page(c, res))
}

func (s *Server) taskAction(c *gin.Context) {
	body, vars, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if action := body.Get("action").String(); action !=
		flowable.ActionComplete {
		s.writeError(c, fmt.Errorf("%w: %q", ErrInvalidAction, action))
		return
	}
	err = s.engine.CompleteTask(c.Request.Context(), c.Param("id"), vars)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) process(
	ctx context.Context, id api.InstanceID,
) (*api.HistoricProcess, error) {
	procs, err := s.engine.HistoricProcesses(ctx, api.HistoricProcessQuery{
		ProcessInstanceID: id,
	})
	if err != nil {
		return nil, err
	}
	if id == "" || len(procs) == 0 {
		return nil, fmt.Errorf("%w: %s", api.ErrInstanceNotFound, id)
	}
	return procs[0], nil
}

// running returns the record of an instance that has not yet ended
func (s *Server) running(
	ctx context.Context, id api.InstanceID,
) (*api.HistoricProcess, error) {
	rec, err := s.process(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Ended() {
		return nil, fmt.Errorf("%w: %s", api.ErrInstanceNotFound, id)
	}
	return rec, nil
}

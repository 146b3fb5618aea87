package flowable

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/value"
)

func (c *Client) StartByKey(
	ctx context.Context, req api.StartRequest,
) (*api.ProcessInstance, error) {
	return c.start(ctx, &StartBody{
		ProcessDefinitionKey: req.Key,
		TenantID:             req.TenantID,
		Variables:            EncodeVariables(req.Variables),
	}, req.Key)
}

func (c *Client) StartByMessage(
	ctx context.Context, req api.MessageStartRequest,
) (*api.ProcessInstance, error) {
	return c.start(ctx, &StartBody{
		Message:   req.Message,
		TenantID:  req.TenantID,
		Variables: EncodeVariables(req.Variables),
	}, req.Message)
}

func (c *Client) start(
	ctx context.Context, body *StartBody, target string,
) (*api.ProcessInstance, error) {
	resp, err := c.send(ctx, http.MethodPost, PathProcessInstances, body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.ok():
		return processInstanceOf(resp.body), nil
	case resp.status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", api.ErrDefinitionNotFound, target)
	default:
		return nil, resp.fail(http.MethodPost, PathProcessInstances)
	}
}

// CorrelateMessage finds the execution subscribed to message within the
// instance and signals it
func (c *Client) CorrelateMessage(
	ctx context.Context, id api.InstanceID, message string,
	vars value.Variables,
) error {
	execs, err := c.list(ctx, PathExecutions, queryOf(
		"processInstanceId", string(id),
		"messageEventSubscriptionName", message,
	))
	if err != nil {
		return err
	}
	if len(execs) == 0 {
		if err := c.instanceExists(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s in %s", api.ErrNoSubscription, message, id)
	}

	path := pathOf(PathExecutions, execs[0].Get("id").String())
	resp, err := c.send(ctx, http.MethodPut, path, &ActionBody{
		Action:      ActionMessageReceived,
		MessageName: message,
		Variables:   EncodeVariables(vars),
	})
	if err != nil {
		return err
	}
	switch {
	case resp.ok():
		return nil
	case resp.status == http.StatusNotFound:
		return fmt.Errorf("%w: %s in %s", api.ErrNoSubscription, message, id)
	default:
		return resp.fail(http.MethodPut, path)
	}
}

func (c *Client) Variable(
	ctx context.Context, id api.InstanceID, name string,
) (value.Value, bool, error) {
	path := pathOf(PathProcessInstances, string(id), "variables", name)
	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return value.Null(), false, err
	}
	switch {
	case resp.ok():
		v, err := DecodeVariable(resp.body)
		if err != nil {
			return value.Null(), false, err
		}
		return v, true, nil
	case resp.status == http.StatusNotFound:
		if err := c.instanceExists(ctx, id); err != nil {
			return value.Null(), false, err
		}
		return value.Null(), false, nil
	default:
		return value.Null(), false, resp.fail(http.MethodGet, path)
	}
}

func (c *Client) instanceExists(ctx context.Context, id api.InstanceID) error {
	path := pathOf(PathProcessInstances, string(id))
	resp, err := c.get(ctx, path, nil)
	if err != nil {
		return err
	}
	switch {
	case resp.status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", api.ErrInstanceNotFound, id)
	case !resp.ok():
		return resp.fail(http.MethodGet, path)
	case resp.body.Get("ended").Bool():
		return fmt.Errorf("%w: %s", api.ErrInstanceNotFound, id)
	default:
		return nil
	}
}

func (c *Client) Tasks(
	ctx context.Context, q api.TaskQuery,
) ([]*api.Task, error) {
	items, err := c.list(ctx, PathTasks, queryOf(
		"processInstanceId", string(q.ProcessInstanceID),
	))
	if err != nil {
		return nil, err
	}
	res := make([]*api.Task, len(items))
	for i, item := range items {
		res[i] = &api.Task{
			ID:                item.Get("id").String(),
			Name:              item.Get("name").String(),
			DefinitionKey:     item.Get("taskDefinitionKey").String(),
			ProcessInstanceID: instanceIDOf(item.Get("processInstanceId")),
		}
	}
	return res, nil
}

func (c *Client) CompleteTask(
	ctx context.Context, taskID string, vars value.Variables,
) error {
	path := pathOf(PathTasks, taskID)
	resp, err := c.send(ctx, http.MethodPost, path, &ActionBody{
		Action:    ActionComplete,
		Variables: EncodeVariables(vars),
	})
	if err != nil {
		return err
	}
	switch {
	case resp.ok():
		return nil
	case resp.status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", api.ErrTaskNotFound, taskID)
	default:
		return resp.fail(http.MethodPost, path)
	}
}

func processInstanceOf(r gjson.Result) *api.ProcessInstance {
	return &api.ProcessInstance{
		ID:            instanceIDOf(r.Get("id")),
		DefinitionID:  r.Get("processDefinitionId").String(),
		DefinitionKey: r.Get("processDefinitionKey").String(),
		TenantID:      r.Get("tenantId").String(),
	}
}

func instanceIDOf(r gjson.Result) api.InstanceID {
	return api.InstanceID(r.String())
}

package flowable

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/api"
)

func (c *Client) HistoricActivities(
	ctx context.Context, q api.HistoricActivityQuery,
) ([]*api.HistoricActivity, error) {
	items, err := c.list(ctx, PathHistoricActivities, queryOf(
		"processInstanceId", string(q.ProcessInstanceID),
		"activityId", q.ActivityID,
	))
	if err != nil {
		return nil, err
	}
	res := make([]*api.HistoricActivity, len(items))
	for i, item := range items {
		start, err := timeOf(item.Get("startTime"))
		if err != nil {
			return nil, err
		}
		end, err := optionalTimeOf(item.Get("endTime"))
		if err != nil {
			return nil, err
		}
		res[i] = &api.HistoricActivity{
			StartTime:         start,
			EndTime:           end,
			ID:                item.Get("id").String(),
			ActivityID:        item.Get("activityId").String(),
			ActivityType:      item.Get("activityType").String(),
			ProcessInstanceID: instanceIDOf(item.Get("processInstanceId")),
		}
	}
	return res, nil
}

func (c *Client) HistoricProcesses(
	ctx context.Context, q api.HistoricProcessQuery,
) ([]*api.HistoricProcess, error) {
	items, err := c.list(ctx, PathHistoricProcesses, queryOf(
		"processInstanceId", string(q.ProcessInstanceID),
		"superProcessInstanceId", string(q.SuperProcessInstanceID),
	))
	if err != nil {
		return nil, err
	}
	res := make([]*api.HistoricProcess, len(items))
	for i, item := range items {
		start, err := timeOf(item.Get("startTime"))
		if err != nil {
			return nil, err
		}
		end, err := optionalTimeOf(item.Get("endTime"))
		if err != nil {
			return nil, err
		}
		res[i] = &api.HistoricProcess{
			StartTime:    start,
			EndTime:      end,
			ID:           instanceIDOf(item.Get("id")),
			DefinitionID: item.Get("processDefinitionId").String(),
			SuperProcessInstanceID: instanceIDOf(
				item.Get("superProcessInstanceId"),
			),
			EndActivityID: item.Get("endActivityId").String(),
		}
	}
	return res, nil
}

func (c *Client) HistoricVariable(
	ctx context.Context, id api.InstanceID, name string,
) (*api.HistoricVariable, bool, error) {
	items, err := c.list(ctx, PathHistoricVariables, queryOf(
		"processInstanceId", string(id),
		"variableName", name,
	))
	if err != nil {
		return nil, false, err
	}
	for _, item := range items {
		if item.Get("variable.name").String() != name {
			continue
		}
		v, err := DecodeVariable(item.Get("variable"))
		if err != nil {
			return nil, false, err
		}
		return &api.HistoricVariable{
			Value:             v,
			ProcessInstanceID: id,
			Name:              name,
		}, true, nil
	}
	return nil, false, nil
}

// HistoricDetails returns the variable updates of an instance. Form
// property details are skipped
func (c *Client) HistoricDetails(
	ctx context.Context, id api.InstanceID,
) ([]*api.HistoricDetail, error) {
	items, err := c.list(ctx, PathHistoricDetails, queryOf(
		"processInstanceId", string(id),
		"selectOnlyVariableUpdates", "true",
	))
	if err != nil {
		return nil, err
	}
	res := make([]*api.HistoricDetail, 0, len(items))
	for _, item := range items {
		dt := item.Get("detailType").String()
		if dt != "" && dt != DetailVariableUpdate {
			continue
		}
		d, err := detailOf(item)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, nil
}

func detailOf(item gjson.Result) (*api.HistoricDetail, error) {
	t, err := timeOf(item.Get("time"))
	if err != nil {
		return nil, err
	}
	v, err := DecodeVariable(item.Get("variable"))
	if err != nil {
		return nil, err
	}
	return &api.HistoricDetail{
		Time:              t,
		Value:             v,
		ProcessInstanceID: instanceIDOf(item.Get("processInstanceId")),
		Name:              item.Get("variable.name").String(),
		Revision:          int(item.Get("revision").Int()),
	}, nil
}

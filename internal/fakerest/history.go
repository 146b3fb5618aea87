package fakerest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/flowable"
)

func (s *Server) listActivities(c *gin.Context) {
	acts, err := s.engine.HistoricActivities(c.Request.Context(),
		api.HistoricActivityQuery{
			ActivityID:        c.Query("activityId"),
			ProcessInstanceID: api.InstanceID(c.Query("processInstanceId")),
		},
	)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res := make([]flowable.ActivityBody, len(acts))
	for i, a := range acts {
		res[i] = flowable.ActivityBody{
			StartTime:         a.StartTime,
			EndTime:           a.EndTime,
			ID:                a.ID,
			ActivityID:        a.ActivityID,
			ActivityType:      a.ActivityType,
			ProcessInstanceID: string(a.ProcessInstanceID),
		}
	}
	c.JSON(http.StatusOK, page(c, res))
}

func (s *Server) listProcesses(c *gin.Context) {
	procs, err := s.engine.HistoricProcesses(c.Request.Context(),
		api.HistoricProcessQuery{
			ProcessInstanceID: api.InstanceID(c.Query("processInstanceId")),
			SuperProcessInstanceID: api.InstanceID(
				c.Query("superProcessInstanceId"),
			),
		},
	)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res := make([]flowable.HistoricProcessBody, len(procs))
	for i, p := range procs {
		res[i] = flowable.HistoricProcessBody{
			StartTime:              p.StartTime,
			EndTime:                p.EndTime,
			ID:                     string(p.ID),
			ProcessDefinitionID:    p.DefinitionID,
			SuperProcessInstanceID: string(p.SuperProcessInstanceID),
			EndActivityID:          p.EndActivityID,
		}
	}
	c.JSON(http.StatusOK, page(c, res))
}

// listVariables reports the latest value of each variable an instance has
// ever held, in order of first assignment
func (s *Server) listVariables(c *gin.Context) {
	id := api.InstanceID(c.Query("processInstanceId"))
	details, err := s.engine.HistoricDetails(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	filter := c.Query("variableName")
	latest := map[string]int{}
	var res []flowable.HistoricVariableBody
	for _, d := range details {
		if filter != "" && d.Name != filter {
			continue
		}
		body := flowable.HistoricVariableBody{
			Variable:          flowable.EncodeVariable(d.Name, d.Value),
			ProcessInstanceID: string(d.ProcessInstanceID),
		}
		if i, ok := latest[d.Name]; ok {
			res[i] = body
			continue
		}
		latest[d.Name] = len(res)
		res = append(res, body)
	}
	c.JSON(http.StatusOK, page(c, res))
}

func (s *Server) listDetails(c *gin.Context) {
	id := api.InstanceID(c.Query("processInstanceId"))
	details, err := s.engine.HistoricDetails(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	res := make([]flowable.HistoricDetailBody, len(details))
	for i, d := range details {
		res[i] = flowable.HistoricDetailBody{
			Time:              d.Time,
			Variable:          flowable.EncodeVariable(d.Name, d.Value),
			ID:                fmt.Sprintf("%s-%d", d.ProcessInstanceID, i),
			ProcessInstanceID: string(d.ProcessInstanceID),
			DetailType:        flowable.DetailVariableUpdate,
			Revision:          d.Revision,
		}
	}
	c.JSON(http.StatusOK, page(c, res))
}

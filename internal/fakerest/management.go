package fakerest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bpmspec/pkg/flowable"
)

// listReadyJobs lists the jobs that are due on the engine clock
func (s *Server) listReadyJobs(c *gin.Context) {
	s.listJobs(c, true)
}

// listTimerJobs lists the timers that are not yet due
func (s *Server) listTimerJobs(c *gin.Context) {
	s.listJobs(c, false)
}

func (s *Server) listJobs(c *gin.Context, due bool) {
	ctx := c.Request.Context()
	now, err := s.engine.Now(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	jobs, err := s.engine.Jobs(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res := []flowable.JobBody{}
	for _, j := range jobs {
		if j.DueDate.After(now) == due {
			continue
		}
		dueDate := j.DueDate
		res = append(res, flowable.JobBody{
			DueDate:           &dueDate,
			ID:                j.ID,
			ProcessInstanceID: string(j.ProcessInstanceID),
			ElementID:         j.ActivityID,
		})
	}
	c.JSON(http.StatusOK, page(c, res))
}

func (s *Server) jobAction(c *gin.Context) {
	body, _, err := readBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if action := body.Get("action").String(); action !=
		flowable.ActionExecute {
		s.writeError(c, fmt.Errorf("%w: %q", ErrInvalidAction, action))
		return
	}
	err = s.engine.ExecuteJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

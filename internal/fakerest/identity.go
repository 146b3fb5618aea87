package fakerest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bpmspec/pkg/flowable"
)

func (s *Server) getUser(c *gin.Context) {
	id := c.Param("id")
	u, ok, err := s.engine.User(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, flowable.ErrorBody{
			Message: "user not found: " + id,
		})
		return
	}
	c.JSON(http.StatusOK, flowable.UserBody{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	})
}

func (s *Server) getGroup(c *gin.Context) {
	id := c.Param("id")
	g, ok, err := s.engine.Group(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, flowable.ErrorBody{
			Message: "group not found: " + id,
		})
		return
	}
	c.JSON(http.StatusOK, flowable.GroupBody{
		ID:   g.ID,
		Name: g.Name,
	})
}

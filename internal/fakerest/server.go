package fakerest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/flowable"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/value"
)

// Server serves an in-memory engine over the subset of the Flowable REST
// API that the flowable client uses
type Server struct {
	engine *memengine.Engine
}

// BasePath is the service root, as deployed by the flowable-rest webapp
const BasePath = "/flowable-rest/service"

const defaultPageSize = 10

var (
	ErrInvalidJSON   = errors.New("invalid JSON")
	ErrInvalidAction = errors.New("unsupported action")
	ErrUnauthorized  = errors.New("bad credentials")
)

// NewServer creates a server for eng
func NewServer(eng *memengine.Engine) *Server {
	return &Server{engine: eng}
}

// Handler returns the HTTP handler with every route registered
func (s *Server) Handler() http.Handler {
	return s.SetupRoutes()
}

// SetupRoutes configures and returns the router
func (s *Server) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	svc := router.Group(BasePath)
	svc.Use(s.authenticate)
	{
		svc.POST(flowable.PathProcessInstances, s.startInstance)
		svc.GET(flowable.PathProcessInstances+"/:id", s.getInstance)
		svc.GET(flowable.PathProcessInstances+"/:id/variables/:name",
			s.getVariable)

		svc.GET(flowable.PathExecutions, s.listExecutions)
		svc.PUT(flowable.PathExecutions+"/:id", s.executionAction)

		svc.GET(flowable.PathTasks, s.listTasks)
		svc.POST(flowable.PathTasks+"/:id", s.taskAction)

		svc.GET(flowable.PathHistoricActivities, s.listActivities)
		svc.GET(flowable.PathHistoricProcesses, s.listProcesses)
		svc.GET(flowable.PathHistoricVariables, s.listVariables)
		svc.GET(flowable.PathHistoricDetails, s.listDetails)

		svc.GET(flowable.PathJobs, s.listReadyJobs)
		svc.POST(flowable.PathJobs+"/:id", s.jobAction)
		svc.GET(flowable.PathTimerJobs, s.listTimerJobs)

		svc.GET(flowable.PathUsers+"/:id", s.getUser)
		svc.GET(flowable.PathGroups+"/:id", s.getGroup)
	}

	return router
}

// authenticate rejects requests whose basic credentials do not match the
// identity store. Anonymous requests are let through
func (s *Server) authenticate(c *gin.Context) {
	user, pass, ok := c.Request.BasicAuth()
	if !ok {
		c.Next()
		return
	}
	valid, err := s.engine.CheckPassword(c.Request.Context(), user, pass)
	if err != nil {
		s.writeError(c, err)
		c.Abort()
		return
	}
	if !valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, flowable.ErrorBody{
			Message: ErrUnauthorized.Error(),
		})
		return
	}
	c.Next()
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, api.ErrDefinitionNotFound),
		errors.Is(err, api.ErrInstanceNotFound),
		errors.Is(err, api.ErrTaskNotFound),
		errors.Is(err, api.ErrJobNotFound),
		errors.Is(err, api.ErrNoSubscription):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidJSON),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, flowable.ErrBadVariable):
		status = http.StatusBadRequest
	}
	c.JSON(status, flowable.ErrorBody{
		Message:   err.Error(),
		Exception: http.StatusText(status),
	})
}

// readBody parses the request body and decodes its variables array
func readBody(c *gin.Context) (gjson.Result, value.Variables, error) {
	data, err := c.GetRawData()
	if err != nil {
		return gjson.Result{}, nil, err
	}
	if len(data) == 0 {
		return gjson.Result{}, value.Variables{}, nil
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, nil, ErrInvalidJSON
	}
	body := gjson.ParseBytes(data)
	vars, err := flowable.DecodeVariables(body.Get("variables"))
	if err != nil {
		return gjson.Result{}, nil, err
	}
	return body, vars, nil
}

// page slices items according to the start and size query parameters
func page[T any](c *gin.Context, items []T) flowable.ListBody[T] {
	start := queryInt(c, "start", 0)
	size := queryInt(c, "size", defaultPageSize)
	total := len(items)
	start = min(max(start, 0), total)
	end := min(start+max(size, 0), total)
	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return flowable.ListBody[T]{
		Data:  data,
		Total: total,
		Start: start,
		Size:  len(data),
	}
}

func queryInt(c *gin.Context, name string, def int) int {
	if s := c.Query(name); s != "" {
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
	}
	return def
}

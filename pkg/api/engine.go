package api

import (
	"context"
	"errors"
	"time"

	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// Engine is the process engine under test. Implementations may be shared
	// by many scenarios
	Engine interface {
		Runtime
		TaskService
		History
		Management
		Identity
	}

	// Runtime starts process instances and reads their live variables
	Runtime interface {
		StartByKey(ctx context.Context, req StartRequest) (
			*ProcessInstance, error,
		)
		StartByMessage(ctx context.Context, req MessageStartRequest) (
			*ProcessInstance, error,
		)

		// CorrelateMessage delivers a named message to an instance that is
		// waiting for it
		CorrelateMessage(
			ctx context.Context, id InstanceID, message string,
			vars value.Variables,
		) error

		// Variable returns ErrInstanceNotFound once the instance is no
		// longer running. A missing variable is reported through the bool
		Variable(ctx context.Context, id InstanceID, name string) (
			value.Value, bool, error,
		)
	}

	// TaskService queries and completes pending user tasks
	TaskService interface {
		Tasks(ctx context.Context, q TaskQuery) ([]*Task, error)
		CompleteTask(
			ctx context.Context, taskID string, vars value.Variables,
		) error
	}

	// History queries the audit record of finished and running instances
	History interface {
		HistoricActivities(
			ctx context.Context, q HistoricActivityQuery,
		) ([]*HistoricActivity, error)
		HistoricProcesses(
			ctx context.Context, q HistoricProcessQuery,
		) ([]*HistoricProcess, error)
		HistoricVariable(ctx context.Context, id InstanceID, name string) (
			*HistoricVariable, bool, error,
		)
		HistoricDetails(ctx context.Context, id InstanceID) (
			[]*HistoricDetail, error,
		)
	}

	// Management drives the background job executor and the engine clock
	Management interface {
		Jobs(ctx context.Context) ([]*Job, error)

		// ExecuteJobsFor lets the job executor run for at most d of wall
		// clock time
		ExecuteJobsFor(ctx context.Context, d time.Duration) error

		// WaitForJobs blocks until no jobs remain, returning ErrJobsTimeout
		// if the timeout elapses first
		WaitForJobs(ctx context.Context, timeout time.Duration) error

		Now(ctx context.Context) (time.Time, error)
		SetClock(ctx context.Context, t time.Time) error
	}

	// Identity reads the engine's user and group store
	Identity interface {
		User(ctx context.Context, id string) (*User, bool, error)
		Group(ctx context.Context, id string) (*Group, bool, error)
		CheckPassword(ctx context.Context, userID, password string) (
			bool, error,
		)
	}
)

var (
	ErrInstanceNotFound   = errors.New("process instance not found")
	ErrDefinitionNotFound = errors.New("process definition not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrNoSubscription     = errors.New("no instance waiting for message")
	ErrJobsTimeout        = errors.New("jobs remained after timeout")
	ErrUnsupported        = errors.New("operation not supported by engine")
)

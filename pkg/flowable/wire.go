package flowable

import (
	"time"
)

// Request and response bodies of the Flowable REST API, limited to the
// fields this package reads or writes
type (
	// RestVariable is a typed variable as the REST API encodes it
	RestVariable struct {
		Value any    `json:"value"`
		Name  string `json:"name"`
		Type  string `json:"type,omitempty"`
		Scope string `json:"scope,omitempty"`
	}

	// StartBody starts a process instance by definition key or by message
	StartBody struct {
		ProcessDefinitionKey string         `json:"processDefinitionKey,omitempty"`
		Message              string         `json:"message,omitempty"`
		TenantID             string         `json:"tenantId,omitempty"`
		Variables            []RestVariable `json:"variables,omitempty"`
	}

	// ActionBody invokes an action on a task, execution or job
	ActionBody struct {
		Action      string         `json:"action"`
		MessageName string         `json:"messageName,omitempty"`
		Variables   []RestVariable `json:"variables,omitempty"`
	}

	ProcessInstanceBody struct {
		ID                   string `json:"id"`
		ProcessDefinitionID  string `json:"processDefinitionId"`
		ProcessDefinitionKey string `json:"processDefinitionKey,omitempty"`
		TenantID             string `json:"tenantId,omitempty"`
		Ended                bool   `json:"ended"`
	}

	ExecutionBody struct {
		ID                string `json:"id"`
		ProcessInstanceID string `json:"processInstanceId"`
	}

	TaskBody struct {
		ID                string `json:"id"`
		Name              string `json:"name,omitempty"`
		TaskDefinitionKey string `json:"taskDefinitionKey"`
		ProcessInstanceID string `json:"processInstanceId"`
	}

	ActivityBody struct {
		StartTime         time.Time  `json:"startTime"`
		EndTime           *time.Time `json:"endTime"`
		ID                string     `json:"id"`
		ActivityID        string     `json:"activityId"`
		ActivityType      string     `json:"activityType"`
		ProcessInstanceID string     `json:"processInstanceId"`
	}

	HistoricProcessBody struct {
		StartTime              time.Time  `json:"startTime"`
		EndTime                *time.Time `json:"endTime"`
		ID                     string     `json:"id"`
		ProcessDefinitionID    string     `json:"processDefinitionId"`
		SuperProcessInstanceID string     `json:"superProcessInstanceId,omitempty"`
		EndActivityID          string     `json:"endActivityId,omitempty"`
	}

	HistoricVariableBody struct {
		Variable          RestVariable `json:"variable"`
		ProcessInstanceID string       `json:"processInstanceId"`
	}

	HistoricDetailBody struct {
		Time              time.Time    `json:"time"`
		Variable          RestVariable `json:"variable"`
		ID                string       `json:"id"`
		ProcessInstanceID string       `json:"processInstanceId"`
		DetailType        string       `json:"detailType"`
		Revision          int          `json:"revision"`
	}

	JobBody struct {
		DueDate           *time.Time `json:"dueDate"`
		ID                string     `json:"id"`
		ProcessInstanceID string     `json:"processInstanceId"`
		ElementID         string     `json:"elementId"`
	}

	UserBody struct {
		ID        string `json:"id"`
		FirstName string `json:"firstName,omitempty"`
		LastName  string `json:"lastName,omitempty"`
		Email     string `json:"email,omitempty"`
	}

	GroupBody struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}

	// ListBody is the paged envelope of every list and query response
	ListBody[T any] struct {
		Data  []T `json:"data"`
		Total int `json:"total"`
		Start int `json:"start"`
		Size  int `json:"size"`
	}

	// ErrorBody is returned with every unsuccessful status
	ErrorBody struct {
		Message   string `json:"message"`
		Exception string `json:"exception,omitempty"`
	}
)

// Action names and detail types understood by the REST API
const (
	ActionComplete        = "complete"
	ActionExecute         = "execute"
	ActionMessageReceived = "messageEventReceived"
	DetailVariableUpdate  = "variableUpdate"
)

// REST resource paths, relative to the service base URL
const (
	PathProcessInstances   = "/runtime/process-instances"
	PathExecutions         = "/runtime/executions"
	PathTasks              = "/runtime/tasks"
	PathHistoricActivities = "/history/historic-activity-instances"
	PathHistoricProcesses  = "/history/historic-process-instances"
	PathHistoricVariables  = "/history/historic-variable-instances"
	PathHistoricDetails    = "/history/historic-detail"
	PathJobs               = "/management/jobs"
	PathTimerJobs          = "/management/timer-jobs"
	PathUsers              = "/identity/users"
	PathGroups             = "/identity/groups"
)

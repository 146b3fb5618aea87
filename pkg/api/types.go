package api

import (
	"time"

	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// InstanceID identifies a process instance within an engine
	InstanceID string

	// ProcessInstance is the handle returned when an instance is started
	ProcessInstance struct {
		ID            InstanceID `json:"id"`
		DefinitionID  string     `json:"definition_id"`
		DefinitionKey string     `json:"definition_key,omitempty"`
		TenantID      string     `json:"tenant_id,omitempty"`
	}

	// StartRequest starts an instance of the latest definition for Key
	StartRequest struct {
		Variables value.Variables
		Key       string
		TenantID  string
	}

	// MessageStartRequest starts the instance whose definition has a message
	// start event for Message
	MessageStartRequest struct {
		Variables value.Variables
		Message   string
		TenantID  string
	}

	// Task is a pending user task
	Task struct {
		ID                string     `json:"id"`
		Name              string     `json:"name,omitempty"`
		DefinitionKey     string     `json:"definition_key"`
		ProcessInstanceID InstanceID `json:"process_instance_id"`
	}

	// TaskQuery filters pending tasks. Empty fields match everything
	TaskQuery struct {
		ProcessInstanceID InstanceID
	}

	// HistoricActivity records one execution of a flow node
	HistoricActivity struct {
		StartTime         time.Time  `json:"start_time"`
		EndTime           *time.Time `json:"end_time,omitempty"`
		ID                string     `json:"id"`
		ActivityID        string     `json:"activity_id"`
		ActivityType      string     `json:"activity_type"`
		ProcessInstanceID InstanceID `json:"process_instance_id"`
	}

	// HistoricActivityQuery filters activity history. Empty fields match
	// everything
	HistoricActivityQuery struct {
		ActivityID        string
		ProcessInstanceID InstanceID
	}

	// HistoricProcess records a process instance, running or ended
	HistoricProcess struct {
		StartTime              time.Time  `json:"start_time"`
		EndTime                *time.Time `json:"end_time,omitempty"`
		ID                     InstanceID `json:"id"`
		DefinitionID           string     `json:"definition_id"`
		SuperProcessInstanceID InstanceID `json:"super_process_instance_id,omitempty"`
		EndActivityID          string     `json:"end_activity_id,omitempty"`
	}

	// HistoricProcessQuery filters process history. Empty fields match
	// everything
	HistoricProcessQuery struct {
		ProcessInstanceID      InstanceID
		SuperProcessInstanceID InstanceID
	}

	// HistoricVariable is the latest recorded value of a variable
	HistoricVariable struct {
		Value             value.Value `json:"value"`
		ProcessInstanceID InstanceID  `json:"process_instance_id"`
		Name              string      `json:"name"`
	}

	// HistoricDetail is a single recorded variable update
	HistoricDetail struct {
		Time              time.Time   `json:"time"`
		Value             value.Value `json:"value"`
		ProcessInstanceID InstanceID  `json:"process_instance_id"`
		Name              string      `json:"name"`
		Revision          int         `json:"revision"`
	}

	// JobType distinguishes timers from asynchronous continuations
	JobType string

	// Job is a unit of work waiting for the job executor
	Job struct {
		DueDate           time.Time  `json:"due_date"`
		ID                string     `json:"id"`
		ProcessInstanceID InstanceID `json:"process_instance_id"`
		ActivityID        string     `json:"activity_id"`
		Type              JobType    `json:"type"`
	}

	// User is an entry in the engine's identity store
	User struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name,omitempty"`
		LastName  string `json:"last_name,omitempty"`
		Email     string `json:"email,omitempty"`
	}

	// Group is a named set of users
	Group struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}
)

const (
	JobTypeTimer JobType = "timer"
	JobTypeAsync JobType = "async"
)

// Ended returns true if the instance has an end time
func (p *HistoricProcess) Ended() bool {
	return p.EndTime != nil
}

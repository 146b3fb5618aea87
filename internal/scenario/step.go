package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/ext"
)

type (
	// StepKind names the single key of a step mapping
	StepKind string

	// Step is one entry of a scenario's steps list. Exactly one of the
	// kind-specific fields is set, according to Kind
	Step struct {
		Start      *StartStep
		Message    *MessageStep
		Task       *TaskStep
		UserTask   *UserTaskStep
		TimePassed *TimeStep
		User       *UserStep
		Auth       *AuthStep
		Kind       StepKind
		Text       string
		Names      []string
		Duration   time.Duration
		Line       int
	}

	// StartStep starts a process by definition key
	StartStep struct {
		Vars    map[string]any `yaml:"vars"`
		Event   string         `yaml:"event"`
		Process string         `yaml:"process"`
		Tenant  string         `yaml:"tenant"`
		Collect []string       `yaml:"collect"`
	}

	// MessageStep starts or continues a process with a message
	MessageStep struct {
		Event   string `yaml:"event"`
		Message string `yaml:"message"`
		Payload string `yaml:"payload"`
		Tenant  string `yaml:"tenant"`
	}

	// TaskStep asserts a service or script task ran
	TaskStep struct {
		ID      string   `yaml:"id"`
		Collect []string `yaml:"collect"`
	}

	// UserTaskStep asserts and completes the single pending user task
	UserTaskStep struct {
		Vars    map[string]any `yaml:"vars"`
		Key     string         `yaml:"key"`
		Collect []string       `yaml:"collect"`
	}

	// TimeStep moves the engine clock
	TimeStep struct {
		Unit   string `yaml:"unit"`
		Amount int    `yaml:"amount"`
	}

	// UserStep asserts a user and its groups exist
	UserStep struct {
		ID     string   `yaml:"id"`
		Groups []string `yaml:"groups"`
	}

	// AuthStep asserts a password is accepted
	AuthStep struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	}
)

const (
	KindStart         StepKind = "start"
	KindMessage       StepKind = "message"
	KindFollowUp      StepKind = "followUp"
	KindServiceTask   StepKind = "serviceTask"
	KindScriptTask    StepKind = "scriptTask"
	KindUserTask      StepKind = "userTask"
	KindJobsFor       StepKind = "jobsFor"
	KindAllJobs       StepKind = "allJobs"
	KindTimePassed    StepKind = "timePassed"
	KindSubProcess    StepKind = "subProcess"
	KindTimer         StepKind = "timer"
	KindComplete      StepKind = "complete"
	KindEndedIn       StepKind = "endedIn"
	KindEndedExactly  StepKind = "endedExactly"
	KindUserExists    StepKind = "userExists"
	KindAuthenticates StepKind = "authenticates"
	KindCollect       StepKind = "collect"
	KindExpect        StepKind = "expect"
	KindLua           StepKind = "lua"
	KindAudit         StepKind = "audit"
	KindArchive       StepKind = "archive"
)

var (
	ErrInvalidStep  = errors.New("invalid step")
	ErrUnknownStep  = errors.New("unknown step")
	ErrMissingField = errors.New("missing field")
)

// UnmarshalYAML reads a single-key mapping such as {serviceTask: calculate}
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("%w: line %d: a step has exactly one key",
			ErrInvalidStep, node.Line)
	}
	val := node.Content[1]
	s.Kind = StepKind(node.Content[0].Value)
	s.Line = node.Line

	var err error
	switch s.Kind {
	case KindStart:
		s.Start = &StartStep{}
		err = val.Decode(s.Start)
	case KindMessage, KindFollowUp:
		s.Message = &MessageStep{}
		err = val.Decode(s.Message)
	case KindServiceTask, KindScriptTask:
		s.Task = &TaskStep{}
		err = decodeScalarOr(val, &s.Task.ID, s.Task)
	case KindUserTask:
		s.UserTask = &UserTaskStep{}
		err = decodeScalarOr(val, &s.UserTask.Key, s.UserTask)
	case KindJobsFor, KindAllJobs:
		err = val.Decode(&s.Duration)
		if err == nil && s.Duration < 0 {
			err = fmt.Errorf("%w: negative duration", ErrInvalidStep)
		}
	case KindTimePassed:
		s.TimePassed = &TimeStep{}
		if val.Kind == yaml.ScalarNode {
			s.TimePassed, err = parseTimeStep(val.Value)
		} else {
			err = val.Decode(s.TimePassed)
		}
	case KindUserExists:
		s.User = &UserStep{}
		err = decodeScalarOr(val, &s.User.ID, s.User)
	case KindAuthenticates:
		s.Auth = &AuthStep{}
		err = val.Decode(s.Auth)
	case KindEndedIn:
		if val.Kind == yaml.ScalarNode {
			s.Names = []string{val.Value}
		} else {
			err = val.Decode(&s.Names)
		}
	case KindSubProcess, KindTimer, KindEndedExactly, KindCollect,
		KindExpect, KindLua, KindArchive:
		err = val.Decode(&s.Text)
	case KindComplete, KindAudit:
	default:
		return fmt.Errorf("%w: line %d: %q", ErrUnknownStep, s.Line, s.Kind)
	}
	if err != nil {
		return fmt.Errorf("%w: line %d: %s: %w",
			ErrInvalidStep, s.Line, s.Kind, err)
	}
	return nil
}

// Validate checks required fields and compiles any embedded scripts
func (s *Step) Validate() error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("%w: line %d: %s: %w",
			ErrInvalidStep, s.Line, s.Kind, err)
	}
	return nil
}

func (s *Step) validate() error {
	switch s.Kind {
	case KindStart:
		return required("process", s.Start.Process)
	case KindMessage, KindFollowUp:
		return required("message", s.Message.Message)
	case KindServiceTask, KindScriptTask:
		return required("id", s.Task.ID)
	case KindUserTask:
		return required("key", s.UserTask.Key)
	case KindJobsFor:
		if s.Duration <= 0 {
			return fmt.Errorf("%w: positive duration", ErrMissingField)
		}
	case KindTimePassed:
		_, err := api.ParseTimeUnit(s.TimePassed.Unit)
		return err
	case KindSubProcess, KindTimer, KindEndedExactly, KindCollect:
		return required("value", s.Text)
	case KindEndedIn:
		if len(s.Names) == 0 {
			return fmt.Errorf("%w: end event ids", ErrMissingField)
		}
	case KindUserExists:
		return required("id", s.User.ID)
	case KindAuthenticates:
		return required("user", s.Auth.User)
	case KindExpect:
		return ext.Expect(s.Text).Validate()
	case KindLua:
		return ext.Lua(s.Text).Validate()
	}
	return nil
}

func required(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, name)
	}
	return nil
}

// decodeScalarOr stores a scalar node in short, or decodes a mapping into
// full
func decodeScalarOr(node *yaml.Node, short *string, full any) error {
	if node.Kind == yaml.ScalarNode {
		*short = node.Value
		return nil
	}
	return node.Decode(full)
}

// parseTimeStep reads the short form "<amount> <unit>", as in "2 hours"
func parseTimeStep(s string) (*TimeStep, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: expected \"<amount> <unit>\", got %q",
			ErrInvalidStep, s)
	}
	amount, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, err
	}
	return &TimeStep{Unit: fields[1], Amount: amount}, nil
}

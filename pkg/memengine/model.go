package memengine

import (
	"errors"
	"fmt"
	"time"

	"github.com/kode4food/bpmspec/internal/util"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// Model is an immutable description of a process definition. Every
	// builder method returns a new Model, so partial models can be shared
	// and extended safely
	Model struct {
		key     string
		name    string
		message string
		tenant  string
		nodes   []*Node
	}

	// Node is a single flow node. Nodes run in declaration order unless a
	// gateway routes elsewhere
	Node struct {
		service ServiceFunc
		route   RouteFunc
		ID      string
		Type    NodeType
		Calls   string
		Message string
		Delay   time.Duration
		Async   bool
		timer   bool
	}

	// NodeType is the history activity type recorded for a node
	NodeType string

	// ServiceFunc implements a service or script task. It receives a copy of
	// the instance variables and returns the variables to set
	ServiceFunc func(vars value.Variables) (value.Variables, error)

	// RouteFunc picks the id of the node a gateway continues with
	RouteFunc func(vars value.Variables) string
)

const (
	StartEvent        NodeType = "startEvent"
	UserTask          NodeType = "userTask"
	ServiceTask       NodeType = "serviceTask"
	ScriptTask        NodeType = "scriptTask"
	CallActivity      NodeType = "callActivity"
	IntermediateCatch NodeType = "intermediateCatchEvent"
	ExclusiveGateway  NodeType = "exclusiveGateway"
	EndEvent          NodeType = "endEvent"
)

var (
	ErrModelKeyRequired = errors.New("model key is required")
	ErrModelEmpty       = errors.New("model has no nodes")
	ErrNodeIDRequired   = errors.New("node id is required")
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrUnknownTarget    = errors.New("gateway routed to unknown node")
	ErrMissingRoute     = errors.New("gateway has no route")
	ErrMissingCallKey   = errors.New("call activity has no process key")
	ErrMissingMessage   = errors.New("message catch has no message name")
	ErrNegativeDelay    = errors.New("timer delay cannot be negative")
)

// NewModel starts a model for the given process definition key
func NewModel(key string) *Model {
	return &Model{key: key}
}

func (m *Model) Key() string {
	return m.key
}

// Nodes returns a copy of the model's nodes in declaration order
func (m *Model) Nodes() []Node {
	res := make([]Node, len(m.nodes))
	for i, n := range m.nodes {
		res[i] = *n
	}
	return res
}

// WithName sets a display name for the definition
func (m *Model) WithName(name string) *Model {
	res := *m
	res.name = name
	return &res
}

// WithMessageStart lets the definition be started by the named message
func (m *Model) WithMessageStart(message string) *Model {
	res := *m
	res.message = message
	return &res
}

// WithTenant deploys the definition for a single tenant
func (m *Model) WithTenant(tenant string) *Model {
	res := *m
	res.tenant = tenant
	return &res
}

func (m *Model) StartEvent(id string) *Model {
	return m.with(&Node{ID: id, Type: StartEvent})
}

// UserTask waits until the created task is completed
func (m *Model) UserTask(id string) *Model {
	return m.with(&Node{ID: id, Type: UserTask})
}

// ServiceTask runs fn synchronously. A nil fn does nothing
func (m *Model) ServiceTask(id string, fn ServiceFunc) *Model {
	return m.with(&Node{ID: id, Type: ServiceTask, service: fn})
}

// AsyncServiceTask schedules fn as a job that is due immediately
func (m *Model) AsyncServiceTask(id string, fn ServiceFunc) *Model {
	return m.with(&Node{
		ID: id, Type: ServiceTask, service: fn, Async: true,
	})
}

func (m *Model) ScriptTask(id string, fn ServiceFunc) *Model {
	return m.with(&Node{ID: id, Type: ScriptTask, service: fn})
}

// Timer waits until the engine clock has passed d from the time the node
// was reached and the resulting job has been executed
func (m *Model) Timer(id string, d time.Duration) *Model {
	return m.with(&Node{
		ID: id, Type: IntermediateCatch, Delay: d, timer: true,
	})
}

// CallActivity starts the latest definition of key as a child instance and
// waits for it to end
func (m *Model) CallActivity(id, key string) *Model {
	return m.with(&Node{ID: id, Type: CallActivity, Calls: key})
}

// MessageCatch waits until the named message is correlated
func (m *Model) MessageCatch(id, message string) *Model {
	return m.with(&Node{
		ID: id, Type: IntermediateCatch, Message: message,
	})
}

// Gateway continues with the node whose id route returns
func (m *Model) Gateway(id string, route RouteFunc) *Model {
	return m.with(&Node{ID: id, Type: ExclusiveGateway, route: route})
}

func (m *Model) EndEvent(id string) *Model {
	return m.with(&Node{ID: id, Type: EndEvent})
}

// Validate checks the model can be deployed
func (m *Model) Validate() error {
	if m.key == "" {
		return ErrModelKeyRequired
	}
	if len(m.nodes) == 0 {
		return fmt.Errorf("%w: %s", ErrModelEmpty, m.key)
	}
	seen := util.Set[string]{}
	for _, n := range m.nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: %s", ErrNodeIDRequired, m.key)
		}
		if seen.Contains(n.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		seen.Add(n.ID)

		switch {
		case n.Type == ExclusiveGateway && n.route == nil:
			return fmt.Errorf("%w: %s", ErrMissingRoute, n.ID)
		case n.Type == CallActivity && n.Calls == "":
			return fmt.Errorf("%w: %s", ErrMissingCallKey, n.ID)
		case n.timer && n.Delay < 0:
			return fmt.Errorf("%w: %s", ErrNegativeDelay, n.ID)
		case n.Type == IntermediateCatch && !n.timer && n.Message == "":
			return fmt.Errorf("%w: %s", ErrMissingMessage, n.ID)
		}
	}
	return nil
}

func (m *Model) with(n *Node) *Model {
	res := *m
	res.nodes = make([]*Node, len(m.nodes)+1)
	copy(res.nodes, m.nodes)
	res.nodes[len(m.nodes)] = n
	return &res
}

func (m *Model) indexOf(id string) (int, bool) {
	for i, n := range m.nodes {
		if n.ID == id {
			return i, true
		}
	}
	return 0, false
}

// IsTimer returns true for intermediate timer events
func (n *Node) IsTimer() bool {
	return n.timer
}

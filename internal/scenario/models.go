package scenario

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kode4food/bpmspec/pkg/api"
	"github.com/kode4food/bpmspec/pkg/memengine"
	"github.com/kode4food/bpmspec/pkg/value"
)

type (
	// ModelSpec declares a process for the in-memory engine. Nodes run in
	// order, each naming its type by the single id-bearing key it sets
	ModelSpec struct {
		Key     string     `yaml:"key"`
		Name    string     `yaml:"name"`
		Message string     `yaml:"message"`
		Tenant  string     `yaml:"tenant"`
		Nodes   []NodeSpec `yaml:"nodes"`
	}

	// NodeSpec is one flow node. Service, script and async nodes assign
	// the expressions in Set. Gateways take the first route whose
	// condition holds, or Default
	NodeSpec struct {
		Set     map[string]string `yaml:"set"`
		Start   string            `yaml:"start"`
		User    string            `yaml:"user"`
		Service string            `yaml:"service"`
		Script  string            `yaml:"script"`
		Async   string            `yaml:"async"`
		Timer   string            `yaml:"timer"`
		Call    string            `yaml:"call"`
		Catch   string            `yaml:"catch"`
		Gateway string            `yaml:"gateway"`
		End     string            `yaml:"end"`
		Process string            `yaml:"process"`
		Message string            `yaml:"message"`
		Default string            `yaml:"default"`
		Fail    string            `yaml:"fail"`
		Routes  []RouteSpec       `yaml:"routes"`
		After   time.Duration     `yaml:"after"`
	}

	// RouteSpec is a conditional gateway exit
	RouteSpec struct {
		When string `yaml:"when"`
		To   string `yaml:"to"`
	}

	// UserSpec registers an identity with the in-memory engine
	UserSpec struct {
		ID        string   `yaml:"id"`
		Password  string   `yaml:"password"`
		FirstName string   `yaml:"firstName"`
		LastName  string   `yaml:"lastName"`
		Email     string   `yaml:"email"`
		Groups    []string `yaml:"groups"`
	}

	assignment struct {
		prog *vm.Program
		name string
	}

	route struct {
		prog *vm.Program
		to   string
	}
)

var (
	ErrInvalidNode = errors.New("invalid node")
	ErrNodeFailed  = errors.New("node failed")
)

// Build turns the declaration into an engine model, compiling every
// expression
func (m *ModelSpec) Build() (*memengine.Model, error) {
	res := memengine.NewModel(m.Key)
	if m.Name != "" {
		res = res.WithName(m.Name)
	}
	if m.Message != "" {
		res = res.WithMessageStart(m.Message)
	}
	if m.Tenant != "" {
		res = res.WithTenant(m.Tenant)
	}
	for i := range m.Nodes {
		var err error
		res, err = m.Nodes[i].apply(res)
		if err != nil {
			return nil, fmt.Errorf("model %s: node %d: %w", m.Key, i+1, err)
		}
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func (n *NodeSpec) apply(m *memengine.Model) (*memengine.Model, error) {
	ids := 0
	for _, id := range []string{
		n.Start, n.User, n.Service, n.Script, n.Async, n.Timer, n.Call,
		n.Catch, n.Gateway, n.End,
	} {
		if id != "" {
			ids++
		}
	}
	if ids != 1 {
		return nil, fmt.Errorf("%w: exactly one node type is required",
			ErrInvalidNode)
	}

	switch {
	case n.Start != "":
		return m.StartEvent(n.Start), nil
	case n.User != "":
		return m.UserTask(n.User), nil
	case n.Timer != "":
		return m.Timer(n.Timer, n.After), nil
	case n.Call != "":
		return m.CallActivity(n.Call, n.Process), nil
	case n.Catch != "":
		return m.MessageCatch(n.Catch, n.Message), nil
	case n.End != "":
		return m.EndEvent(n.End), nil
	case n.Gateway != "":
		fn, err := n.router()
		if err != nil {
			return nil, err
		}
		return m.Gateway(n.Gateway, fn), nil
	}

	fn, err := n.service()
	if err != nil {
		return nil, err
	}
	switch {
	case n.Service != "":
		return m.ServiceTask(n.Service, fn), nil
	case n.Script != "":
		return m.ScriptTask(n.Script, fn), nil
	default:
		return m.AsyncServiceTask(n.Async, fn), nil
	}
}

// service compiles the assignments. A Fail message makes the task return
// an error once its assignments have been evaluated
func (n *NodeSpec) service() (memengine.ServiceFunc, error) {
	names := make([]string, 0, len(n.Set))
	for name := range n.Set {
		names = append(names, name)
	}
	slices.Sort(names)

	assigns := make([]assignment, len(names))
	for i, name := range names {
		prog, err := expr.Compile(n.Set[name],
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: set %s: %w", ErrInvalidNode, name, err)
		}
		assigns[i] = assignment{prog: prog, name: name}
	}

	fail := n.Fail
	return func(vars value.Variables) (value.Variables, error) {
		env := vars.Native()
		res := value.Variables{}
		for _, a := range assigns {
			out, err := expr.Run(a.prog, env)
			if err != nil {
				return nil, fmt.Errorf("set %s: %w", a.name, err)
			}
			res[a.name] = value.Of(out)
			env[a.name] = out
		}
		if fail != "" {
			return nil, fmt.Errorf("%w: %s", ErrNodeFailed, fail)
		}
		return res, nil
	}, nil
}

func (n *NodeSpec) router() (memengine.RouteFunc, error) {
	routes := make([]route, len(n.Routes))
	for i, r := range n.Routes {
		prog, err := expr.Compile(r.When,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: route %d: %w", ErrInvalidNode, i+1, err)
		}
		routes[i] = route{prog: prog, to: r.To}
	}

	def := n.Default
	return func(vars value.Variables) string {
		env := vars.Native()
		for _, r := range routes {
			if out, err := expr.Run(r.prog, env); err == nil && out == true {
				return r.to
			}
		}
		return def
	}, nil
}

// Deploy creates an in-memory engine holding the models and users
func Deploy(
	models []ModelSpec, users []UserSpec, opts ...memengine.Option,
) (*memengine.Engine, error) {
	eng := memengine.New(opts...)
	built := make([]*memengine.Model, 0, len(models))
	for i := range models {
		m, err := models[i].Build()
		if err != nil {
			return nil, err
		}
		built = append(built, m)
	}
	if err := eng.Deploy(built...); err != nil {
		return nil, err
	}
	for _, u := range users {
		err := eng.AddUser(api.User{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		}, u.Password, u.Groups...)
		if err != nil {
			return nil, err
		}
	}
	return eng, nil
}

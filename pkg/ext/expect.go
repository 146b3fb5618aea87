package ext

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/kode4food/bpmspec/pkg/spec"
)

// Expectation evaluates a boolean expr-lang expression against the
// collected variables of a scenario. Variables that were never collected
// evaluate to nil
type Expectation struct {
	expression string
}

var (
	ErrExpressionCompile = errors.New("expression compile error")
	ErrExpressionEval    = errors.New("expression evaluation error")
	ErrExpectationFailed = errors.New("expectation not met")
)

// Expect creates an Expectation for the given expression
func Expect(expression string) *Expectation {
	return &Expectation{expression: expression}
}

func (e *Expectation) ActionName() string {
	return fmt.Sprintf("expect %s", e.expression)
}

// Validate checks that the expression compiles
func (e *Expectation) Validate() error {
	_, err := e.compile()
	return err
}

func (e *Expectation) Execute(s *spec.Scenario) error {
	prog, err := e.compile()
	if err != nil {
		return err
	}

	env := s.Vars().Native()
	if p := s.ProcessInstance(); p != nil {
		env[instanceIDVar] = string(p.ID)
	}

	res, err := expr.Run(prog, env)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExpressionEval, err)
	}
	if ok, _ := res.(bool); !ok {
		return fmt.Errorf("%w: %s", ErrExpectationFailed, e.expression)
	}
	return nil
}

func (e *Expectation) compile() (*vm.Program, error) {
	prog, err := expr.Compile(e.expression,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExpressionCompile, err)
	}
	return prog, nil
}

// Package condition contains the boolean predicates which can be
// attached to splits, join edges and conditional activities.
//
// Process models never interpret condition text themselves; they only
// hold conditions and hand them to whatever evaluates the model.
// Expr is the default implementation, backed by CEL.
package condition

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// InputVariable is the name under which evaluation input
// is exposed to expressions, e.g. 'input.approved == true'.
const InputVariable = "input"

// Condition is a boolean predicate.
type Condition interface {
	// Evaluate the condition against some input.
	Evaluate(input any) (bool, error)
	fmt.Stringer
}

// Expr is a CEL expression evaluated with the default Env.
type Expr string

func (e Expr) Evaluate(input any) (bool, error) {
	env, err := Default()
	if err != nil {
		return false, err
	}
	return env.Evaluate(string(e), input)
}

func (e Expr) String() string {
	return string(e)
}

// Env compiles and evaluates expressions.
// Compiled programs are cached by expression text, so an Env
// can be shared between evaluations.
type Env struct {
	env *cel.Env

	mu       sync.Mutex
	programs map[string]cel.Program
}

// NewEnv creates an environment where the evaluation
// input is available as the 'input' variable.
func NewEnv() (*Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(InputVariable, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}
	return &Env{env: env, programs: map[string]cel.Program{}}, nil
}

var (
	defaultOnce sync.Once
	defaultEnv  *Env
	defaultErr  error
)

// Default returns the shared environment used by Expr.
func Default() (*Env, error) {
	defaultOnce.Do(func() {
		defaultEnv, defaultErr = NewEnv()
	})
	return defaultEnv, defaultErr
}

// Check type-checks an expression. The expression must
// return a boolean, or a dynamic value which is checked at evaluation time.
func (e *Env) Check(expr string) error {
	_, err := e.program(expr)
	return err
}

// Evaluate an expression against input. Input may be nil,
// a map[string]any, or a struct which is decoded to a map
// using its 'mapstructure' tags.
func (e *Env) Evaluate(expr string, input any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}

	data, err := activation(input)
	if err != nil {
		return false, err
	}

	val, _, err := prg.Eval(map[string]any{InputVariable: data})
	if err != nil {
		return false, errors.Wrapf(err, "evaluating %q", expr)
	}

	valbool, ok := val.Value().(bool)
	if !ok {
		return false, fmt.Errorf("could not convert CEL to bool: %s", val)
	}
	return valbool, nil
}

func (e *Env) program(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL type-check error: %s", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("CEL expression must return a boolean (returned %s instead)", ast.OutputType())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program construction error: %s", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// activation converts evaluation input into the map exposed as 'input'.
func activation(input any) (map[string]any, error) {
	switch t := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return t, nil
	}

	var out map[string]any
	err := mapstructure.Decode(input, &out)
	if err != nil {
		return nil, errors.Wrap(err, "decoding condition input")
	}
	return out, nil
}

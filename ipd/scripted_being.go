package ipd

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// DefaultScriptCostLimit bounds the evaluation cost of one decision.
const DefaultScriptCostLimit = 100_000

var (
	scriptEnvOnce sync.Once
	scriptEnv     *cel.Env
	scriptEnvErr  error
)

// strategyEnv declares the variables a strategy expression can read:
// history (list of {"us", "them"} maps, oldest first), COOPERATE and DEFECT.
func strategyEnv() (*cel.Env, error) {
	scriptEnvOnce.Do(func() {
		scriptEnv, scriptEnvErr = cel.NewEnv(
			cel.Variable("history", cel.ListType(cel.MapType(cel.StringType, cel.StringType))),
			cel.Variable("COOPERATE", cel.StringType),
			cel.Variable("DEFECT", cel.StringType),
		)
	})
	return scriptEnv, scriptEnvErr
}

// ScriptedBeing decides with a user-supplied CEL expression evaluated against
// the history with the counterpart, for example
//
//	size(history) == 0 ? COOPERATE : history[size(history) - 1].them
//
// The expression is compiled once; it must evaluate to COOPERATE or DEFECT.
type ScriptedBeing struct {
	memory
	name      string
	logic     string
	program   cel.Program
	costLimit uint64
}

var _ Being = (*ScriptedBeing)(nil)

// NewScriptedBeing compiles logic for a being named name ("Human" if empty).
// Empty logic yields a being whose Decide returns ErrNotImplemented.
func NewScriptedBeing(name, logic string) (*ScriptedBeing, error) {
	if name == "" {
		name = "Human"
	}
	b := &ScriptedBeing{
		memory:    newMemory(0),
		name:      name,
		costLimit: DefaultScriptCostLimit,
	}
	if err := b.SetLogic(logic); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ScriptedBeing) ID() string { return b.name }

// Logic returns the source of the current expression.
func (b *ScriptedBeing) Logic() string { return b.logic }

// SetLogic compiles and installs a new expression. On error the previous
// expression stays in place.
func (b *ScriptedBeing) SetLogic(logic string) error {
	if logic == "" {
		b.logic, b.program = "", nil
		return nil
	}
	env, err := strategyEnv()
	if err != nil {
		return fmt.Errorf("%w: environment: %v", ErrScript, err)
	}
	ast, iss := env.Compile(logic)
	if iss.Err() != nil {
		return fmt.Errorf("%w: compile %s: %v", ErrScript, b.name, iss.Err())
	}
	prg, err := env.Program(ast, cel.CostLimit(b.costLimit))
	if err != nil {
		return fmt.Errorf("%w: program %s: %v", ErrScript, b.name, err)
	}
	b.logic, b.program = logic, prg
	return nil
}

// Decide evaluates the expression. Evaluation failures and results other
// than COOPERATE or DEFECT are returned as ErrScript.
func (b *ScriptedBeing) Decide(counterpart string) (Action, error) {
	if b.program == nil {
		return 0, fmt.Errorf("%w: scripted being %s has no logic", ErrNotImplemented, b.name)
	}

	xs := b.history[counterpart]
	hist := make([]map[string]string, len(xs))
	for i, x := range xs {
		hist[i] = map[string]string{"us": x.Us.String(), "them": x.Them.String()}
	}

	out, _, err := b.program.Eval(map[string]any{
		"history":   hist,
		"COOPERATE": Cooperate.String(),
		"DEFECT":    Defect.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: evaluate %s: %v", ErrScript, b.name, err)
	}
	s, ok := out.Value().(string)
	if !ok {
		return 0, fmt.Errorf("%w: %s returned %v, want COOPERATE or DEFECT", ErrScript, b.name, out.Value())
	}
	a, err := ParseAction(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrScript, b.name, err)
	}
	return a, nil
}

// file: dispatch/guard.go
package dispatch

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/dkoosis/jsonrpcx/entity"
	"github.com/dkoosis/jsonrpcx/rpcerr"
)

// guard is an optional per-method CEL predicate evaluated against the call's
// params before the handler runs (SPEC_FULL §6). This is an authorization
// policy hook, not authentication, and is off unless a namespace opts in via
// Namespace.WithGuard.
type guard struct {
	expr string
	prg  cel.Program
}

func newGuard(expr string) (*guard, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.DynType),
		cel.Variable("method", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: guard env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dispatch: guard expression %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dispatch: guard program: %w", err)
	}
	return &guard{expr: expr, prg: prg}, nil
}

func (g *guard) check(method string, params entity.Params) error {
	activation := map[string]any{
		"method": method,
		"params": paramsToCEL(params),
	}
	out, _, err := g.prg.Eval(activation)
	if err != nil {
		return rpcerr.InvalidParams(method, fmt.Errorf("guard %q errored: %w", g.expr, err))
	}
	allowed, ok := out.Value().(bool)
	if !ok || !allowed {
		return rpcerr.InvalidParams(method, fmt.Errorf("rejected by guard %q", g.expr))
	}
	return nil
}

func paramsToCEL(p entity.Params) any {
	switch p.Kind {
	case entity.ParamsPositional:
		return p.Positional
	case entity.ParamsNamed:
		return p.Named
	case entity.ParamsRaw:
		return p.Raw
	default:
		return nil
	}
}

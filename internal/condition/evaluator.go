package condition

import (
	"fmt"
	"strings"
)

// Env supplies variable values during evaluation.
type Env interface {
	Lookup(name string) (float64, bool)
}

// Vars is a map-backed Env.
type Vars map[string]float64

func (v Vars) Lookup(name string) (float64, bool) {
	f, ok := v[name]
	return f, ok
}

// Evaluate walks the AST and returns true/false or an error.
func Evaluate(expr Expr, env Env) (bool, error) {
	switch e := expr.(type) {
	case *LogicalExpr:
		return evalLogical(e, env)
	case *NotExpr:
		v, err := Evaluate(e.Expr, env)
		if err != nil {
			return false, err
		}
		return !v, nil
	case *ComparisonExpr:
		l, err := Value(e.Left, env)
		if err != nil {
			return false, err
		}
		r, err := Value(e.Right, env)
		if err != nil {
			return false, err
		}
		return compare(e.Op, l, r)
	default:
		return false, fmt.Errorf("unknown expr type %T", expr)
	}
}

func evalLogical(e *LogicalExpr, env Env) (bool, error) {
	left, err := Evaluate(e.Left, env)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(e.Op) {
	case "AND":
		if !left {
			return false, nil
		}
		return Evaluate(e.Right, env)
	case "OR":
		if left {
			return true, nil
		}
		return Evaluate(e.Right, env)
	default:
		return false, fmt.Errorf("unknown logical op %q", e.Op)
	}
}

// Value computes a numeric term.
func Value(term Term, env Env) (float64, error) {
	switch t := term.(type) {
	case *Number:
		return t.Value, nil
	case *Variable:
		v, ok := env.Lookup(t.Name)
		if !ok {
			return 0, fmt.Errorf("variable %q not defined", t.Name)
		}
		return v, nil
	case *Neg:
		v, err := Value(t.Term, env)
		return -v, err
	case *Arith:
		l, err := Value(t.Left, env)
		if err != nil {
			return 0, err
		}
		r, err := Value(t.Right, env)
		if err != nil {
			return 0, err
		}
		return arith(t.Op, l, r)
	default:
		return 0, fmt.Errorf("unknown term type %T", term)
	}
}

// Check parses and evaluates src in one call.
func Check(src string, env Env) (bool, error) {
	expr, err := Parse(src)
	if err != nil {
		return false, fmt.Errorf("parse %q: %w", src, err)
	}
	return Evaluate(expr, env)
}

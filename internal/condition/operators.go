package condition

import (
	"fmt"
	"math"
)

// Operator represents a comparison operator.
type Operator string

const (
	OpEq  Operator = "=="
	OpNeq Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="
)

const epsilon = 1e-9

// compare applies a comparison operator to two numbers. Equality is
// tolerant to float rounding.
func compare(op Operator, l, r float64) (bool, error) {
	switch op {
	case OpEq:
		return math.Abs(l-r) < epsilon, nil
	case OpNeq:
		return math.Abs(l-r) >= epsilon, nil
	case OpGt:
		return l > r, nil
	case OpGte:
		return l >= r || math.Abs(l-r) < epsilon, nil
	case OpLt:
		return l < r, nil
	case OpLte:
		return l <= r || math.Abs(l-r) < epsilon, nil
	default:
		return false, fmt.Errorf("unknown operator: %s", op)
	}
}

func arith(op byte, l, r float64) (float64, error) {
	switch op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown arithmetic operator %q", op)
}

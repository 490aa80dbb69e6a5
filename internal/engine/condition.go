package engine

import (
	"math"

	"medform/internal/model"
)

// Evaluate reports whether cond holds for the current answers. A nil condition
// always holds. Only cond.ID is read from the store. An absent answer never
// equals anything, and ordering operators fail unless both sides are numeric.
func Evaluate(cond *model.Condition, answers model.AnswerStore) bool {
	if cond == nil {
		return true
	}
	left, _ := answers.Get(cond.ID)

	switch cond.Op {
	case model.OpEq:
		return equals(left, cond.Operand)
	case model.OpNeq:
		return !equals(left, cond.Operand)
	case model.OpGt, model.OpGte, model.OpLt, model.OpLte:
		return compare(cond.Op, left, cond.Operand)
	case model.OpIn:
		list, ok := cond.Operand.([]interface{})
		return ok && contains(list, left)
	case model.OpNin:
		list, ok := cond.Operand.([]interface{})
		return ok && !contains(list, left)
	default:
		return true
	}
}

// equals is strict: no coercion between kinds, and list answers never match a
// scalar operand.
func equals(v model.Value, operand interface{}) bool {
	switch v.Kind() {
	case model.KindNumber:
		n, _ := v.Number()
		f, ok := toFloat(operand)
		return ok && n == f
	case model.KindText:
		s, _ := v.Text()
		o, ok := operand.(string)
		return ok && s == o
	case model.KindBool:
		b, _ := v.Bool()
		o, ok := operand.(bool)
		return ok && b == o
	default:
		return false
	}
}

func compare(op model.Operator, v model.Value, operand interface{}) bool {
	n, ok := v.Number()
	if !ok || math.IsNaN(n) {
		return false
	}
	bound, ok := toFloat(operand)
	if !ok {
		return false
	}
	switch op {
	case model.OpGt:
		return n > bound
	case model.OpGte:
		return n >= bound
	case model.OpLt:
		return n < bound
	case model.OpLte:
		return n <= bound
	}
	return false
}

func contains(list []interface{}, v model.Value) bool {
	for _, item := range list {
		if equals(v, item) {
			return true
		}
	}
	return false
}

func toFloat(x interface{}) (float64, bool) {
	switch t := x.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

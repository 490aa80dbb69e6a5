package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operator is a comparison applied by a Condition
type Operator string

const (
	OpEq  Operator = "eq"
	OpNeq Operator = "neq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
	OpNin Operator = "nin"
)

// Operators lists every recognised operator
var Operators = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin}

var (
	ErrConditionMissingID   = errors.New("condition has no id")
	ErrConditionMultipleOps = errors.New("condition declares more than one operator")
)

// Condition is a single-operator predicate over one referenced answer.
// On the wire it is a flat object: {"id": "age", "gte": 18}.
type Condition struct {
	ID      string
	Op      Operator    // empty when no recognised operator was given
	Operand interface{} // decoded JSON: float64, string, bool, nil or []interface{}
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("condition: %w", err)
	}

	rawID, ok := fields["id"]
	if !ok {
		return ErrConditionMissingID
	}
	if err := json.Unmarshal(rawID, &c.ID); err != nil || c.ID == "" {
		return ErrConditionMissingID
	}

	c.Op = ""
	c.Operand = nil
	for _, op := range Operators {
		raw, ok := fields[string(op)]
		if !ok {
			continue
		}
		if c.Op != "" {
			return fmt.Errorf("%w: %s and %s", ErrConditionMultipleOps, c.Op, op)
		}
		var operand interface{}
		if err := json.Unmarshal(raw, &operand); err != nil {
			return fmt.Errorf("condition %s: %w", op, err)
		}
		c.Op = op
		c.Operand = operand
	}
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"id": c.ID}
	if c.Op != "" {
		out[string(c.Op)] = c.Operand
	}
	return json.Marshal(out)
}

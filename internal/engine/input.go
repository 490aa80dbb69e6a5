package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"medform/internal/model"
)

// ValueFromInput turns a raw input (as decoded from a JSON request body or
// read from a terminal) into an answer value for q. Blank inputs become "no
// answer"; inputs of the wrong shape keep their own kind so that Validate
// reports them.
func ValueFromInput(q *model.Question, raw interface{}) model.Value {
	if raw == nil {
		return model.Value{}
	}

	switch q.Type {
	case model.QuestionTypeNumber:
		if s, ok := raw.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return model.Value{}
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return model.NumberValue(math.NaN())
			}
			return model.NumberValue(f)
		}

	case model.QuestionTypeText:
		if s, ok := raw.(string); ok {
			return model.TextValue(s)
		}
		if v, err := model.ValueOf(raw); err == nil && (v.Kind() == model.KindNumber || v.Kind() == model.KindBool) {
			return model.TextValue(v.String())
		}

	case model.QuestionTypeSelect:
		switch t := raw.(type) {
		case string:
			if t == "" {
				return model.Value{}
			}
			return model.TextValue(t)
		case float64, bool:
			return model.TextValue(mustValue(t).String())
		}

	case model.QuestionTypeMultiSelect:
		if list, ok := raw.([]interface{}); ok {
			items := make([]string, 0, len(list))
			for _, item := range list {
				items = append(items, mustValue(item).String())
			}
			return model.ListValue(items)
		}

	case model.QuestionTypeBoolean:
		if s, ok := raw.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "":
				return model.Value{}
			case "true":
				return model.BoolValue(true)
			case "false":
				return model.BoolValue(false)
			}
		}
	}

	return mustValue(raw)
}

func mustValue(raw interface{}) model.Value {
	v, err := model.ValueOf(raw)
	if err != nil {
		return model.TextValue(fmt.Sprint(raw))
	}
	return v
}

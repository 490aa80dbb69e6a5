package model

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value
type ValueKind int

const (
	KindNone ValueKind = iota
	KindNumber
	KindText
	KindBool
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	default:
		return "none"
	}
}

// Value is an answer: a number, a string, a boolean or an ordered list of
// strings. The zero Value means "no answer".
type Value struct {
	kind ValueKind
	num  float64
	text string
	flag bool
	list []string
}

func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }
func TextValue(s string) Value    { return Value{kind: KindText, text: s} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, flag: b} }

// ListValue copies items so later changes to the caller's slice don't leak in
func ListValue(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }
func (v Value) Text() (string, bool)    { return v.text, v.kind == KindText }
func (v Value) Bool() (bool, bool)      { return v.flag, v.kind == KindBool }

func (v Value) List() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// IsEmpty reports "no answer": absent, whitespace-only text or an empty list
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNone:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	case KindList:
		return len(v.list) == 0
	default:
		return false
	}
}

// String renders the value as plain text
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

// Interface returns the plain Go form used for storage and export
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil
		}
		return v.num
	case KindText:
		return v.text
	case KindBool:
		return v.flag
	case KindList:
		items, _ := v.List()
		return items
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a decoded JSON value into a Value
func ValueOf(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case float64:
		return NumberValue(t), nil
	case int:
		return NumberValue(float64(t)), nil
	case string:
		return TextValue(t), nil
	case bool:
		return BoolValue(t), nil
	case []string:
		return ListValue(t), nil
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("list answers hold strings, got %T", item)
			}
			items = append(items, s)
		}
		return ListValue(items), nil
	default:
		return Value{}, fmt.Errorf("unsupported answer type %T", raw)
	}
}

// AnswerStore maps question id to answer. Unanswered questions have no entry.
type AnswerStore map[string]Value

func (a AnswerStore) Get(id string) (Value, bool) {
	v, ok := a[id]
	return v, ok
}

func (a AnswerStore) Set(id string, v Value) {
	a[id] = v
}

func (a AnswerStore) Delete(id string) {
	delete(a, id)
}

// Keys returns the answered question ids, sorted
func (a AnswerStore) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a AnswerStore) Clone() AnswerStore {
	out := make(AnswerStore, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Plain converts the store to plain Go values for persistence
func (a AnswerStore) Plain() map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}

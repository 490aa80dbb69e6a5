package engine

import (
	"math"
	"testing"

	"medform/internal/model"

	"github.com/stretchr/testify/assert"
)

func listOf(items []string) model.Value {
	return model.ListValue(items)
}

func TestValueFromInput(t *testing.T) {
	number := &model.Question{ID: "n", Type: model.QuestionTypeNumber}
	text := &model.Question{ID: "t", Type: model.QuestionTypeText}
	sel := &model.Question{ID: "s", Type: model.QuestionTypeSelect}
	multi := &model.Question{ID: "m", Type: model.QuestionTypeMultiSelect}
	boolean := &model.Question{ID: "b", Type: model.QuestionTypeBoolean}

	tests := []struct {
		name string
		q    *model.Question
		raw  interface{}
		want model.Value
	}{
		{"nil", number, nil, model.Value{}},
		{"number from float", number, 12.5, model.NumberValue(12.5)},
		{"number from string", number, " 70 ", model.NumberValue(70)},
		{"number blank", number, "  ", model.Value{}},
		{"number from bool keeps kind", number, true, model.BoolValue(true)},
		{"text", text, "hello", model.TextValue("hello")},
		{"text from number", text, float64(3), model.TextValue("3")},
		{"select", sel, "f", model.TextValue("f")},
		{"select blank", sel, "", model.Value{}},
		{"select numeric option", sel, float64(2), model.TextValue("2")},
		{"multi", multi, []interface{}{"a", "b"}, model.ListValue([]string{"a", "b"})},
		{"multi numeric items", multi, []interface{}{float64(1)}, model.ListValue([]string{"1"})},
		{"multi empty", multi, []interface{}{}, model.ListValue([]string{})},
		{"bool", boolean, false, model.BoolValue(false)},
		{"bool from string", boolean, "TRUE", model.BoolValue(true)},
		{"bool blank", boolean, "", model.Value{}},
		{"bool garbage keeps kind", boolean, "maybe", model.TextValue("maybe")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValueFromInput(tt.q, tt.raw))
		})
	}
}

func TestValueFromInput_UnparsableNumber(t *testing.T) {
	q := &model.Question{ID: "n", Type: model.QuestionTypeNumber, Required: true}
	v := ValueFromInput(q, "abc")

	n, ok := v.Number()
	assert.True(t, ok)
	assert.True(t, math.IsNaN(n))

	err := Validate(q, v, model.AnswerStore{})
	if assert.NotNil(t, err) {
		assert.Equal(t, CodeNotANumber, err.Code)
	}
}

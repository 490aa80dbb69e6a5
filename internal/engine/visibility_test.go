package engine

import (
	"math/rand"
	"testing"

	"medform/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestVisibleIDs(t *testing.T) {
	spec := mustParse(t, patientSpecJSON)

	tests := []struct {
		name    string
		answers model.AnswerStore
		want    []string
	}{
		{"no answers", model.AnswerStore{}, []string{"age", "symptoms", "notes"}},
		{"minor", model.AnswerStore{"age": model.NumberValue(15)}, []string{"age", "symptoms", "notes"}},
		{"adult", model.AnswerStore{"age": model.NumberValue(25)}, []string{"age", "symptoms", "smoker", "notes"}},
		{"adult smoker", model.AnswerStore{
			"age":    model.NumberValue(25),
			"smoker": model.BoolValue(true),
		}, []string{"age", "symptoms", "smoker", "cigs", "notes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibleIDs(spec.Questions, tt.answers))
		})
	}
}

func TestPruneHidden(t *testing.T) {
	answers := model.AnswerStore{
		"age":   model.NumberValue(15),
		"stale": model.TextValue("x"),
	}
	assert.True(t, PruneHidden(answers, []string{"age"}))
	assert.Equal(t, []string{"age"}, answers.Keys())
	assert.False(t, PruneHidden(answers, []string{"age"}))
}

func TestRecompute_HidesStaleDependent(t *testing.T) {
	spec := mustParse(t, `{"questionnaire_id":"x","version":"1","questions":[
		{"id":"age","type":"number","order":1,"required":true,"constraints":{"min":0,"max":120}},
		{"id":"q2","type":"text","order":2,"show_if":{"id":"age","gte":18}}
	]}`)

	answers := model.AnswerStore{"age": model.NumberValue(15), "q2": model.TextValue("x")}
	visible := Recompute(spec.Questions, answers)

	assert.Equal(t, []string{"age"}, visible)
	_, ok := answers.Get("q2")
	assert.False(t, ok)
}

func TestRecompute_ChainedConditions(t *testing.T) {
	spec := mustParse(t, patientSpecJSON)
	answers := model.AnswerStore{
		"age":    model.NumberValue(15),
		"smoker": model.BoolValue(true),
		"cigs":   model.NumberValue(10),
	}

	// smoker is hidden by age; cigs depends on smoker and must go with it
	visible := Recompute(spec.Questions, answers)

	assert.Equal(t, []string{"age", "symptoms", "notes"}, visible)
	assert.Equal(t, []string{"age"}, answers.Keys())
}

func TestRecompute_KeysAlwaysVisible(t *testing.T) {
	spec := mustParse(t, patientSpecJSON)
	rng := rand.New(rand.NewSource(7))
	answers := model.AnswerStore{}

	candidates := map[string][]model.Value{
		"age":      {model.NumberValue(10), model.NumberValue(18), model.NumberValue(45)},
		"smoker":   {model.BoolValue(true), model.BoolValue(false)},
		"cigs":     {model.NumberValue(3), model.NumberValue(20)},
		"symptoms": {model.ListValue([]string{"a"}), model.ListValue([]string{"none"})},
		"notes":    {model.TextValue("hi")},
	}
	ids := []string{"age", "smoker", "cigs", "symptoms", "notes"}

	for i := 0; i < 500; i++ {
		id := ids[rng.Intn(len(ids))]
		if rng.Intn(4) == 0 {
			answers.Delete(id)
		} else {
			vals := candidates[id]
			answers.Set(id, vals[rng.Intn(len(vals))])
		}

		visible := Recompute(spec.Questions, answers)
		set := map[string]bool{}
		for _, v := range visible {
			set[v] = true
		}
		for _, k := range answers.Keys() {
			assert.True(t, set[k], "answer %q kept for hidden question after step %d", k, i)
		}
		assert.Equal(t, visible, VisibleIDs(spec.Questions, answers), "recompute must be stable")
	}
}

func TestIsRequired(t *testing.T) {
	always := &model.Condition{ID: "flag", Op: model.OpEq, Operand: true}

	tests := []struct {
		name     string
		required bool
		cond     *model.Condition
		answers  model.AnswerStore
		want     bool
	}{
		{"static true", true, nil, model.AnswerStore{}, true},
		{"static false", false, nil, model.AnswerStore{}, false},
		{"condition true overrides static false", false, always, model.AnswerStore{"flag": model.BoolValue(true)}, true},
		{"condition false overrides static true", true, always, model.AnswerStore{"flag": model.BoolValue(false)}, false},
		{"condition true with static true", true, always, model.AnswerStore{"flag": model.BoolValue(true)}, true},
		{"condition on absent answer", true, always, model.AnswerStore{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &model.Question{ID: "q", Required: tt.required, RequiredIf: tt.cond}
			assert.Equal(t, tt.want, IsRequired(q, tt.answers))
		})
	}
}

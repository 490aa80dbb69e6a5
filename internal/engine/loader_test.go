package engine

import (
	"os"
	"path/filepath"
	"testing"

	"medform/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SortsByOrder(t *testing.T) {
	spec := mustParse(t, patientSpecJSON)

	ids := make([]string, 0, len(spec.Questions))
	for _, q := range spec.Questions {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"age", "symptoms", "smoker", "cigs", "notes"}, ids)
	assert.Equal(t, "patient_form", spec.QuestionnaireID)
	assert.Equal(t, "1", spec.Version)
}

func TestParse_StableForTies(t *testing.T) {
	spec := mustParse(t, `{"questionnaire_id":"x","version":"1","questions":[
		{"id":"b","type":"text","order":1},
		{"id":"a","type":"text","order":1},
		{"id":"c","type":"text"},
		{"id":"d","type":"text","order":1}
	]}`)

	var ids []string
	for _, q := range spec.Questions {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		opts    LoadOptions
		wantErr error
	}{
		{"not json", `{`, LoadOptions{}, ErrSpecInvalid},
		{"missing questions", `{"questionnaire_id":"x","version":"1"}`, LoadOptions{}, ErrSpecInvalid},
		{"questions not a list", `{"questionnaire_id":"x","version":"1","questions":{}}`, LoadOptions{}, ErrSpecInvalid},
		{"null questions", `{"questionnaire_id":"x","version":"1","questions":null}`, LoadOptions{}, ErrSpecInvalid},
		{"missing id", `{"version":"1","questions":[]}`, LoadOptions{}, ErrSpecInvalid},
		{"missing version", `{"questionnaire_id":"x","questions":[]}`, LoadOptions{}, ErrSpecInvalid},
		{"mismatch", `{"questionnaire_id":"x","version":"1","questions":[]}`, LoadOptions{ExpectedID: "patient_form"}, ErrSpecMismatch},
		{"duplicate ids", `{"questionnaire_id":"x","version":"1","questions":[{"id":"a"},{"id":"a"}]}`, LoadOptions{}, ErrSpecInvalid},
		{"empty id", `{"questionnaire_id":"x","version":"1","questions":[{"label":"no id"}]}`, LoadOptions{}, ErrSpecInvalid},
		{"two operators", `{"questionnaire_id":"x","version":"1","questions":[
			{"id":"a","type":"number"},
			{"id":"b","type":"text","show_if":{"id":"a","gt":1,"lt":5}}
		]}`, LoadOptions{}, ErrSpecInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse([]byte(tt.doc), tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, spec)
		})
	}
}

func TestParse_MatchingExpectedID(t *testing.T) {
	spec, err := Parse([]byte(patientSpecJSON), LoadOptions{ExpectedID: "patient_form"})
	require.NoError(t, err)
	assert.Len(t, spec.Questions, 5)
}

func TestParse_Lenient(t *testing.T) {
	spec := mustParse(t, `{"questionnaire_id":"x","version":3,"questions":[
		{"id":"a","type":"slider","order":1},
		{"id":"b","type":"select","options":[{"value":1,"label":"One"},{"value":true,"label":"Yes"}]}
	]}`)

	assert.Equal(t, "3", spec.Version)
	assert.Equal(t, model.QuestionType("slider"), spec.Questions[1].Type)
	assert.Equal(t, []string{"1", "true"}, question(t, spec, "b").OptionValues())
}

func TestParse_Conditions(t *testing.T) {
	spec := mustParse(t, patientSpecJSON)

	smoker := question(t, spec, "smoker")
	require.NotNil(t, smoker.ShowIf)
	assert.Equal(t, "age", smoker.ShowIf.ID)
	assert.Equal(t, model.OpGte, smoker.ShowIf.Op)
	assert.Equal(t, float64(18), smoker.ShowIf.Operand)

	cigs := question(t, spec, "cigs")
	require.NotNil(t, cigs.RequiredIf)
	assert.Equal(t, model.OpGte, cigs.RequiredIf.Op)
	assert.Nil(t, question(t, spec, "age").ShowIf)
}

func TestParseYAML(t *testing.T) {
	doc := `
questionnaire_id: patient_form
version: "2"
questions:
  - id: age
    label: Age
    type: number
    order: 2
    constraints: {min: 0, max: 120}
  - id: consent
    label: I agree
    type: boolean
    order: 1
    required: true
    labels: {"true": "I agree", "false": "I do not agree"}
  - id: adult_note
    type: text
    order: 3
    show_if: {id: age, gte: 18}
`
	spec, err := ParseYAML([]byte(doc), LoadOptions{ExpectedID: "patient_form"})
	require.NoError(t, err)

	assert.Equal(t, "2", spec.Version)
	assert.Equal(t, "consent", spec.Questions[0].ID)
	assert.Equal(t, "I do not agree", spec.Questions[0].Labels.Caption(false))
	require.NotNil(t, spec.Questions[1].Constraints.Max)
	assert.Equal(t, 120.0, *spec.Questions[1].Constraints.Max)
	assert.Equal(t, float64(18), spec.Questions[2].ShowIf.Operand)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	require.NoError(t, os.WriteFile(path, []byte(patientSpecJSON), 0o644))

	spec, err := LoadFile(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "patient_form", spec.QuestionnaireID)

	_, err = LoadFile(filepath.Join(dir, "missing.json"), LoadOptions{})
	assert.Error(t, err)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"medform/internal/model"

	"github.com/stretchr/testify/require"
)

const patientSpecJSON = `{
  "questionnaire_id": "patient_form",
  "version": "1",
  "questions": [
    {"id": "notes", "label": "Notes", "type": "text", "order": 5, "constraints": {"maxLength": 200}},
    {"id": "age", "label": "Age", "type": "number", "order": 1, "required": true,
     "constraints": {"min": 0, "max": 120}},
    {"id": "smoker", "label": "Do you smoke?", "type": "boolean", "order": 3, "required": true,
     "show_if": {"id": "age", "gte": 18}},
    {"id": "cigs", "label": "Cigarettes per day", "type": "number", "order": 4,
     "show_if": {"id": "smoker", "eq": true}, "required_if": {"id": "age", "gte": 30}},
    {"id": "symptoms", "label": "Symptoms", "type": "multiselect", "order": 2,
     "options": [
       {"value": "a", "label": "Cough"},
       {"value": "b", "label": "Fever"},
       {"value": "c", "label": "Fatigue"},
       {"value": "none", "label": "None of these"}
     ],
     "constraints": {"exclusiveOptions": ["none"]}}
  ]
}`

func mustParse(t *testing.T, doc string) *model.Specification {
	t.Helper()
	spec, err := Parse([]byte(doc), LoadOptions{})
	require.NoError(t, err)
	return spec
}

func question(t *testing.T, spec *model.Specification, id string) *model.Question {
	t.Helper()
	q := spec.Question(id)
	require.NotNil(t, q, "question %s", id)
	return q
}

type fakeSubmitter struct {
	err   error
	calls []*model.Submission
}

func (f *fakeSubmitter) Submit(_ context.Context, sub *model.Submission) (*model.SubmitReceipt, error) {
	f.calls = append(f.calls, sub)
	if f.err != nil {
		return nil, f.err
	}
	return &model.SubmitReceipt{ResponseID: fmt.Sprintf("resp-%d", len(f.calls))}, nil
}

var errSinkDown = errors.New("sink unavailable")

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

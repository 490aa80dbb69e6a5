package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionType defines how a question is answered and validated
type QuestionType string

const (
	QuestionTypeNumber      QuestionType = "number"
	QuestionTypeText        QuestionType = "text"
	QuestionTypeSelect      QuestionType = "select"
	QuestionTypeMultiSelect QuestionType = "multiselect"
	QuestionTypeBoolean     QuestionType = "boolean"
)

// Specification is one version of a questionnaire, with questions sorted by order
type Specification struct {
	QuestionnaireID string     `json:"questionnaire_id"`
	Version         string     `json:"version"`
	Questions       []Question `json:"questions"`
}

// Question returns the question with the given id, or nil
func (s *Specification) Question(id string) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

// Question is a single question definition
type Question struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Type        QuestionType   `json:"type"`
	Order       int            `json:"order"`
	Help        string         `json:"help,omitempty"`
	Required    bool           `json:"required,omitempty"`
	RequiredIf  *Condition     `json:"required_if,omitempty"` // Overrides Required when present
	ShowIf      *Condition     `json:"show_if,omitempty"`
	Options     []Option       `json:"options,omitempty"` // select / multiselect only
	Constraints Constraints    `json:"constraints,omitempty"`
	Labels      *BooleanLabels `json:"labels,omitempty"`
}

// OptionValues returns the declared option values in order
func (q *Question) OptionValues() []string {
	values := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		values = append(values, string(o.Value))
	}
	return values
}

// OptionLabel returns the display label for an option value, falling back to the value itself
func (q *Question) OptionLabel(value string) string {
	for _, o := range q.Options {
		if string(o.Value) == value {
			return o.Label
		}
	}
	return value
}

// Option is one choice of a select or multiselect question
type Option struct {
	Value OptionValue `json:"value"`
	Label string      `json:"label"`
}

// Constraints are type-specific limits; nil pointers mean "not declared"
type Constraints struct {
	Min              *float64      `json:"min,omitempty"`       // number
	Max              *float64      `json:"max,omitempty"`       // number
	Step             *float64      `json:"step,omitempty"`      // number, display only
	MinLength        *int          `json:"minLength,omitempty"` // text
	MaxLength        *int          `json:"maxLength,omitempty"` // text
	Pattern          *string       `json:"pattern,omitempty"`   // text
	ExclusiveOptions []OptionValue `json:"exclusiveOptions,omitempty"`
}

// IsExclusive reports whether value is declared as an exclusive option
func (c *Constraints) IsExclusive(value string) bool {
	for _, v := range c.ExclusiveOptions {
		if string(v) == value {
			return true
		}
	}
	return false
}

// BooleanLabels override the captions of boolean answers
type BooleanLabels struct {
	True  string `json:"true,omitempty"`
	False string `json:"false,omitempty"`
}

// Caption returns the caption for b, defaulting to Yes/No
func (l *BooleanLabels) Caption(b bool) string {
	if b {
		if l != nil && l.True != "" {
			return l.True
		}
		return "Yes"
	}
	if l != nil && l.False != "" {
		return l.False
	}
	return "No"
}

// OptionValue is an option identifier. Specifications may declare option values
// as strings, numbers or booleans; they are normalised to their textual form.
type OptionValue string

func (v *OptionValue) UnmarshalJSON(data []byte) error {
	s, err := ScalarString(data)
	if err != nil {
		return fmt.Errorf("option value: %w", err)
	}
	*v = OptionValue(s)
	return nil
}

// ScalarString decodes a JSON string, number or boolean into its textual form
func ScalarString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", err
	}
	switch t := raw.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", fmt.Errorf("expected a scalar, got %s", string(data))
	}
}

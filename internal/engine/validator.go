package engine

import (
	"math"
	"regexp"
	"strconv"
	"unicode/utf8"

	"medform/internal/model"
)

// Validate checks value against q. Requiredness is evaluated against answers.
// Empty optional values pass without type checks; unknown question types
// always pass. The result depends only on its arguments.
func Validate(q *model.Question, value model.Value, answers model.AnswerStore) *ValidationError {
	required := IsRequired(q, answers)
	empty := value.IsEmpty()

	if empty {
		if required {
			return invalid(q.ID, CodeRequired, "This field is required.")
		}
		return nil
	}

	c := &q.Constraints
	switch q.Type {
	case model.QuestionTypeNumber:
		return validateNumber(q.ID, value, c)
	case model.QuestionTypeText:
		return validateText(q.ID, value, c)
	case model.QuestionTypeSelect:
		s, ok := value.Text()
		if !ok || !hasOption(q, s) {
			return invalid(q.ID, CodeInvalidOption, "Choose an option from the list.")
		}
		return nil
	case model.QuestionTypeMultiSelect:
		return validateMulti(q, value)
	case model.QuestionTypeBoolean:
		if value.Kind() != model.KindBool {
			return invalid(q.ID, CodeNotABoolean, "Choose %s or %s.", q.Labels.Caption(true), q.Labels.Caption(false))
		}
		return nil
	default:
		return nil
	}
}

func validateNumber(id string, value model.Value, c *model.Constraints) *ValidationError {
	n, ok := value.Number()
	if !ok || math.IsNaN(n) {
		return invalid(id, CodeNotANumber, "Enter a number.")
	}
	if c.Min != nil && n < *c.Min {
		return invalid(id, CodeBelowMin, "Minimum: %s.", formatNumber(*c.Min))
	}
	if c.Max != nil && n > *c.Max {
		return invalid(id, CodeAboveMax, "Maximum: %s.", formatNumber(*c.Max))
	}
	return nil
}

func validateText(id string, value model.Value, c *model.Constraints) *ValidationError {
	s := value.String()
	length := utf8.RuneCountInString(s)
	if c.MinLength != nil && length < *c.MinLength {
		return invalid(id, CodeTooShort, "At least %d characters.", *c.MinLength)
	}
	if c.MaxLength != nil && length > *c.MaxLength {
		return invalid(id, CodeTooLong, "At most %d characters.", *c.MaxLength)
	}
	if c.Pattern != nil {
		re, err := regexp.Compile(*c.Pattern)
		if err != nil {
			return invalid(id, CodePatternInvalid, "This question has an invalid format rule.")
		}
		if !re.MatchString(s) {
			return invalid(id, CodePatternMismatch, "Invalid format.")
		}
	}
	return nil
}

// validateMulti enforces membership and the exclusive-option rule: an
// exclusive value may only ever be selected on its own.
func validateMulti(q *model.Question, value model.Value) *ValidationError {
	items, ok := value.List()
	if !ok {
		return invalid(q.ID, CodeNotAList, "Choose one or more options.")
	}
	for _, item := range items {
		if !hasOption(q, item) {
			return invalid(q.ID, CodeInvalidOption, "Choose options from the list.")
		}
	}
	if len(items) > 1 {
		for _, item := range items {
			if q.Constraints.IsExclusive(item) {
				return invalid(q.ID, CodeExclusiveConflict, "%q cannot be combined with other options.", q.OptionLabel(item))
			}
		}
	}
	return nil
}

func hasOption(q *model.Question, value string) bool {
	for _, o := range q.Options {
		if string(o.Value) == value {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

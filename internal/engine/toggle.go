package engine

import "medform/internal/model"

// ToggleOption applies one checkbox change to a multiselect selection and
// keeps exclusive options exclusive: turning an exclusive option on leaves it
// alone in the selection, turning any other option on drops every exclusive
// one. The result follows the declared option order. Validate remains the
// authority on committed values.
func ToggleOption(q *model.Question, current []string, value string, on bool) []string {
	selected := make(map[string]bool, len(current)+1)
	for _, v := range current {
		selected[v] = true
	}

	switch {
	case !on:
		delete(selected, value)
	case q.Constraints.IsExclusive(value):
		selected = map[string]bool{value: true}
	default:
		for v := range selected {
			if q.Constraints.IsExclusive(v) {
				delete(selected, v)
			}
		}
		selected[value] = true
	}

	out := make([]string, 0, len(selected))
	for _, v := range q.OptionValues() {
		if selected[v] {
			out = append(out, v)
			delete(selected, v)
		}
	}
	// Undeclared values keep their relative order; Validate rejects them later.
	for _, v := range append(append([]string{}, current...), value) {
		if selected[v] {
			out = append(out, v)
			delete(selected, v)
		}
	}
	return out
}

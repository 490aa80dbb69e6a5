package engine

import "medform/internal/model"

// VisibleIDs returns the ids of questions whose show_if holds, in
// specification order.
func VisibleIDs(questions []model.Question, answers model.AnswerStore) []string {
	ids := make([]string, 0, len(questions))
	for i := range questions {
		if Evaluate(questions[i].ShowIf, answers) {
			ids = append(ids, questions[i].ID)
		}
	}
	return ids
}

// PruneHidden deletes every answer whose question is not in visibleIDs and
// reports whether anything was removed.
func PruneHidden(answers model.AnswerStore, visibleIDs []string) bool {
	visible := make(map[string]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		visible[id] = struct{}{}
	}
	pruned := false
	for id := range answers {
		if _, ok := visible[id]; !ok {
			delete(answers, id)
			pruned = true
		}
	}
	return pruned
}

// Recompute derives the visible list and prunes hidden answers until neither
// changes. A pruned answer can hide questions that depend on it, so a single
// pass is not enough for chained conditions. Answers only ever shrink, which
// bounds the loop.
func Recompute(questions []model.Question, answers model.AnswerStore) []string {
	for {
		ids := VisibleIDs(questions, answers)
		if !PruneHidden(answers, ids) {
			return ids
		}
	}
}

// IsRequired returns the required_if result when present, otherwise the
// static required flag.
func IsRequired(q *model.Question, answers model.AnswerStore) bool {
	if q.RequiredIf != nil {
		return Evaluate(q.RequiredIf, answers)
	}
	return q.Required
}

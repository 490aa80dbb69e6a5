package model

import "time"

// SessionState is the position of a respondent in the questionnaire lifecycle
type SessionState string

const (
	StateAtCode     SessionState = "at_code"     // collecting respondent code
	StateAtQuestion SessionState = "at_question" // stepping through visible questions
	StateSubmitting SessionState = "submitting"  // submit call in flight
	StateDone       SessionState = "done"
)

// Session is one respondent's pass through a questionnaire. It is owned by a
// single caller at a time; the engine mutates it in place.
type Session struct {
	ID                   string       `json:"id"`
	QuestionnaireID      string       `json:"questionnaire_id"`
	QuestionnaireVersion string       `json:"questionnaire_version"`
	Code                 string       `json:"code"`
	State                SessionState `json:"state"`
	CurrentIndex         int          `json:"current_index"`
	VisibleIDs           []string     `json:"visible_ids"`
	Answers              AnswerStore  `json:"answers"`
	LastError            string       `json:"last_error,omitempty"` // last submission failure, cleared on success
	ResponseID           string       `json:"response_id,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// NewSession returns a session waiting for the respondent code
func NewSession(id string, spec *Specification) *Session {
	now := time.Now()
	return &Session{
		ID:                   id,
		QuestionnaireID:      spec.QuestionnaireID,
		QuestionnaireVersion: spec.Version,
		State:                StateAtCode,
		Answers:              AnswerStore{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// IsLastStep reports whether the current index is the final visible question.
// An empty visible list counts as the final step.
func (s *Session) IsLastStep() bool {
	return s.CurrentIndex >= len(s.VisibleIDs)-1
}

// CurrentID returns the id of the question at the current index, or ""
func (s *Session) CurrentID() string {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.VisibleIDs) {
		return ""
	}
	return s.VisibleIDs[s.CurrentIndex]
}

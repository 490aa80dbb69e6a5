package model

import "time"

// ResponseSubmittedEvent is pushed to admins when a questionnaire is submitted
type ResponseSubmittedEvent struct {
	ResponseID           string    `json:"response_id,omitempty"`
	QuestionnaireID      string    `json:"questionnaire_id"`
	QuestionnaireVersion string    `json:"questionnaire_version"`
	SubmittedAt          time.Time `json:"submitted_at"`
}

// SpecPublishedEvent is pushed to admins when a new specification goes live
type SpecPublishedEvent struct {
	QuestionnaireID string    `json:"questionnaire_id"`
	Version         string    `json:"version"`
	PublishedAt     time.Time `json:"published_at"`
}

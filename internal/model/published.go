package model

import "time"

// PublishedSpec is a specification document stored for serving. Document
// holds the raw JSON as published so it is parsed by the same loader as
// files.
type PublishedSpec struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	QuestionnaireID string    `json:"questionnaire_id" bson:"questionnaireId"`
	Version         string    `json:"version" bson:"version"`
	Document        string    `json:"-" bson:"document"`
	PublishedAt     time.Time `json:"published_at" bson:"publishedAt"`
}

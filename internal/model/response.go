package model

import "time"

// Submission is the payload handed to the submission sink
type Submission struct {
	Code                 string                 `json:"code"`
	QuestionnaireID      string                 `json:"questionnaire_id"`
	QuestionnaireVersion string                 `json:"questionnaire_version"`
	Answers              AnswerStore            `json:"answers"`
	Meta                 map[string]interface{} `json:"meta"`
	IsComplete           bool                   `json:"is_complete"`
}

// Response is a stored submission as the admin side sees it
type Response struct {
	ID                   string                 `json:"id" bson:"_id,omitempty"`
	Code                 string                 `json:"code" bson:"code"`
	QuestionnaireID      string                 `json:"questionnaire_id" bson:"questionnaireId"`
	QuestionnaireVersion string                 `json:"questionnaire_version" bson:"questionnaireVersion"`
	Answers              map[string]interface{} `json:"answers" bson:"answers"`
	Computed             map[string]interface{} `json:"computed,omitempty" bson:"computed,omitempty"`
	Meta                 map[string]interface{} `json:"meta,omitempty" bson:"meta,omitempty"`
	IsComplete           bool                   `json:"is_complete" bson:"isComplete"`
	CreatedAt            time.Time              `json:"created_at" bson:"createdAt"`
}

// ResponseFilter narrows a response listing; zero times mean unbounded
type ResponseFilter struct {
	From time.Time
	To   time.Time
}

// ResponseStats summarises stored responses
type ResponseStats struct {
	Total          int        `json:"total"`
	AvgBMI         string     `json:"avg_bmi"`
	LatestResponse *time.Time `json:"latest_response"`
}

// SubmitReceipt is returned by a submission sink
type SubmitReceipt struct {
	ResponseID string `json:"response_id,omitempty"`
}

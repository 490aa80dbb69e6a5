package service

import (
	"context"
	"math"
	"time"

	"medform/internal/model"
	"medform/internal/repository"
)

// Answer ids used for the computed BMI
const (
	WeightAnswerID = "weight_kg"
	HeightAnswerID = "height_cm"
)

// StoreSubmitter persists submissions as responses
type StoreSubmitter struct {
	repo repository.ResponseRepository
	now  func() time.Time
}

// NewStoreSubmitter creates a submitter backed by a response repository
func NewStoreSubmitter(repo repository.ResponseRepository) *StoreSubmitter {
	return &StoreSubmitter{repo: repo, now: time.Now}
}

func (s *StoreSubmitter) Submit(ctx context.Context, sub *model.Submission) (*model.SubmitReceipt, error) {
	response := &model.Response{
		Code:                 sub.Code,
		QuestionnaireID:      sub.QuestionnaireID,
		QuestionnaireVersion: sub.QuestionnaireVersion,
		Answers:              sub.Answers.Plain(),
		Meta:                 sub.Meta,
		IsComplete:           sub.IsComplete,
		CreatedAt:            s.now().UTC(),
	}
	if bmi, ok := ComputeBMI(sub.Answers); ok {
		response.Computed = map[string]interface{}{"bmi": bmi}
	}

	if err := s.repo.Create(ctx, response); err != nil {
		return nil, err
	}
	return &model.SubmitReceipt{ResponseID: response.ID}, nil
}

// ComputeBMI derives the body mass index from weight in kilograms and height
// in centimetres, rounded to one decimal.
func ComputeBMI(answers model.AnswerStore) (float64, bool) {
	weight, ok := answerNumber(answers, WeightAnswerID)
	if !ok {
		return 0, false
	}
	height, ok := answerNumber(answers, HeightAnswerID)
	if !ok {
		return 0, false
	}
	m := height / 100
	return math.Round(weight/(m*m)*10) / 10, true
}

func answerNumber(answers model.AnswerStore, id string) (float64, bool) {
	v, ok := answers.Get(id)
	if !ok {
		return 0, false
	}
	f, ok := v.Number()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

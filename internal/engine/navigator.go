package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"medform/internal/model"

	"github.com/rs/zerolog"
)

// MaxCodeLength is the longest accepted respondent code, in characters
const MaxCodeLength = 50

// Submitter delivers a completed questionnaire to the datastore
type Submitter interface {
	Submit(ctx context.Context, sub *model.Submission) (*model.SubmitReceipt, error)
}

// Navigator drives sessions through one specification. It holds no
// per-session state; every transition mutates the session passed in, which
// the caller must own exclusively for the duration of the call.
type Navigator struct {
	spec      *model.Specification
	submitter Submitter
	logger    zerolog.Logger
}

// NewNavigator creates a navigator for spec
func NewNavigator(spec *model.Specification, submitter Submitter, logger zerolog.Logger) *Navigator {
	return &Navigator{
		spec:      spec,
		submitter: submitter,
		logger:    logger.With().Str("questionnaire_id", spec.QuestionnaireID).Logger(),
	}
}

// Spec returns the specification the navigator walks
func (n *Navigator) Spec() *model.Specification {
	return n.spec
}

// Current returns the question at the session's position, or nil when the
// visible list is empty.
func (n *Navigator) Current(s *model.Session) *model.Question {
	id := s.CurrentID()
	if id == "" {
		return nil
	}
	return n.spec.Question(id)
}

// Progress returns the 1-based step and the number of visible questions,
// both at least 1.
func (n *Navigator) Progress(s *model.Session) (step, total int) {
	total = len(s.VisibleIDs)
	if total < 1 {
		total = 1
	}
	step = s.CurrentIndex + 1
	if step > total {
		step = total
	}
	if step < 1 {
		step = 1
	}
	return step, total
}

// IsRequired reports whether q is currently required in s
func (n *Navigator) IsRequired(s *model.Session, q *model.Question) bool {
	return IsRequired(q, s.Answers)
}

// Start validates the respondent code and opens the first question. A
// rejected code leaves the session untouched.
func (n *Navigator) Start(s *model.Session, code string) error {
	if s.State != model.StateAtCode {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.State)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return invalid("", CodeCodeRequired, "Enter your code.")
	}
	if utf8.RuneCountInString(code) > MaxCodeLength {
		return invalid("", CodeCodeTooLong, "The code is too long (max %d characters).", MaxCodeLength)
	}

	s.Code = code
	s.Answers = model.AnswerStore{}
	s.CurrentIndex = 0
	s.LastError = ""
	s.ResponseID = ""
	s.VisibleIDs = Recompute(n.spec.Questions, s.Answers)
	s.State = model.StateAtQuestion
	touch(s)

	n.logger.Debug().Str("session_id", s.ID).Int("visible", len(s.VisibleIDs)).Msg("session started")
	return nil
}

// Next commits value for the current question and moves on. Validation
// happens before anything is written; the visible list is recomputed after
// the write and before the position moves. Answering the last visible
// question submits. With nothing left to answer, Next submits directly.
func (n *Navigator) Next(ctx context.Context, s *model.Session, value model.Value, meta map[string]interface{}) error {
	if s.State != model.StateAtQuestion {
		return fmt.Errorf("%w: next from %s", ErrInvalidTransition, s.State)
	}

	q := n.Current(s)
	if q == nil {
		return n.Submit(ctx, s, meta)
	}

	if verr := Validate(q, value, s.Answers); verr != nil {
		return verr
	}

	if value.IsEmpty() {
		s.Answers.Delete(q.ID)
	} else {
		s.Answers.Set(q.ID, value)
	}
	s.VisibleIDs = Recompute(n.spec.Questions, s.Answers)
	// Answers can hide questions before this one; keep the position on it.
	if pos := indexOf(s.VisibleIDs, q.ID); pos >= 0 {
		s.CurrentIndex = pos
	}
	touch(s)

	if s.IsLastStep() {
		return n.Submit(ctx, s, meta)
	}

	s.CurrentIndex++
	clampIndex(s)
	return nil
}

// Back moves one question back without validating or touching answers
func (n *Navigator) Back(s *model.Session) error {
	if s.State != model.StateAtQuestion {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.State)
	}
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	touch(s)
	return nil
}

// Submit sends the pruned answers. It is entered from Next on the last
// question and may be called again at the last step to retry a failed
// submission. Every visible stored answer is re-validated first, so nothing
// incomplete is ever sent. On failure the session returns to the question
// it was on with its answers intact.
func (n *Navigator) Submit(ctx context.Context, s *model.Session, meta map[string]interface{}) error {
	switch {
	case s.State == model.StateSubmitting:
		return fmt.Errorf("%w: submission already in flight", ErrInvalidTransition)
	case s.State != model.StateAtQuestion:
		return fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.State)
	case !s.IsLastStep():
		return fmt.Errorf("%w: submit before the last question", ErrInvalidTransition)
	}

	s.VisibleIDs = Recompute(n.spec.Questions, s.Answers)
	clampIndex(s)
	for i, id := range s.VisibleIDs {
		q := n.spec.Question(id)
		value, _ := s.Answers.Get(id)
		if verr := Validate(q, value, s.Answers); verr != nil {
			s.CurrentIndex = i
			touch(s)
			return fmt.Errorf("%w: %w", ErrIncomplete, verr)
		}
	}

	s.State = model.StateSubmitting
	touch(s)

	if meta == nil {
		meta = map[string]interface{}{}
	}
	payload := &model.Submission{
		Code:                 s.Code,
		QuestionnaireID:      n.spec.QuestionnaireID,
		QuestionnaireVersion: n.spec.Version,
		Answers:              s.Answers.Clone(),
		Meta:                 meta,
		IsComplete:           true,
	}

	receipt, err := n.submitter.Submit(ctx, payload)
	if err != nil {
		s.State = model.StateAtQuestion
		s.LastError = err.Error()
		touch(s)
		n.logger.Warn().Err(err).Str("session_id", s.ID).Msg("submission failed")
		return &SubmissionError{Err: err}
	}

	s.State = model.StateDone
	s.LastError = ""
	if receipt != nil {
		s.ResponseID = receipt.ResponseID
	}
	touch(s)

	n.logger.Info().Str("session_id", s.ID).Int("answers", len(payload.Answers)).Msg("questionnaire submitted")
	return nil
}

// Restart clears the respondent code, answers and position. It is refused
// while a submission is in flight.
func (n *Navigator) Restart(s *model.Session) error {
	if s.State == model.StateSubmitting {
		return fmt.Errorf("%w: restart while submitting", ErrInvalidTransition)
	}
	s.Code = ""
	s.Answers = model.AnswerStore{}
	s.CurrentIndex = 0
	s.VisibleIDs = nil
	s.LastError = ""
	s.ResponseID = ""
	s.State = model.StateAtCode
	touch(s)
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clampIndex(s *model.Session) {
	if s.CurrentIndex >= len(s.VisibleIDs) {
		s.CurrentIndex = len(s.VisibleIDs) - 1
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
}

func touch(s *model.Session) {
	s.UpdatedAt = time.Now()
}

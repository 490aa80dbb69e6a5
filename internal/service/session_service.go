package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medform/internal/cache"
	"medform/internal/engine"
	"medform/internal/model"
)

// SessionView is what a respondent client renders for the current step
type SessionView struct {
	SessionID  string             `json:"session_id"`
	State      model.SessionState `json:"state"`
	Step       int                `json:"step"`
	Total      int                `json:"total"`
	IsLast     bool               `json:"is_last"`
	Question   *model.Question    `json:"question,omitempty"`
	Required   bool               `json:"required"`
	Answer     interface{}        `json:"answer,omitempty"`
	LastError  string             `json:"last_error,omitempty"`
	ResponseID string             `json:"response_id,omitempty"`
}

// SessionService runs respondent sessions stored in Redis. Every transition
// holds the per-session lock, so a session never sees two transitions at
// once and cannot be submitted twice.
type SessionService struct {
	specs       *SpecService
	sessions    cache.SessionCache
	submitter   engine.Submitter
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	specs *SpecService,
	sessions cache.SessionCache,
	submitter engine.Submitter,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{
		specs:     specs,
		sessions:  sessions,
		submitter: submitter,
		logger:    logger,
	}
}

// SetBroadcaster sets the broadcaster for admin feed events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start opens a session for the respondent code on the active specification.
// Nothing is stored when the code is rejected.
func (s *SessionService) Start(ctx context.Context, code string) (*SessionView, error) {
	spec, err := s.specs.Current()
	if err != nil {
		return nil, err
	}

	nav := s.navigator(spec)
	session := model.NewSession(uuid.NewString(), spec)
	if err := nav.Start(session, code); err != nil {
		return nil, err
	}

	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s.view(nav, session), nil
}

// Get returns the current step of a session
func (s *SessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	nav, err := s.navigatorFor(session)
	if err != nil {
		return nil, err
	}
	return s.view(nav, session), nil
}

// Next answers the current question with a raw client value
func (s *SessionService) Next(ctx context.Context, id string, raw interface{}, meta map[string]interface{}) (*SessionView, error) {
	return s.transition(ctx, id, func(nav *engine.Navigator, session *model.Session) error {
		var value model.Value
		if q := nav.Current(session); q != nil {
			value = engine.ValueFromInput(q, raw)
		}
		return nav.Next(ctx, session, value, meta)
	})
}

// Back moves to the previous question
func (s *SessionService) Back(ctx context.Context, id string) (*SessionView, error) {
	return s.transition(ctx, id, func(nav *engine.Navigator, session *model.Session) error {
		return nav.Back(session)
	})
}

// Submit retries the submission from the last question
func (s *SessionService) Submit(ctx context.Context, id string, meta map[string]interface{}) (*SessionView, error) {
	return s.transition(ctx, id, func(nav *engine.Navigator, session *model.Session) error {
		return nav.Submit(ctx, session, meta)
	})
}

// Restart clears the session back to the code prompt
func (s *SessionService) Restart(ctx context.Context, id string) (*SessionView, error) {
	return s.transition(ctx, id, func(nav *engine.Navigator, session *model.Session) error {
		return nav.Restart(session)
	})
}

// Toggle applies a checkbox change to a multiselect selection without
// storing anything
func (s *SessionService) Toggle(ctx context.Context, id string, selected []string, value string, on bool) ([]string, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	nav, err := s.navigatorFor(session)
	if err != nil {
		return nil, err
	}
	q := nav.Current(session)
	if session.State != model.StateAtQuestion || q == nil || q.Type != model.QuestionTypeMultiSelect {
		return nil, fmt.Errorf("%w: current question is not a multiselect", engine.ErrInvalidTransition)
	}
	return engine.ToggleOption(q, selected, value, on), nil
}

// transition runs fn under the session lock and stores the result. A
// rejected answer changes nothing and is returned without a write. A
// submission blocked by an earlier question is stored with the session
// moved to that question and returned together with its view.
func (s *SessionService) transition(ctx context.Context, id string, fn func(*engine.Navigator, *model.Session) error) (*SessionView, error) {
	release, err := s.sessions.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id).Msg("session lock release")
		}
	}()

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	nav, err := s.navigatorFor(session)
	if err != nil {
		return nil, err
	}

	wasDone := session.State == model.StateDone
	fnErr := fn(nav, session)

	var verr *engine.ValidationError
	if (errors.As(fnErr, &verr) && !errors.Is(fnErr, engine.ErrIncomplete)) || errors.Is(fnErr, engine.ErrInvalidTransition) {
		return nil, fnErr
	}

	if err := s.sessions.Set(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if fnErr != nil {
		return s.view(nav, session), fnErr
	}

	if !wasDone && session.State == model.StateDone {
		s.notifySubmitted(session)
	}
	return s.view(nav, session), nil
}

func (s *SessionService) notifySubmitted(session *model.Session) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToAdmins(EventResponseSubmitted, model.ResponseSubmittedEvent{
		ResponseID:           session.ResponseID,
		QuestionnaireID:      session.QuestionnaireID,
		QuestionnaireVersion: session.QuestionnaireVersion,
		SubmittedAt:          time.Now().UTC(),
	})
}

func (s *SessionService) navigatorFor(session *model.Session) (*engine.Navigator, error) {
	spec, err := s.specs.Version(session.QuestionnaireVersion)
	if err != nil {
		return nil, err
	}
	return s.navigator(spec), nil
}

func (s *SessionService) navigator(spec *model.Specification) *engine.Navigator {
	return engine.NewNavigator(spec, s.submitter, s.logger)
}

func (s *SessionService) view(nav *engine.Navigator, session *model.Session) *SessionView {
	step, total := nav.Progress(session)
	v := &SessionView{
		SessionID:  session.ID,
		State:      session.State,
		Step:       step,
		Total:      total,
		IsLast:     session.IsLastStep(),
		LastError:  session.LastError,
		ResponseID: session.ResponseID,
	}
	if session.State != model.StateAtQuestion {
		return v
	}
	if q := nav.Current(session); q != nil {
		v.Question = q
		v.Required = nav.IsRequired(session, q)
		if answer, ok := session.Answers.Get(q.ID); ok {
			v.Answer = answer.Interface()
		}
	}
	return v
}

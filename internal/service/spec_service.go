package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"medform/internal/engine"
	"medform/internal/model"
	"medform/internal/repository"
)

const (
	SpecSourceFile  = "file"
	SpecSourceMongo = "mongo"
)

var (
	ErrPublishUnsupported = errors.New("publishing requires a mongo specification source")
	ErrNoSpecification    = errors.New("no specification loaded")
	// ErrVersionRetired means a session refers to a questionnaire version this
	// process no longer serves
	ErrVersionRetired = errors.New("questionnaire version is no longer served")
)

// SpecService loads specifications and keeps every version served since
// startup, so sessions finish on the version they started with.
type SpecService struct {
	source      string
	path        string
	expectedID  string
	repo        repository.SpecRepo
	broadcaster Broadcaster
	logger      zerolog.Logger

	mu       sync.RWMutex
	current  *model.Specification
	versions map[string]*model.Specification
}

// NewSpecService creates a specification service. repo may be nil for the
// file source.
func NewSpecService(source, path, expectedID string, repo repository.SpecRepo, logger zerolog.Logger) *SpecService {
	return &SpecService{
		source:     source,
		path:       path,
		expectedID: expectedID,
		repo:       repo,
		logger:     logger,
		versions:   make(map[string]*model.Specification),
	}
}

// SetBroadcaster sets the broadcaster for admin feed events
func (s *SpecService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Load reads the active specification from the configured source
func (s *SpecService) Load(ctx context.Context) (*model.Specification, error) {
	opts := engine.LoadOptions{ExpectedID: s.expectedID}

	var (
		spec *model.Specification
		err  error
	)
	switch s.source {
	case SpecSourceMongo:
		if s.repo == nil {
			return nil, ErrPublishUnsupported
		}
		doc, rerr := s.repo.Latest(ctx, s.expectedID)
		if rerr != nil {
			return nil, fmt.Errorf("load published specification: %w", rerr)
		}
		spec, err = engine.Parse([]byte(doc.Document), opts)
		if err == nil {
			s.loadPrevious(ctx, opts)
		}
	default:
		spec, err = engine.LoadFile(s.path, opts)
	}
	if err != nil {
		return nil, err
	}

	s.activate(spec)
	s.logger.Info().
		Str("questionnaire_id", spec.QuestionnaireID).
		Str("version", spec.Version).
		Int("questions", len(spec.Questions)).
		Str("source", s.source).
		Msg("specification loaded")
	return spec, nil
}

// Publish validates raw, stores it and makes it the active version
func (s *SpecService) Publish(ctx context.Context, raw []byte) (*model.Specification, error) {
	if s.source != SpecSourceMongo || s.repo == nil {
		return nil, ErrPublishUnsupported
	}

	spec, err := engine.Parse(raw, engine.LoadOptions{ExpectedID: s.expectedID})
	if err != nil {
		return nil, err
	}

	doc := &model.PublishedSpec{
		QuestionnaireID: spec.QuestionnaireID,
		Version:         spec.Version,
		Document:        string(raw),
	}
	if err := s.repo.Publish(ctx, doc); err != nil {
		return nil, fmt.Errorf("publish specification: %w", err)
	}

	s.activate(spec)
	s.logger.Info().Str("questionnaire_id", spec.QuestionnaireID).Str("version", spec.Version).Msg("specification published")
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToAdmins(EventSpecPublished, model.SpecPublishedEvent{
			QuestionnaireID: spec.QuestionnaireID,
			Version:         spec.Version,
			PublishedAt:     doc.PublishedAt,
		})
	}
	return spec, nil
}

// Current returns the active specification
func (s *SpecService) Current() (*model.Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSpecification
	}
	return s.current, nil
}

// Version returns a previously served specification version
func (s *SpecService) Version(version string) (*model.Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	spec, ok := s.versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVersionRetired, version)
	}
	return spec, nil
}

// loadPrevious makes older published versions available to sessions that
// started on them before a restart. Unparseable documents are skipped.
func (s *SpecService) loadPrevious(ctx context.Context, opts engine.LoadOptions) {
	docs, err := s.repo.Versions(ctx, s.expectedID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("list published versions")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		spec, err := engine.Parse([]byte(doc.Document), opts)
		if err != nil {
			s.logger.Warn().Err(err).Str("version", doc.Version).Msg("skipping published version")
			continue
		}
		s.versions[spec.Version] = spec
	}
}

func (s *SpecService) activate(spec *model.Specification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = spec
	s.versions[spec.Version] = spec
}

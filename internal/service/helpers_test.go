package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"medform/internal/cache"
	"medform/internal/engine"
	"medform/internal/model"
	"medform/internal/repository"
)

const testSpecPath = "testdata/questionnaire.json"

func newTestSpecs(t *testing.T) *SpecService {
	t.Helper()
	specs := NewSpecService(SpecSourceFile, testSpecPath, "patient_form", nil, zerolog.Nop())
	_, err := specs.Load(context.Background())
	require.NoError(t, err)
	return specs
}

func newTestSessionCache(t *testing.T) (cache.SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewSessionCache(client, time.Hour), mr
}

func newTestResponses(t *testing.T) repository.ResponseRepository {
	t.Helper()
	db, err := repository.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo, err := repository.NewSQLiteResponseRepository(db)
	require.NoError(t, err)
	return repo
}

type broadcastEvent struct {
	msgType string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastToAdmins(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{msgType: msgType, payload: payload})
}

// memSpecRepo keeps published specifications in memory
type memSpecRepo struct {
	docs []*model.PublishedSpec
	err  error
}

func (r *memSpecRepo) Publish(_ context.Context, doc *model.PublishedSpec) error {
	if r.err != nil {
		return r.err
	}
	if doc.PublishedAt.IsZero() {
		doc.PublishedAt = time.Now().UTC()
	}
	for i, d := range r.docs {
		if d.QuestionnaireID == doc.QuestionnaireID && d.Version == doc.Version {
			r.docs[i] = doc
			return nil
		}
	}
	r.docs = append(r.docs, doc)
	return nil
}

func (r *memSpecRepo) Latest(_ context.Context, questionnaireID string) (*model.PublishedSpec, error) {
	var latest *model.PublishedSpec
	for _, d := range r.docs {
		if d.QuestionnaireID == questionnaireID && (latest == nil || !d.PublishedAt.Before(latest.PublishedAt)) {
			latest = d
		}
	}
	if latest == nil {
		return nil, repository.ErrSpecNotPublished
	}
	return latest, nil
}

func (r *memSpecRepo) Versions(_ context.Context, questionnaireID string) ([]*model.PublishedSpec, error) {
	var out []*model.PublishedSpec
	for _, d := range r.docs {
		if d.QuestionnaireID == questionnaireID {
			out = append(out, d)
		}
	}
	return out, nil
}

// switchSubmitter fails while err is set
type switchSubmitter struct {
	next engine.Submitter
	err  error
}

func (s *switchSubmitter) Submit(ctx context.Context, sub *model.Submission) (*model.SubmitReceipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.next.Submit(ctx, sub)
}

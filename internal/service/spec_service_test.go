package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medform/internal/engine"
	"medform/internal/model"
	"medform/internal/repository"
)

func TestSpecService_LoadFile(t *testing.T) {
	specs := NewSpecService(SpecSourceFile, testSpecPath, "", nil, zerolog.Nop())

	_, err := specs.Current()
	assert.ErrorIs(t, err, ErrNoSpecification)

	spec, err := specs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "patient_form", spec.QuestionnaireID)

	current, err := specs.Current()
	require.NoError(t, err)
	assert.Same(t, spec, current)

	v1, err := specs.Version("1")
	require.NoError(t, err)
	assert.Same(t, spec, v1)
}

func TestSpecService_LoadFileMismatch(t *testing.T) {
	specs := NewSpecService(SpecSourceFile, testSpecPath, "other_form", nil, zerolog.Nop())
	_, err := specs.Load(context.Background())
	assert.ErrorIs(t, err, engine.ErrSpecMismatch)
}

func TestSpecService_PublishRequiresMongoSource(t *testing.T) {
	specs := newTestSpecs(t)
	_, err := specs.Publish(context.Background(), []byte(`{}`))
	assert.ErrorIs(t, err, ErrPublishUnsupported)
}

func TestSpecService_MongoSource(t *testing.T) {
	ctx := context.Background()
	repo := &memSpecRepo{}
	events := &recordingBroadcaster{}
	specs := NewSpecService(SpecSourceMongo, "", "patient_form", repo, zerolog.Nop())
	specs.SetBroadcaster(events)

	_, err := specs.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrSpecNotPublished)

	raw, err := os.ReadFile(testSpecPath)
	require.NoError(t, err)
	v1, err := specs.Publish(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "1", v1.Version)

	v2doc := []byte(`{"questionnaire_id":"patient_form","version":"2","questions":[{"id":"age","type":"number"}]}`)
	v2, err := specs.Publish(ctx, v2doc)
	require.NoError(t, err)

	current, err := specs.Current()
	require.NoError(t, err)
	assert.Same(t, v2, current)

	old, err := specs.Version("1")
	require.NoError(t, err, "sessions started on v1 keep working")
	assert.Same(t, v1, old)

	require.Len(t, events.events, 2)
	assert.Equal(t, EventSpecPublished, events.events[1].msgType)
	assert.Equal(t, "2", events.events[1].payload.(model.SpecPublishedEvent).Version)

	// A fresh process serves the latest published document
	repo.docs[1].PublishedAt = repo.docs[0].PublishedAt.Add(time.Second)
	restarted := NewSpecService(SpecSourceMongo, "", "patient_form", repo, zerolog.Nop())
	loaded, err := restarted.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", loaded.Version)
	older, err := restarted.Version("1")
	require.NoError(t, err, "published versions survive a restart")
	assert.Equal(t, "1", older.Version)
	_, err = restarted.Version("9")
	assert.ErrorIs(t, err, ErrVersionRetired)
}

func TestSpecService_PublishRejects(t *testing.T) {
	ctx := context.Background()
	specs := NewSpecService(SpecSourceMongo, "", "patient_form", &memSpecRepo{}, zerolog.Nop())

	_, err := specs.Publish(ctx, []byte(`{"questionnaire_id":"patient_form","questions":[]}`))
	assert.ErrorIs(t, err, engine.ErrSpecInvalid)

	_, err = specs.Publish(ctx, []byte(`{"questionnaire_id":"intake","version":"1","questions":[]}`))
	assert.ErrorIs(t, err, engine.ErrSpecMismatch)

	failing := NewSpecService(SpecSourceMongo, "", "patient_form", &memSpecRepo{err: errors.New("write failed")}, zerolog.Nop())
	_, err = failing.Publish(ctx, []byte(`{"questionnaire_id":"patient_form","version":"1","questions":[]}`))
	assert.Error(t, err)
	_, err = failing.Current()
	assert.ErrorIs(t, err, ErrNoSpecification, "a failed publish must not activate the document")
}

func TestSpecService_LoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	doc := "questionnaire_id: patient_form\nversion: 3\nquestions:\n  - id: age\n    type: number\n    order: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	specs := NewSpecService(SpecSourceFile, path, "patient_form", nil, zerolog.Nop())
	spec, err := specs.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", spec.Version)
}

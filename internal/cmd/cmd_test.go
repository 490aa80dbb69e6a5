package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medform/internal/engine"
	"medform/internal/model"
	"medform/internal/repository"
)

func init() {
	color.NoColor = true
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "validate", "take", "export", "publish", "hash-password"} {
		assert.Contains(t, names, want)
	}
}

func TestValidate(t *testing.T) {
	var out bytes.Buffer
	err := validateSpecs(&out, []string{"testdata/questionnaire.json", "testdata/intake.yaml"}, "")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "patient_form version 1, 5 questions")
	assert.Contains(t, out.String(), "intake version 3, 3 questions")
	assert.Contains(t, out.String(), "show_if:visit_reason")
}

func TestValidate_Failures(t *testing.T) {
	var out bytes.Buffer
	err := validateSpecs(&out, []string{"testdata/bad.json", "testdata/questionnaire.json"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out.String(), "testdata/bad.json")

	out.Reset()
	err = validateSpecs(&out, []string{"testdata/questionnaire.json"}, "intake")
	require.Error(t, err)
	assert.Contains(t, out.String(), engine.ErrSpecMismatch.Error())
}

func TestTake(t *testing.T) {
	spec, err := engine.LoadFile("testdata/intake.yaml", engine.LoadOptions{})
	require.NoError(t, err)

	input := strings.Join([]string{
		"",         // empty code is rejected
		"P-42",     // code
		"pain",     // visit_reason
		"11",       // above max
		":back",    // back to visit_reason
		"checkup",  // hides pain_level
		"all good", // notes, last question
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, runTake(context.Background(), spec, strings.NewReader(input), &out))

	text := out.String()
	assert.Contains(t, text, "Enter your code.")
	assert.Contains(t, text, "Submitted.")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	require.True(t, start >= 0 && end > start)
	var sub model.Submission
	require.NoError(t, json.Unmarshal([]byte(text[start:end+1]), &sub))
	assert.Equal(t, "P-42", sub.Code)
	assert.Equal(t, "intake", sub.QuestionnaireID)

	reason, _ := sub.Answers.Get("visit_reason")
	assert.Equal(t, "checkup", reason.String())
	_, hasPain := sub.Answers.Get("pain_level")
	assert.False(t, hasPain, "hidden answers are pruned before submit")
}

func TestTake_Quit(t *testing.T) {
	spec, err := engine.LoadFile("testdata/questionnaire.json", engine.LoadOptions{})
	require.NoError(t, err)

	var out bytes.Buffer
	err = runTake(context.Background(), spec, strings.NewReader("P-1\n:quit\n"), &out)
	assert.ErrorIs(t, err, errAborted)
	assert.NotContains(t, out.String(), "Submitted.")
}

func TestHashPassword(t *testing.T) {
	cmd := NewHashPasswordCommand()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader("correct horse\n"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}

func TestHashPassword_Empty(t *testing.T) {
	cmd := NewHashPasswordCommand()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}

func TestExport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "responses.db")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)
	t.Setenv("SPEC_SOURCE", "file")
	t.Setenv("SPEC_PATH", "testdata/questionnaire.json")
	t.Setenv("LOG_LEVEL", "error")

	db, err := repository.OpenSQLite(dbPath)
	require.NoError(t, err)
	repo, err := repository.NewSQLiteResponseRepository(db)
	require.NoError(t, err)
	for i, code := range []string{"OLD", "NEW"} {
		require.NoError(t, repo.Create(context.Background(), &model.Response{
			Code:                 code,
			QuestionnaireID:      "patient_form",
			QuestionnaireVersion: "1",
			Answers:              map[string]interface{}{"age": float64(30 + i)},
			IsComplete:           true,
			CreatedAt:            time.Date(2024, 1, 10+i*10, 9, 0, 0, 0, time.UTC),
		}))
	}
	require.NoError(t, db.Close())

	var out bytes.Buffer
	err = runExport(context.Background(), &exportOptions{format: "json", from: "2024-01-15"}, &out)
	require.NoError(t, err)

	var rows []model.Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "NEW", rows[0].Code)

	out.Reset()
	err = runExport(context.Background(), &exportOptions{format: "csv"}, &out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "code,date"))
	assert.True(t, strings.HasPrefix(lines[1], "NEW,"))

	err = runExport(context.Background(), &exportOptions{format: "csv", from: "last week"}, &out)
	assert.Error(t, err)
}

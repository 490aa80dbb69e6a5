package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"medform/internal/model"
)

const responseSchema = `
CREATE TABLE IF NOT EXISTS responses (
	id                    TEXT PRIMARY KEY,
	code                  TEXT NOT NULL,
	questionnaire_id      TEXT NOT NULL,
	questionnaire_version TEXT NOT NULL,
	answers_json          TEXT NOT NULL,
	computed_json         TEXT,
	meta_json             TEXT,
	is_complete           INTEGER NOT NULL,
	created_at            INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_created_at ON responses (created_at);
`

type sqliteResponseRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database file
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer; database/sql would otherwise hand out separate
	// connections to separate in-memory databases.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteResponseRepository creates the responses table if needed
func NewSQLiteResponseRepository(db *sql.DB) (ResponseRepository, error) {
	if _, err := db.Exec(responseSchema); err != nil {
		return nil, fmt.Errorf("create responses schema: %w", err)
	}
	return &sqliteResponseRepository{db: db}, nil
}

func (r *sqliteResponseRepository) Create(ctx context.Context, response *model.Response) error {
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	if response.ID == "" {
		response.ID = uuid.NewString()
	}

	answers, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	computed, err := jsonOrNull(response.Computed)
	if err != nil {
		return fmt.Errorf("encode computed: %w", err)
	}
	meta, err := jsonOrNull(response.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO responses (id, code, questionnaire_id, questionnaire_version, answers_json, computed_json, meta_json, is_complete, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		response.ID,
		response.Code,
		response.QuestionnaireID,
		response.QuestionnaireVersion,
		string(answers),
		computed,
		meta,
		response.IsComplete,
		response.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *sqliteResponseRepository) GetByID(ctx context.Context, id string) (*model.Response, error) {
	row := r.db.QueryRowContext(ctx, selectResponses+` WHERE id = ?`, id)
	response, err := scanResponse(row)
	if err == sql.ErrNoRows {
		return nil, ErrResponseNotFound
	}
	return response, err
}

func (r *sqliteResponseRepository) List(ctx context.Context, filter model.ResponseFilter) ([]*model.Response, error) {
	query := selectResponses + ` WHERE 1 = 1`
	var args []interface{}
	if !filter.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.From.UnixNano())
	}
	if !filter.To.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.To.UnixNano())
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := []*model.Response{}
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

const selectResponses = `SELECT id, code, questionnaire_id, questionnaire_version, answers_json, computed_json, meta_json, is_complete, created_at FROM responses`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanResponse(s scanner) (*model.Response, error) {
	var (
		response       model.Response
		answers        string
		computed, meta sql.NullString
		createdAt      int64
	)
	err := s.Scan(&response.ID, &response.Code, &response.QuestionnaireID, &response.QuestionnaireVersion,
		&answers, &computed, &meta, &response.IsComplete, &createdAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(answers), &response.Answers); err != nil {
		return nil, fmt.Errorf("decode answers of %s: %w", response.ID, err)
	}
	if computed.Valid {
		if err := json.Unmarshal([]byte(computed.String), &response.Computed); err != nil {
			return nil, fmt.Errorf("decode computed of %s: %w", response.ID, err)
		}
	}
	if meta.Valid {
		if err := json.Unmarshal([]byte(meta.String), &response.Meta); err != nil {
			return nil, fmt.Errorf("decode meta of %s: %w", response.ID, err)
		}
	}
	response.CreatedAt = time.Unix(0, createdAt).UTC()
	return &response, nil
}

func jsonOrNull(v map[string]interface{}) (interface{}, error) {
	if len(v) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

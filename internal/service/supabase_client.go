package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"medform/internal/cache"
	"medform/internal/model"
)

// submitTimeout keeps a slow insert from outliving the session lock it runs under
const submitTimeout = cache.LockTTL / 3

// SupabaseClient inserts submissions through the Supabase REST API
type SupabaseClient struct {
	baseURL    string
	key        string
	table      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewSupabaseClient creates a new Supabase REST client
func NewSupabaseClient(baseURL, key, table string, logger zerolog.Logger) *SupabaseClient {
	return &SupabaseClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		table:   table,
		httpClient: &http.Client{
			Timeout: submitTimeout,
		},
		logger: logger.With().Str("sink", "supabase").Logger(),
	}
}

// supabaseRow is the part of an inserted row the client reads back
type supabaseRow struct {
	ID json.RawMessage `json:"id"`
}

// Submit inserts one row and returns the id of the first row echoed back
func (c *SupabaseClient) Submit(ctx context.Context, sub *model.Submission) (*model.SubmitReceipt, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, c.table)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}

	c.logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("insert response")

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("supabase error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return &model.SubmitReceipt{ResponseID: firstRowID(respBody)}, nil
}

// firstRowID accepts either an array of rows or a single row. An unreadable
// body still counts as a successful insert.
func firstRowID(body []byte) string {
	var rows []supabaseRow
	if err := json.Unmarshal(body, &rows); err != nil {
		var row supabaseRow
		if err := json.Unmarshal(body, &row); err != nil {
			return ""
		}
		rows = []supabaseRow{row}
	}
	if len(rows) == 0 || len(rows[0].ID) == 0 {
		return ""
	}
	id, err := model.ScalarString(rows[0].ID)
	if err != nil {
		return ""
	}
	return id
}

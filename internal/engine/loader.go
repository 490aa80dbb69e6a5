package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"medform/internal/model"

	"gopkg.in/yaml.v3"
)

// LoadOptions tune specification loading
type LoadOptions struct {
	// ExpectedID, when set, must equal the specification's questionnaire_id
	ExpectedID string
}

type rawSpecification struct {
	QuestionnaireID json.RawMessage `json:"questionnaire_id"`
	Version         json.RawMessage `json:"version"`
	Questions       json.RawMessage `json:"questions"`
}

// Parse decodes a JSON specification and sorts its questions by order.
// Beyond the top-level shape, unique ids and single-operator conditions, no
// validation happens here: unknown question types are accepted.
func Parse(data []byte, opts LoadOptions) (*model.Specification, error) {
	var raw rawSpecification
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecInvalid, err)
	}

	if q := bytes.TrimSpace(raw.Questions); len(q) == 0 || q[0] != '[' {
		return nil, fmt.Errorf("%w: questions must be a list", ErrSpecInvalid)
	}

	id, _ := model.ScalarString(raw.QuestionnaireID)
	version, _ := model.ScalarString(raw.Version)
	if id == "" || version == "" {
		return nil, fmt.Errorf("%w: missing questionnaire_id or version", ErrSpecInvalid)
	}

	if opts.ExpectedID != "" && id != opts.ExpectedID {
		return nil, fmt.Errorf("%w: expected %q, got %q", ErrSpecMismatch, opts.ExpectedID, id)
	}

	var questions []model.Question
	if err := json.Unmarshal(raw.Questions, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecInvalid, err)
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question #%d has no id", ErrSpecInvalid, i+1)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %q", ErrSpecInvalid, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Order < questions[j].Order
	})

	return &model.Specification{
		QuestionnaireID: id,
		Version:         version,
		Questions:       questions,
	}, nil
}

// ParseYAML accepts the same document written as YAML
func ParseYAML(data []byte, opts LoadOptions) (*model.Specification, error) {
	asJSON, err := YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return Parse(asJSON, opts)
}

// YAMLToJSON re-encodes a YAML specification as JSON, the stored form
func YAMLToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecInvalid, err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecInvalid, err)
	}
	return asJSON, nil
}

// LoadFile reads a .json, .yaml or .yml specification from disk
func LoadFile(path string, opts LoadOptions) (*model.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specification: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, opts)
	default:
		return Parse(data, opts)
	}
}

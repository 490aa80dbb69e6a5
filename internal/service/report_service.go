package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"medform/internal/model"
	"medform/internal/repository"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

const xlsxSheet = "Responses"

var ErrUnknownFormat = errors.New("unknown export format")

// ReportService lists, summarises and exports stored responses
type ReportService struct {
	responses repository.ResponseRepository
	specs     *SpecService
}

// NewReportService creates a new report service
func NewReportService(responses repository.ResponseRepository, specs *SpecService) *ReportService {
	return &ReportService{
		responses: responses,
		specs:     specs,
	}
}

// List returns responses inside the window, newest first
func (s *ReportService) List(ctx context.Context, filter model.ResponseFilter) ([]*model.Response, error) {
	return s.responses.List(ctx, filter)
}

// Stats counts responses and averages the positive computed BMIs
func (s *ReportService) Stats(ctx context.Context) (*model.ResponseStats, error) {
	responses, err := s.responses.List(ctx, model.ResponseFilter{})
	if err != nil {
		return nil, err
	}

	stats := &model.ResponseStats{Total: len(responses), AvgBMI: "0"}
	if len(responses) > 0 {
		latest := responses[0].CreatedAt
		stats.LatestResponse = &latest
	}

	var sum float64
	var n int
	for _, r := range responses {
		if bmi, ok := computedBMI(r); ok {
			sum += bmi
			n++
		}
	}
	if n > 0 {
		stats.AvgBMI = strconv.FormatFloat(sum/float64(n), 'f', 1, 64)
	}
	return stats, nil
}

// Export writes the responses in the window to w
func (s *ReportService) Export(ctx context.Context, w io.Writer, format string, filter model.ResponseFilter) error {
	switch format {
	case FormatCSV, FormatJSON, FormatXLSX:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	responses, err := s.responses.List(ctx, filter)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		if responses == nil {
			responses = []*model.Response{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(responses)
	}

	spec, err := s.specs.Current()
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return WriteXLSX(w, spec, responses)
	}
	return WriteCSV(w, spec, responses)
}

// WriteCSV writes the export table as CSV
func WriteCSV(w io.Writer, spec *model.Specification, responses []*model.Response) error {
	return csv.NewWriter(w).WriteAll(exportTable(spec, responses))
}

// WriteXLSX writes the export table as a single-sheet workbook
func WriteXLSX(w io.Writer, spec *model.Specification, responses []*model.Response) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	for i, row := range exportTable(spec, responses) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}

// exportTable builds the header and one row per response: code, date,
// questionnaire id and version, one column per question label in
// specification order, then the computed.* and meta.* keys found across all
// rows.
func exportTable(spec *model.Specification, responses []*model.Response) [][]string {
	computedKeys := unionKeys(responses, func(r *model.Response) map[string]interface{} { return r.Computed })
	metaKeys := unionKeys(responses, func(r *model.Response) map[string]interface{} { return r.Meta })

	header := []string{"code", "date", "questionnaire_id", "questionnaire_version"}
	for _, q := range spec.Questions {
		label := q.Label
		if label == "" {
			label = q.ID
		}
		header = append(header, label)
	}
	for _, k := range computedKeys {
		header = append(header, "computed."+k)
	}
	for _, k := range metaKeys {
		header = append(header, "meta."+k)
	}

	table := make([][]string, 0, len(responses)+1)
	table = append(table, header)
	for _, r := range responses {
		row := []string{
			r.Code,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.QuestionnaireID,
			r.QuestionnaireVersion,
		}
		for i := range spec.Questions {
			row = append(row, DisplayValue(&spec.Questions[i], r.Answers[spec.Questions[i].ID]))
		}
		for _, k := range computedKeys {
			row = append(row, plainString(r.Computed[k]))
		}
		for _, k := range metaKeys {
			row = append(row, plainString(r.Meta[k]))
		}
		table = append(table, row)
	}
	return table
}

// DisplayValue renders a stored answer the way an admin reads it: option
// labels instead of values, boolean captions, multiselect items joined by "; ".
func DisplayValue(q *model.Question, raw interface{}) string {
	switch t := raw.(type) {
	case nil:
		return ""
	case bool:
		if q.Type == model.QuestionTypeBoolean {
			return q.Labels.Caption(t)
		}
		return strconv.FormatBool(t)
	case string:
		if q.Type == model.QuestionTypeBoolean && (t == "true" || t == "false") {
			return q.Labels.Caption(t == "true")
		}
		return q.OptionLabel(t)
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := DisplayValue(q, item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case []string:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if item != "" {
				parts = append(parts, q.OptionLabel(item))
			}
		}
		return strings.Join(parts, "; ")
	default:
		return plainString(t)
	}
}

func computedBMI(r *model.Response) (float64, bool) {
	switch t := r.Computed["bmi"].(type) {
	case float64:
		return t, t > 0
	case int32:
		return float64(t), t > 0
	case int64:
		return float64(t), t > 0
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil && f > 0
	default:
		return 0, false
	}
}

func unionKeys(responses []*model.Response, field func(*model.Response) map[string]interface{}) []string {
	seen := map[string]bool{}
	keys := []string{}
	for _, r := range responses {
		for k := range field(r) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func plainString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// ParseDate reads a listing bound: an RFC 3339 timestamp or a bare date,
// which means midnight UTC. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

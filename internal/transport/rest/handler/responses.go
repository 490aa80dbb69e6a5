package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"medform/internal/model"
	"medform/internal/service"
)

// utf8BOM lets spreadsheet tools detect the CSV encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ResponsesHandler serves the admin response endpoints
type ResponsesHandler struct {
	reportSvc *service.ReportService
	now       func() time.Time
}

// NewResponsesHandler creates a new responses handler
func NewResponsesHandler(reportSvc *service.ReportService) *ResponsesHandler {
	return &ResponsesHandler{reportSvc: reportSvc, now: time.Now}
}

// List handles GET /v1/admin/responses?from_date=&to_date=
func (h *ResponsesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	responses, err := h.reportSvc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if responses == nil {
		responses = []*model.Response{}
	}
	writeJSON(w, http.StatusOK, responses)
}

// Stats handles GET /v1/admin/responses/stats
func (h *ResponsesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportSvc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export handles GET /v1/admin/responses/export?format=csv|json|xlsx
func (h *ResponsesHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = service.FormatCSV
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render fully before writing so a failure can still become an error status
	var buf bytes.Buffer
	if format == service.FormatCSV {
		buf.Write(utf8BOM)
	}
	if err := h.reportSvc.Export(r.Context(), &buf, format, filter); err != nil {
		writeServiceError(w, err)
		return
	}

	contentType := "application/json"
	switch format {
	case service.FormatCSV:
		contentType = "text/csv; charset=utf-8"
	case service.FormatXLSX:
		contentType = xlsxContentType
	}
	filename := fmt.Sprintf("responses-%s.%s", h.now().UTC().Format("2006-01-02"), format)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseFilter reads from_date and to_date. Both accept RFC 3339 or a bare
// date; a bare date means midnight UTC.
func parseFilter(r *http.Request) (model.ResponseFilter, error) {
	var filter model.ResponseFilter
	q := r.URL.Query()

	from, err := service.ParseDate(q.Get("from_date"))
	if err != nil {
		return filter, fmt.Errorf("invalid from_date: %w", err)
	}
	to, err := service.ParseDate(q.Get("to_date"))
	if err != nil {
		return filter, fmt.Errorf("invalid to_date: %w", err)
	}
	filter.From = from
	filter.To = to
	return filter, nil
}

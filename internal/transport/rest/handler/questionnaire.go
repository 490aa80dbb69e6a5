package handler

import (
	"io"
	"net/http"

	"medform/internal/service"
)

const maxSpecSize = 1 << 20

// QuestionnaireHandler serves and publishes specifications
type QuestionnaireHandler struct {
	specSvc *service.SpecService
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(specSvc *service.SpecService) *QuestionnaireHandler {
	return &QuestionnaireHandler{specSvc: specSvc}
}

// Get handles GET /v1/questionnaire
func (h *QuestionnaireHandler) Get(w http.ResponseWriter, r *http.Request) {
	spec, err := h.specSvc.Current()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

// Publish handles PUT /v1/admin/questionnaire
func (h *QuestionnaireHandler) Publish(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSpecSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	spec, err := h.specSvc.Publish(r.Context(), raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questionnaire_id": spec.QuestionnaireID,
		"version":          spec.Version,
		"questions":        len(spec.Questions),
	})
}

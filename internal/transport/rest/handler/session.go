package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"medform/internal/service"
)

// SessionHandler handles respondent session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// StartRequest is the request body for opening a session
type StartRequest struct {
	Code string `json:"code"`
}

// AnswerRequest is the request body for answering the current question
type AnswerRequest struct {
	Value    interface{} `json:"value"`
	Timezone string      `json:"tz,omitempty"`
}

// SubmitRequest is the request body for retrying a submission
type SubmitRequest struct {
	Timezone string `json:"tz,omitempty"`
}

// ToggleRequest is the request body for a multiselect checkbox change
type ToggleRequest struct {
	Selected []string `json:"selected"`
	Value    string   `json:"value"`
	Checked  bool     `json:"checked"`
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Start(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Next handles POST /v1/sessions/{id}/next
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Next(r.Context(), mux.Vars(r)["id"], req.Value, submitMeta(r, req.Timezone))
	h.respond(w, view, err)
}

// Back handles POST /v1/sessions/{id}/back
func (h *SessionHandler) Back(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Back(r.Context(), mux.Vars(r)["id"])
	h.respond(w, view, err)
}

// Submit handles POST /v1/sessions/{id}/submit
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.sessionSvc.Submit(r.Context(), mux.Vars(r)["id"], submitMeta(r, req.Timezone))
	h.respond(w, view, err)
}

// Restart handles POST /v1/sessions/{id}/restart
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.Restart(r.Context(), mux.Vars(r)["id"])
	h.respond(w, view, err)
}

// Toggle handles POST /v1/sessions/{id}/toggle
func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	selected, err := h.sessionSvc.Toggle(r.Context(), mux.Vars(r)["id"], req.Selected, req.Value, req.Checked)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"selected": selected})
}

func (h *SessionHandler) respond(w http.ResponseWriter, view *service.SessionView, err error) {
	if err != nil {
		writeServiceErrorWithView(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// submitMeta builds the meta attached to a submission: the respondent's time
// zone (body first, then the X-Timezone header) and the user agent
func submitMeta(r *http.Request, tz string) map[string]interface{} {
	if tz == "" {
		tz = r.Header.Get("X-Timezone")
	}
	meta := map[string]interface{}{"tz": nil, "ua": nil}
	if tz != "" {
		meta["tz"] = tz
	}
	if ua := r.UserAgent(); ua != "" {
		meta["ua"] = ua
	}
	return meta
}

// decodeOptional decodes a JSON body, accepting an empty one
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

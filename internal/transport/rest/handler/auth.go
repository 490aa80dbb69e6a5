package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"medform/internal/cache"
	"medform/internal/engine"
	"medform/internal/model"
	"medform/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login handles POST /v1/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password required")
		return
	}

	resp, err := h.authSvc.Login(req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// errorBody carries the optional fields of an error response
type errorBody struct {
	Error      string               `json:"error"`
	Code       string               `json:"code,omitempty"`
	QuestionID string               `json:"question_id,omitempty"`
	Session    *service.SessionView `json:"session,omitempty"`
}

// writeServiceError maps domain errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, err error) {
	writeServiceErrorWithView(w, err, nil)
}

func writeServiceErrorWithView(w http.ResponseWriter, err error, view *service.SessionView) {
	var verr *engine.ValidationError
	var serr *engine.SubmissionError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Code: verr.Code, QuestionID: verr.QuestionID, Session: view})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: serr.Error(), Session: view})
	case errors.Is(err, engine.ErrInvalidTransition), errors.Is(err, cache.ErrSessionBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrSpecInvalid), errors.Is(err, engine.ErrSpecMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cache.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrVersionRetired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrPublishUnsupported):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownFormat):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNoSpecification), errors.Is(err, service.ErrAdminDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

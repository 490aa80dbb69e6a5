package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"medform/internal/service"
	"medform/internal/transport/rest/handler"
	"medform/internal/transport/rest/middleware"
	"medform/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	SpecService    *service.SpecService
	SessionService *service.SessionService
	ReportService  *service.ReportService
	AuthService    *service.AuthService
	WSHub          *ws.Hub
	Logger         zerolog.Logger
	CORSOrigins    []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	questionnaireHandler := handler.NewQuestionnaireHandler(c.SpecService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	responsesHandler := handler.NewResponsesHandler(c.ReportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.CORSOrigins, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.Logger(c.Logger))
	r.Use(middleware.Recovery(c.Logger))
	r.Use(middleware.CORS(c.CORSOrigins))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Respondent routes
	v1.HandleFunc("/questionnaire", questionnaireHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/back", sessionHandler.Back).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/restart", sessionHandler.Restart).Methods("POST", "OPTIONS")
	v1.HandleFunc("/sessions/{id}/toggle", sessionHandler.Toggle).Methods("POST", "OPTIONS")

	// Admin login and live feed (token in query param)
	v1.HandleFunc("/admin/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/ws/admin", wsHandler.AdminWS).Methods("GET")

	// Admin routes (require admin auth)
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/responses", responsesHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/responses/stats", responsesHandler.Stats).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/responses/export", responsesHandler.Export).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/questionnaire", questionnaireHandler.Publish).Methods("PUT", "OPTIONS")

	return r
}

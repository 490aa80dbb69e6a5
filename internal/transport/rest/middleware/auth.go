package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"medform/internal/service"
)

type contextKey string

const (
	AdminTokenIDKey contextKey = "adminTokenId"
	RequestIDKey    contextKey = "requestId"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireAdmin validates the admin JWT from the Authorization header.
// A missing header is 401, a bad or expired token 403.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims, err := m.authSvc.ValidateAdminToken(token)
		if errors.Is(err, service.ErrAdminDisabled) {
			writeJSONError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusForbidden, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), AdminTokenIDKey, claims.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdminTokenID extracts the admin token id from context
func GetAdminTokenID(ctx context.Context) string {
	if v := ctx.Value(AdminTokenIDKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"digitalmaturity/internal/model"
)

type contextKey string

const (
	OrganizationIDKey contextKey = "organizationId"
	AccessCodeKey     contextKey = "accessCode"
	RequestIDKey      contextKey = "requestId"
)

// TokenValidator checks organization JWTs and the admin key
type TokenValidator interface {
	ValidateToken(token string) (*model.OrganizationClaims, error)
	CheckAdminKey(key string) error
}

// AuthMiddleware provides organization JWT and admin key authentication
type AuthMiddleware struct {
	auth TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(auth TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireOrganization validates the organization JWT from the Authorization header
func (m *AuthMiddleware) RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			unauthorized(w, "Token mancante")
			return
		}

		claims, err := m.auth.ValidateToken(token)
		if err != nil {
			unauthorized(w, "Credenziali non valide")
			return
		}

		ctx := context.WithValue(r.Context(), OrganizationIDKey, claims.OrganizationID)
		ctx = context.WithValue(ctx, AccessCodeKey, claims.AccessCode)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin checks the X-Admin-Key header, falling back to the admin_key query param
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.auth.CheckAdminKey(AdminKey(r)); err != nil {
			unauthorized(w, "Chiave admin non valida")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminKey reads the admin key of a request
func AdminKey(r *http.Request) string {
	if key := r.Header.Get("X-Admin-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("admin_key")
}

// GetOrganizationID extracts the organization ID from context
func GetOrganizationID(ctx context.Context) string {
	if v, ok := ctx.Value(OrganizationIDKey).(string); ok {
		return v
	}
	return ""
}

// GetAccessCode extracts the access code from context
func GetAccessCode(ctx context.Context) string {
	if v, ok := ctx.Value(AccessCodeKey).(string); ok {
		return v
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
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
	return strings.TrimSpace(parts[1])
}

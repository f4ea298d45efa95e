package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itsmessk/infoziant-courses/http/response"
	"github.com/itsmessk/infoziant-courses/models"
	"github.com/itsmessk/infoziant-courses/services"
)

type contextKey string

const sessionKey contextKey = "session"

// TokenParser validates a bearer token and returns the session it carries.
type TokenParser interface {
	ParseToken(token string) (*services.Session, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// session in the request context.
func RequireAuth(auth TokenParser, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.ErrorResponse(w, http.StatusUnauthorized, "Missing or invalid authorization header")
			return
		}

		session, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin additionally checks the admin role.
func RequireAdmin(auth TokenParser, next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(auth, func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session == nil || session.Role != models.RoleAdmin {
			response.ErrorResponse(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *services.Session {
	session, _ := ctx.Value(sessionKey).(*services.Session)
	return session
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/aegisvault/internal/services"
)

// apiError represents a standardized API error response.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// jsonError writes a standardized JSON error response.
func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := apiError{}
	resp.Error.Code = code
	resp.Error.Message = message
	json.NewEncoder(w).Encode(resp)
}

// SessionContextKey is the context key for the authenticated session.
type SessionContextKey struct{}

// SessionValidator resolves bearer tokens. *services.AuthService satisfies it.
type SessionValidator interface {
	ValidateSession(token string) (*services.Session, error)
}

// BearerAuth returns middleware that requires a valid session bearer token.
func BearerAuth(sessions SessionValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or malformed authorization header")
				return
			}

			session, err := sessions.ValidateSession(token)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetSession retrieves the session from the context.
func GetSession(ctx context.Context) *services.Session {
	session, _ := ctx.Value(SessionContextKey{}).(*services.Session)
	return session
}

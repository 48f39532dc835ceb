package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

type contextKey int

const sessionKey contextKey = iota

// Verifier resolves a raw bearer token to a session. Satisfied by *Client;
// tests substitute a fake.
type Verifier interface {
	VerifyToken(token string) (*Session, error)
}

// FromContext returns the session attached by Middleware, or nil when the
// request never passed through it.
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(sessionKey).(*Session)
	return session
}

// Middleware rejects requests without a resolvable bearer token and attaches
// the session to the request context.
func Middleware(verifier Verifier, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				respondUnauthorized(w, "Unauthorized")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondUnauthorized(w, "Invalid authorization header format")
				return
			}

			session, err := verifier.VerifyToken(parts[1])
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					logger.WithError(err).Error("Failed to verify session token")
				}
				respondUnauthorized(w, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly gates a route on the provider's admin role claim. Must run after
// Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := FromContext(r.Context())
		if session == nil || session.Role != RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"filevault/internal/models"
	"filevault/internal/security"
)

type contextKey struct{}

var usernameKey contextKey

// Username returns the user set by RequireLogin.
func Username(ctx context.Context) string {
	name, _ := ctx.Value(usernameKey).(string)
	return name
}

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// RequireLogin lets only active sessions through. Anonymous and expired
// sessions are sent to the login page.
func RequireLogin(sessions *security.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			current := sessions.Current(r)

			switch sessions.State(r) {
			case models.SessionActive:
				next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), current.Username)))
				return
			case models.SessionExpired:
				logger.Info("session expired", "user", current.Username, "path", r.URL.Path)
				if err := sessions.Expire(w, r); err != nil {
					logger.Warn("failed to save expired session", "error", err)
				}
			}

			http.Redirect(w, r, "/", http.StatusFound)
		})
	}
}

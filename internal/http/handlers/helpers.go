package handlers

import (
	"log/slog"
	"net/http"

	"filevault/internal/http/views"
	"filevault/internal/security"
)

// flashRedirect leaves message for the next page and redirects to target. A
// failure to store the message is logged; the redirect happens regardless.
func flashRedirect(w http.ResponseWriter, r *http.Request, sessions *security.SessionStore, logger *slog.Logger, kind, message, target string) {
	if err := sessions.AddFlash(w, r, kind, message); err != nil {
		logger.Warn("failed to store flash message", "error", err)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func popFlashes(w http.ResponseWriter, r *http.Request, sessions *security.SessionStore, logger *slog.Logger) (success, errs []string) {
	flashes, err := sessions.Flashes(w, r, security.FlashSuccess, security.FlashError)
	if err != nil {
		logger.Warn("failed to read flash messages", "error", err)
	}
	return flashes[security.FlashSuccess], flashes[security.FlashError]
}

func render(w http.ResponseWriter, renderer *views.Renderer, logger *slog.Logger, name string, data any) {
	if err := renderer.Render(w, http.StatusOK, name, data); err != nil {
		logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"filevault/internal/apperr"
	"filevault/internal/http/views"
	"filevault/internal/security"
	"filevault/internal/service"
)

type AuthHandler struct {
	auth     service.AuthService
	sessions *security.SessionStore
	views    *views.Renderer
	log      *slog.Logger
}

func NewAuthHandler(auth service.AuthService, sessions *security.SessionStore, renderer *views.Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		views:    renderer,
		log:      logger.With("component", "auth"),
	}
}

// LoginPage renders the login form with any pending flash messages.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	page := views.Page{Title: "Login"}
	page.Success, page.Errors = popFlashes(w, r, h.sessions, h.log)
	render(w, h.views, h.log, "login.html", page)
}

func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	page := views.Page{Title: "Sign up"}
	_, page.Errors = popFlashes(w, r, h.sessions, h.log)
	render(w, h.views, h.log, "signup.html", page)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	form := service.SignupForm{
		Username:        r.PostFormValue("username"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}

	user, err := h.auth.Signup(r.Context(), form)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			h.log.Info("signup rejected", "user", form.Username, "reason", err)
		} else {
			h.log.Error("Error during signup", "user", form.Username, "error", err)
		}
		flashRedirect(w, r, h.sessions, h.log, security.FlashError,
			apperr.Message(err, "Error during signup"), "/signup")
		return
	}

	h.log.Info("user signed up", "user", user.Name)
	flashRedirect(w, r, h.sessions, h.log, security.FlashSuccess,
		"Successfully signed up! Login after signup.", "/")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	form := service.LoginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	user, err := h.auth.Login(r.Context(), form)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindAuth, apperr.KindValidation:
			h.log.Info("login failed", "user", form.Username, "reason", err)
		default:
			h.log.Error("Error during login", "user", form.Username, "error", err)
		}
		flashRedirect(w, r, h.sessions, h.log, security.FlashError,
			apperr.Message(err, "Error during login"), "/")
		return
	}

	if err := h.sessions.Establish(w, r, user.Name); err != nil {
		h.log.Error("Error during login", "user", user.Name, "error", err)
		flashRedirect(w, r, h.sessions, h.log, security.FlashError, "Error during login", "/")
		return
	}

	h.log.Info("user logged in", "user", user.Name)
	http.Redirect(w, r, "/home", http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	username := h.sessions.Current(r).Username
	if err := h.sessions.Invalidate(w, r); err != nil {
		h.log.Error("Error during logout", "user", username, "error", err)
	} else if username != "" {
		h.log.Info("user logged out", "user", username)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

package router

import (
	"log/slog"
	"net/http"

	"filevault/internal/http/handlers"
	"filevault/internal/http/middleware"
	"filevault/internal/http/views"
	"filevault/internal/security"

	"github.com/gorilla/mux"
)

func Setup(authHandler *handlers.AuthHandler, fileHandler *handlers.FileHandler, sessionStore *security.SessionStore, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger.With("component", "http")))

	requireLogin := middleware.RequireLogin(sessionStore, logger.With("component", "session"))
	protected := func(h http.HandlerFunc) http.Handler {
		return requireLogin(h)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	r.HandleFunc("/", authHandler.LoginPage).Methods("GET")
	r.HandleFunc("/signup", authHandler.SignupPage).Methods("GET")
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	r.Handle("/home", protected(fileHandler.Home)).Methods("GET")
	r.Handle("/upload", protected(fileHandler.UploadFile)).Methods("POST")
	r.Handle("/view/{filename}", protected(fileHandler.ViewFile)).Methods("GET")
	r.Handle("/search", protected(fileHandler.Search)).Methods("GET")
	r.Handle("/uploads/{username}/{filename}", protected(fileHandler.DownloadFile)).Methods("GET")

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", views.Static()))

	return r
}

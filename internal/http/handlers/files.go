package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/mux"

	"filevault/internal/apperr"
	"filevault/internal/http/middleware"
	"filevault/internal/http/views"
	"filevault/internal/security"
	"filevault/internal/storage"
)

// defaultEmbedType is used when the content of a file cannot be identified.
const defaultEmbedType = "application/pdf"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

type FileHandler struct {
	files         *storage.FileStore
	sessions      *security.SessionStore
	views         *views.Renderer
	log           *slog.Logger
	maxUploadSize int64
}

// NewFileHandler builds the handler. maxUploadSize <= 0 accepts any size.
func NewFileHandler(files *storage.FileStore, sessions *security.SessionStore, renderer *views.Renderer, logger *slog.Logger, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		files:         files,
		sessions:      sessions,
		views:         renderer,
		log:           logger.With("component", "files"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *FileHandler) Home(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())

	page := views.Page{Title: "Home", Username: username}
	page.Success, page.Errors = popFlashes(w, r, h.sessions, h.log)

	files, err := h.files.List(username)
	if err != nil {
		h.log.Error("failed to list files", "user", username, "error", err)
		page.Errors = append(page.Errors, "Could not load your files.")
	}
	page.Files = files

	render(w, h.views, h.log, "home.html", page)
}

func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())

	name, size, err := h.receive(w, r, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			h.log.Warn("upload rejected", "user", username, "reason", err)
		} else {
			h.log.Error("Error during file upload", "user", username, "error", err)
		}
		flashRedirect(w, r, h.sessions, h.log, security.FlashError,
			apperr.Message(err, "Error during file upload"), "/home")
		return
	}

	h.log.Info("file uploaded", "user", username, "file", name, "size", size)
	flashRedirect(w, r, h.sessions, h.log, security.FlashSuccess, "File uploaded successfully!", "/home")
}

// receive reads the single "file" part of a multipart body into the user's
// directory.
func (h *FileHandler) receive(w http.ResponseWriter, r *http.Request, username string) (string, int64, error) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", 0, apperr.ErrUploadTooLarge
		}
		return "", 0, fmt.Errorf("%w: %v", apperr.ErrBadUpload, err)
	}
	defer r.MultipartForm.RemoveAll()

	parts := r.MultipartForm.File["file"]
	if len(parts) != 1 {
		return "", 0, fmt.Errorf("%w: got %d parts", apperr.ErrBadUpload, len(parts))
	}

	src, err := parts[0].Open()
	if err != nil {
		return "", 0, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name, err := storage.CleanFilename(parts[0].Filename)
	if err != nil {
		return "", 0, err
	}
	size, err := h.files.Save(username, name, src)
	if err != nil {
		return "", 0, err
	}
	return name, size, nil
}

// Search renders the home view filtered by the keyword query parameter.
func (h *FileHandler) Search(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())

	query := r.URL.Query()
	if !query.Has("keyword") {
		http.Error(w, "Search keyword required", http.StatusBadRequest)
		return
	}
	keyword := query.Get("keyword")

	page := views.Page{Title: "Home", Username: username, Keyword: keyword}
	files, err := h.files.Search(username, keyword)
	if err != nil {
		h.log.Error("failed to search files", "user", username, "keyword", keyword, "error", err)
		page.Errors = append(page.Errors, "Could not search your files.")
	}
	page.Files = files

	render(w, h.views, h.log, "home.html", page)
}

// ViewFile renders an inline viewer for one of the user's files.
func (h *FileHandler) ViewFile(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	filename := mux.Vars(r)["filename"]

	path, err := h.files.Resolve(username, filename)
	if errors.Is(err, apperr.ErrFileNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to resolve file", "user", username, "file", filename, "error", err)
		flashRedirect(w, r, h.sessions, h.log, security.FlashError, "Error opening file", "/home")
		return
	}

	contentType := defaultEmbedType
	if detected, err := storage.DetectType(path); err != nil {
		h.log.Warn("failed to detect content type", "user", username, "file", filename, "error", err)
	} else if detected != "application/octet-stream" {
		contentType = detected
	}

	render(w, h.views, h.log, "view.html", views.Embed{
		Source:      "/uploads/" + url.PathEscape(username) + "/" + url.PathEscape(filename),
		ContentType: contentType,
	})
}

// DownloadFile serves the raw bytes of a file to its owner. Other users get
// a 404, the same as for a file that does not exist.
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	username := middleware.Username(r.Context())
	vars := mux.Vars(r)
	if vars["username"] != username {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	path, err := h.files.Resolve(username, vars["filename"])
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}

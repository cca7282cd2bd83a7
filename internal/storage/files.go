package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"filevault/internal/apperr"
)

// tempPrefix marks uploads that are still being written. They never show up
// in listings.
const tempPrefix = ".upload-"

// FileStore keeps each user's files flat in <root>/<username>.
type FileStore struct {
	root string
}

func New(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// UserDir returns the directory that holds username's files.
func (s *FileStore) UserDir(username string) (string, error) {
	if !validName(username) {
		return "", fmt.Errorf("user directory %q: %w", username, apperr.ErrInvalidInput)
	}
	return filepath.Join(s.root, username), nil
}

// EnsureUserDir creates the user's directory if it is missing.
func (s *FileStore) EnsureUserDir(username string) (string, error) {
	dir, err := s.UserDir(username)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user directory: %w", err)
	}
	return dir, nil
}

// List returns the names of the user's files in lexical order. A user without
// a directory has no files.
func (s *FileStore) List(username string) ([]string, error) {
	dir, err := s.UserDir(username)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list user directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Search returns the user's files whose names contain keyword, ignoring case.
func (s *FileStore) Search(username, keyword string) ([]string, error) {
	files, err := s.List(username)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	matched := make([]string, 0, len(files))
	for _, name := range files {
		if strings.Contains(strings.ToLower(name), needle) {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// Resolve returns the path of an existing file owned by username.
func (s *FileStore) Resolve(username, filename string) (string, error) {
	dir, err := s.UserDir(username)
	if err != nil {
		return "", err
	}
	if !validName(filename) || strings.HasPrefix(filename, tempPrefix) {
		return "", apperr.ErrFileNotFound
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.ErrFileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", apperr.ErrFileNotFound
	}
	return path, nil
}

// Save stores src as filename in the user's directory and returns the number
// of bytes written. The content is written to a temporary file first and then
// linked into place, so readers never see a partial file and an existing file
// is never replaced.
func (s *FileStore) Save(username, filename string, src io.Reader) (int64, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return 0, err
	}
	dir, err := s.EnsureUserDir(username)
	if err != nil {
		return 0, err
	}

	tmpPath := filepath.Join(dir, tempPrefix+uuid.NewString())
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	if err := os.Link(tmpPath, filepath.Join(dir, name)); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%s: %w", name, apperr.ErrFileExists)
		}
		return 0, fmt.Errorf("link file: %w", err)
	}
	return written, nil
}

// DetectType sniffs the MIME type of the file at path.
func DetectType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// CleanFilename reduces a client supplied name to its base name and rejects
// names that cannot be stored.
func CleanFilename(filename string) (string, error) {
	// Browsers on Windows may send a full path.
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if !validName(name) || strings.HasPrefix(name, tempPrefix) {
		return "", fmt.Errorf("%q: %w", filename, apperr.ErrInvalidFilename)
	}
	return name, nil
}

// validName accepts a single, non-special path element.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return true
}

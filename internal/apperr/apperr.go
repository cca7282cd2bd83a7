package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUserExists is returned when a signup name is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrPasswordMismatch is returned when the confirmation does not match the password.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidInput is returned when a form fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrKeywordRequired is returned when a search has no keyword parameter.
	ErrKeywordRequired = errors.New("search keyword required")
	// ErrInvalidFilename is returned for empty or path-like file names.
	ErrInvalidFilename = errors.New("invalid file name")
	// ErrFileExists is returned when an upload would replace an existing file.
	ErrFileExists = errors.New("file already exists")
	// ErrBadUpload is returned when the multipart body does not carry exactly one file.
	ErrBadUpload = errors.New("exactly one file is required")
	// ErrUploadTooLarge is returned when the body exceeds the configured limit.
	ErrUploadTooLarge = errors.New("upload too large")

	// ErrUserNotFound is returned when no user has the given name.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword is returned when the password does not match the stored hash.
	ErrWrongPassword = errors.New("wrong password")

	// ErrFileNotFound is returned when a file is missing from the user's directory.
	ErrFileNotFound = errors.New("file not found")
)

// Kind classifies an error for the handler boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindStore
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindStore:
		return "store"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// StoreError wraps a connectivity or query failure from a credential backend.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Store wraps err as a StoreError. A nil err stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// KindOf reports the kind of err, looking through wrapping.
func KindOf(err error) Kind {
	var storeErr *StoreError
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrUserExists),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrKeywordRequired),
		errors.Is(err, ErrInvalidFilename),
		errors.Is(err, ErrFileExists),
		errors.Is(err, ErrBadUpload),
		errors.Is(err, ErrUploadTooLarge):
		return KindValidation
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrWrongPassword):
		return KindAuth
	case errors.Is(err, ErrFileNotFound):
		return KindNotFound
	case errors.As(err, &storeErr):
		return KindStore
	default:
		return KindInternal
	}
}

// Message returns the text shown to the user for err, or fallback when err
// carries nothing the user should see.
func Message(err error, fallback string) string {
	switch {
	case errors.Is(err, ErrUserExists):
		return "User already exists. Please choose a different username."
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match. Please re-enter."
	case errors.Is(err, ErrInvalidInput):
		return "Please fill in a valid username and password."
	case errors.Is(err, ErrUserNotFound):
		return "User name cannot be found. Please sign up."
	case errors.Is(err, ErrWrongPassword):
		return "Wrong Password"
	case errors.Is(err, ErrInvalidFilename):
		return "That file name is not allowed."
	case errors.Is(err, ErrFileExists):
		return "A file with that name already exists."
	case errors.Is(err, ErrBadUpload):
		return "Please choose exactly one file to upload."
	case errors.Is(err, ErrUploadTooLarge):
		return "The file is too large."
	case errors.Is(err, ErrFileNotFound):
		return "File not found"
	default:
		return fallback
	}
}

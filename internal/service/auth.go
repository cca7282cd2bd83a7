package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"filevault/internal/apperr"
	"filevault/internal/db"
	"filevault/internal/models"
	"filevault/internal/security"
)

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Username        string `validate:"required,max=64,dirname"`
	Password        string `validate:"required,max=72"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// AuthService handles signup and login against a credential store.
type AuthService interface {
	Signup(ctx context.Context, form SignupForm) (*models.User, error)
	Login(ctx context.Context, form LoginForm) (*models.User, error)
}

type authService struct {
	users    db.UserStore
	validate *validator.Validate
}

func NewAuthService(users db.UserStore) AuthService {
	return &authService{
		users:    users,
		validate: NewValidator(),
	}
}

// NewValidator returns a validator that also knows the dirname rule: a value
// usable as a single directory name.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dirname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "." && name != ".." &&
			!strings.HasPrefix(name, ".") &&
			!strings.ContainsAny(name, "/\\\x00") &&
			strings.TrimSpace(name) == name
	})
	return v
}

// Signup creates a user. A well-formed name is checked against the store
// before the remaining fields, so a taken name is reported ahead of any
// password problem. The store's unique index settles any race with a
// concurrent signup.
func (s *authService) Signup(ctx context.Context, form SignupForm) (*models.User, error) {
	if err := s.validate.StructPartial(form, "Username"); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if err := s.ensureAvailable(ctx, form.Username); err != nil {
		return nil, err
	}

	if err := s.validate.Struct(form); err != nil {
		if isMismatchOnly(err) {
			return nil, apperr.ErrPasswordMismatch
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	hashedPassword, err := security.HashPassword(form.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, form.Username, hashedPassword)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) ensureAvailable(ctx context.Context, name string) error {
	_, err := s.users.FindUserByName(ctx, name)
	switch {
	case err == nil:
		return apperr.ErrUserExists
	case errors.Is(err, apperr.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Login checks the credentials and returns the stored user.
func (s *authService) Login(ctx context.Context, form LoginForm) (*models.User, error) {
	if err := s.validate.Struct(form); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	user, err := s.users.FindUserByName(ctx, form.Username)
	if err != nil {
		return nil, err
	}

	if !security.ComparePasswords(user.PasswordHash, form.Password) {
		return nil, apperr.ErrWrongPassword
	}
	return user, nil
}

// isMismatchOnly reports whether the only failed rule is the password
// confirmation.
func isMismatchOnly(err error) bool {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return false
	}
	for _, fe := range fieldErrs {
		if fe.Tag() != "eqfield" {
			return false
		}
	}
	return true
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filevault/internal/apperr"
	"filevault/internal/http/views"
	"filevault/internal/logging"
	"filevault/internal/models"
	"filevault/internal/security"
	"filevault/internal/service"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, form service.SignupForm) (*models.User, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, form service.LoginForm) (*models.User, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newAuthHandler(t *testing.T, auth service.AuthService) (*AuthHandler, *security.SessionStore) {
	t.Helper()
	renderer, err := views.NewRenderer()
	require.NoError(t, err)

	secret := []byte("0123456789abcdef0123456789abcdef")
	sessions := security.NewSessionStore(
		security.NewCookieBackend(secret, security.CookieOptions(time.Hour, false)),
		time.Hour,
	)
	return NewAuthHandler(auth, sessions, renderer, logging.Discard()), sessions
}

func postForm(target string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// followFlash replays the cookies of w on a GET and returns the pending flashes.
func followFlash(t *testing.T, sessions *security.SessionStore, w *httptest.ResponseRecorder) map[string][]string {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	flashes, err := sessions.Flashes(httptest.NewRecorder(), r, security.FlashSuccess, security.FlashError)
	require.NoError(t, err)
	return flashes
}

func TestAuthHandler_Signup(t *testing.T) {
	tests := []struct {
		name         string
		result       *models.User
		err          error
		wantLocation string
		wantKind     string
		wantMessage  string
	}{
		{
			name:         "created",
			result:       &models.User{Name: "alice"},
			wantLocation: "/",
			wantKind:     security.FlashSuccess,
			wantMessage:  "Successfully signed up! Login after signup.",
		},
		{
			name:         "duplicate",
			err:          apperr.ErrUserExists,
			wantLocation: "/signup",
			wantKind:     security.FlashError,
			wantMessage:  "User already exists. Please choose a different username.",
		},
		{
			name:         "store failure",
			err:          apperr.Store("find user", errors.New("connection refused")),
			wantLocation: "/signup",
			wantKind:     security.FlashError,
			wantMessage:  "Error during signup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthService)
			form := service.SignupForm{Username: "alice", Password: "pw", ConfirmPassword: "pw"}
			auth.On("Signup", mock.Anything, form).Return(tt.result, tt.err)
			h, sessions := newAuthHandler(t, auth)

			w := httptest.NewRecorder()
			h.Signup(w, postForm("/signup", url.Values{
				"username":        {"alice"},
				"password":        {"pw"},
				"confirmPassword": {"pw"},
			}))

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			assert.Equal(t, []string{tt.wantMessage}, followFlash(t, sessions, w)[tt.wantKind])
			auth.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login_StoreFailure(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Login", mock.Anything, service.LoginForm{Username: "alice", Password: "pw"}).
		Return(nil, apperr.Store("find user", errors.New("timeout")))
	h, sessions := newAuthHandler(t, auth)

	w := httptest.NewRecorder()
	h.Login(w, postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}}))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, []string{"Error during login"}, followFlash(t, sessions, w)[security.FlashError])
	auth.AssertExpectations(t)
}

func TestAuthHandler_Login_EstablishesSession(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("Login", mock.Anything, service.LoginForm{Username: "alice", Password: "pw"}).
		Return(&models.User{Name: "alice"}, nil)
	h, sessions := newAuthHandler(t, auth)

	w := httptest.NewRecorder()
	h.Login(w, postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}}))
	assert.Equal(t, "/home", w.Header().Get("Location"))

	r := httptest.NewRequest(http.MethodGet, "/home", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	assert.True(t, sessions.IsAuthenticated(r))
	assert.Equal(t, "alice", sessions.Username(r))
}

func TestAuthHandler_LoginPage(t *testing.T) {
	h, _ := newAuthHandler(t, new(MockAuthService))

	w := httptest.NewRecorder()
	h.LoginPage(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)
}

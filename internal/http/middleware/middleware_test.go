package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/logging"
	"filevault/internal/security"
)

func newSessions() *security.SessionStore {
	secret := []byte("0123456789abcdef0123456789abcdef")
	return security.NewSessionStore(
		security.NewCookieBackend(secret, security.CookieOptions(time.Hour, false)),
		time.Hour,
	)
}

func TestRequireLogin_RedirectsAnonymous(t *testing.T) {
	called := false
	h := RequireLogin(newSessions(), logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/home", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRequireLogin_PassesActiveSession(t *testing.T) {
	sessions := newSessions()

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Establish(login, httptest.NewRequest(http.MethodPost, "/login", nil), "alice"))

	var got string
	h := RequireLogin(sessions, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Username(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/home", nil)
	for _, c := range login.Result().Cookies() {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", got)
}

func TestRecover(t *testing.T) {
	h := Recover(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestLogger_PassesThrough(t *testing.T) {
	h := Logger(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequireLogin_ExpiredSession(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	sessions := security.NewSessionStore(
		security.NewCookieBackend(secret, security.CookieOptions(time.Hour, false)),
		time.Millisecond,
	)

	login := httptest.NewRecorder()
	require.NoError(t, sessions.Establish(login, httptest.NewRequest(http.MethodPost, "/login", nil), "alice"))
	time.Sleep(10 * time.Millisecond)

	called := false
	h := RequireLogin(sessions, logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/home", nil)
	for _, c := range login.Result().Cookies() {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// The redirect carries a cleared session with the expiry notice.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		next.AddCookie(c)
	}
	assert.False(t, sessions.IsAuthenticated(next))
	flashes, err := sessions.Flashes(httptest.NewRecorder(), next, security.FlashError)
	require.NoError(t, err)
	assert.Equal(t, []string{"Your session has expired. Please log in again."}, flashes[security.FlashError])
}

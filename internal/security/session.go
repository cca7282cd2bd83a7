package security

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"

	"filevault/internal/models"
)

const (
	sessionName = "vault_session"

	keyLoggedIn  = "loggedIn"
	keyUsername  = "username"
	keyExpiresAt = "expiresAt"
)

// Flash kinds understood by the views.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// SessionStore tracks login state on top of a gorilla/sessions backend.
// A session moves Anonymous -> Active on Establish and back to Anonymous on
// Invalidate. An Active session past its deadline reads as Expired and grants
// no access.
type SessionStore struct {
	store sessions.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewSessionStore(store sessions.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// CookieOptions are the cookie settings shared by every backend.
func CookieOptions(ttl time.Duration, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieBackend keeps the whole session in a signed cookie.
func NewCookieBackend(secret []byte, opts *sessions.Options) sessions.Store {
	store := sessions.NewCookieStore(secret)
	store.Options = opts
	return store
}

// NewFilesystemBackend keeps sessions as files under dir.
func NewFilesystemBackend(dir string, secret []byte, opts *sessions.Options) sessions.Store {
	store := sessions.NewFilesystemStore(dir, secret)
	store.Options = opts
	return store
}

// session never returns nil. A cookie that no longer decodes (rotated secret,
// evicted server-side entry) yields a fresh anonymous session.
func (s *SessionStore) session(r *http.Request) *sessions.Session {
	session, _ := s.store.Get(r, sessionName)
	if session == nil {
		session = sessions.NewSession(s.store, sessionName)
		session.IsNew = true
	}
	return session
}

// Current returns the identity stored in the request's session.
func (s *SessionStore) Current(r *http.Request) models.Session {
	session := s.session(r)

	var current models.Session
	current.LoggedIn, _ = session.Values[keyLoggedIn].(bool)
	current.Username, _ = session.Values[keyUsername].(string)
	if unix, ok := session.Values[keyExpiresAt].(int64); ok {
		current.ExpiresAt = time.Unix(unix, 0)
	}
	return current
}

func (s *SessionStore) State(r *http.Request) models.SessionState {
	return s.Current(r).State(s.now())
}

func (s *SessionStore) IsAuthenticated(r *http.Request) bool {
	return s.State(r) == models.SessionActive
}

// Username returns the logged in user, or "" when the session is not active.
func (s *SessionStore) Username(r *http.Request) string {
	current := s.Current(r)
	if current.State(s.now()) != models.SessionActive {
		return ""
	}
	return current.Username
}

// Establish marks the session as logged in for username and saves it.
func (s *SessionStore) Establish(w http.ResponseWriter, r *http.Request, username string) error {
	session := s.session(r)

	// New server-side ID on login. The record under the old ID is dropped.
	s.discard(r, session)
	session.ID = ""
	session.Values[keyLoggedIn] = true
	session.Values[keyUsername] = username
	if s.ttl > 0 {
		session.Values[keyExpiresAt] = s.now().Add(s.ttl).Unix()
	} else {
		delete(session.Values, keyExpiresAt)
	}
	return session.Save(r, w)
}

// discard removes the server-side record of session without touching the
// response. Backends that keep everything in the cookie have no ID and are
// skipped. A failed delete leaves an orphan record that ages out with its TTL.
func (s *SessionStore) discard(r *http.Request, session *sessions.Session) {
	if session.IsNew || session.ID == "" {
		return
	}
	opts := *session.Options
	opts.MaxAge = -1

	stale := sessions.NewSession(s.store, sessionName)
	stale.ID = session.ID
	stale.Options = &opts
	_ = s.store.Save(r, discardWriter{header: http.Header{}}, stale)
}

// discardWriter swallows the deletion cookie written while discarding.
type discardWriter struct {
	header http.Header
}

func (d discardWriter) Header() http.Header         { return d.header }
func (d discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (d discardWriter) WriteHeader(int)             {}

// Invalidate clears the session and expires its cookie.
func (s *SessionStore) Invalidate(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)

	for key := range session.Values {
		delete(session.Values, key)
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Expire drops the identity of a session whose deadline has passed and leaves
// a message for the login page. The cookie itself stays so the message
// survives the redirect.
func (s *SessionStore) Expire(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)

	delete(session.Values, keyLoggedIn)
	delete(session.Values, keyUsername)
	delete(session.Values, keyExpiresAt)
	session.AddFlash("Your session has expired. Please log in again.", FlashError)
	return session.Save(r, w)
}

func (s *SessionStore) AddFlash(w http.ResponseWriter, r *http.Request, kind, message string) error {
	session := s.session(r)
	session.AddFlash(message, kind)
	return session.Save(r, w)
}

// Flashes pops the pending messages of each kind. Messages are returned once.
func (s *SessionStore) Flashes(w http.ResponseWriter, r *http.Request, kinds ...string) (map[string][]string, error) {
	session := s.session(r)

	out := make(map[string][]string, len(kinds))
	found := false
	for _, kind := range kinds {
		for _, flash := range session.Flashes(kind) {
			if msg, ok := flash.(string); ok {
				out[kind] = append(out[kind], msg)
				found = true
			}
		}
	}
	if !found {
		return out, nil
	}
	return out, session.Save(r, w)
}

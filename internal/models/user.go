package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	Name         string    `json:"name" gorm:"uniqueIndex;size:64;not null" bson:"name"`
	PasswordHash string    `json:"-" gorm:"column:password;size:255;not null" bson:"password"` // Don't expose in JSON
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// NewUser builds a user record with a fresh ID.
func NewUser(name, passwordHash string) *User {
	return &User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// SessionState is the lifecycle position of a browser session.
type SessionState int

const (
	SessionAnonymous SessionState = iota
	SessionActive
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Session is the identity carried by a session cookie.
type Session struct {
	LoggedIn  bool
	Username  string
	ExpiresAt time.Time
}

// State reports where s sits in the login lifecycle at now.
func (s Session) State(now time.Time) SessionState {
	switch {
	case !s.LoggedIn || s.Username == "":
		return SessionAnonymous
	case !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt):
		return SessionExpired
	default:
		return SessionActive
	}
}

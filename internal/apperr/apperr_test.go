package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindInternal},
		{"duplicate user", ErrUserExists, KindValidation},
		{"wrapped mismatch", fmt.Errorf("signup: %w", ErrPasswordMismatch), KindValidation},
		{"missing keyword", ErrKeywordRequired, KindValidation},
		{"unknown user", ErrUserNotFound, KindAuth},
		{"wrong password", ErrWrongPassword, KindAuth},
		{"missing file", fmt.Errorf("view: %w", ErrFileNotFound), KindNotFound},
		{"store failure", Store("find user", errors.New("connection refused")), KindStore},
		{"other", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("create user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store create user: connection refused", err.Error())
	assert.Nil(t, Store("noop", nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Wrong Password", Message(ErrWrongPassword, "x"))
	assert.Equal(t, "User already exists. Please choose a different username.",
		Message(fmt.Errorf("create: %w", ErrUserExists), "x"))
	assert.Equal(t, "Error during login", Message(Store("find", errors.New("down")), "Error during login"))
}

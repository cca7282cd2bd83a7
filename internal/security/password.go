package security

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ValidatePassword(password string) bool {
	return len(password) > 0 && len(password) <= maxPasswordBytes
}

// ComparePasswords reports whether password matches hashedPassword. A
// malformed hash never matches.
func ComparePasswords(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

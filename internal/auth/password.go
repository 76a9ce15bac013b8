package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Credential primitives for the storefront's local accounts. Passwords are
// bcrypt-hashed; API tokens and session secrets are random hex, and only the
// SHA-256 digest of a token ever reaches the database.

const (
	// MinPasswordLength applies to customer and admin accounts alike.
	MinPasswordLength = 12

	// maxPasswordBytes is bcrypt's hard input limit.
	maxPasswordBytes = 72

	// secretBytes of entropy go into API tokens and session secrets.
	secretBytes = 32
)

var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

func checkPasswordLength(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword validates the password's length and returns its bcrypt hash.
func HashPassword(password string, cost int) (string, error) {
	if err := checkPasswordLength(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
// A mismatch comes back as ErrInvalidPassword.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return err
	}
	return nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// GenerateAPIToken mints a bearer token. The plaintext is shown to the user
// exactly once; callers persist only the hash.
func GenerateAPIToken() (plaintext string, hash string, err error) {
	plaintext, err = randomHex(secretBytes)
	if err != nil {
		return "", "", err
	}
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the hex SHA-256 digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateSessionSecret returns a fresh secret for cookie signing, used when
// the deployment does not configure one.
func GenerateSessionSecret() (string, error) {
	return randomHex(secretBytes)
}

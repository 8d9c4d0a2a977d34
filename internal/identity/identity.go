// Package identity derives the stable, non-reversible key that ties lists to
// an email address.
//
// The key is an unsalted SHA-256 of the normalized address. Leaving out the
// salt is what lets independently created lists share one key, and therefore
// one recovery email. It also means anyone holding a candidate address can
// recompute the key and test membership; the key is a pseudonym, not a secret.
package identity

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/Kerhoff/BlindList/internal/token"
)

// MaxEmailLength is the longest address accepted (RFC 5321 path limit).
const MaxEmailLength = 254

// ErrInvalidEmail is returned for anything that is not a single bare address.
var ErrInvalidEmail = errors.New("valid email is required")

// Key identifies a bound email without containing it.
type Key string

// Normalize lowercases and trims an email address.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks that email is a single bare address such as
// "someone@example.com". Display names and address lists are rejected.
func Validate(email string) error {
	n := Normalize(email)
	if n == "" || len(n) > MaxEmailLength || !strings.Contains(n, "@") {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(n)
	if err != nil || addr.Name != "" || addr.Address != n {
		return ErrInvalidEmail
	}
	return nil
}

// Derive returns the identity key for email.
func Derive(email string) Key {
	return Key(token.HashSHA256Hex(Normalize(email)))
}

// String returns the hex form stored in the database.
func (k Key) String() string {
	return string(k)
}

// Package token mints the opaque secrets BlindList hands out: capability
// tokens for lists and one-time recovery tokens for the email flow.
//
// Both are drawn from crypto/rand. A failure of the secure source is
// returned to the caller; there is no fallback source.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// CapabilityLength is the number of characters in a capability token.
	CapabilityLength = 32
	// RecoveryBytes is the amount of randomness in a recovery token.
	RecoveryBytes = 32

	// alphabet has exactly 64 symbols, so masking a byte to 6 bits is unbiased.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
)

// ErrEntropy is returned when the secure random source cannot be read.
var ErrEntropy = errors.New("secure random source unavailable")

// Generator produces tokens from a random source.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r. A nil r means crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// NewCapabilityToken returns a 32 character URL-safe token (192 bits).
func (g *Generator) NewCapabilityToken() (string, error) {
	buf := make([]byte, CapabilityLength)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	for i, b := range buf {
		buf[i] = alphabet[b&63]
	}
	return string(buf), nil
}

// NewRecoveryToken returns 256 random bits, hex encoded.
func (g *Generator) NewRecoveryToken() (string, error) {
	buf := make([]byte, RecoveryBytes)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return hex.EncodeToString(buf), nil
}

// ValidCapabilityToken reports whether s has the shape of a capability token.
func ValidCapabilityToken(s string) bool {
	if len(s) != CapabilityLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// ValidRecoveryToken reports whether s has the shape of a recovery token.
func ValidRecoveryToken(s string) bool {
	if len(s) != RecoveryBytes*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s. Recovery tokens are stored
// only in this form.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

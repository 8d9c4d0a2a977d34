package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/BlindList/internal/repository"
)

// Errors returned by Service. Callers should compare with errors.Is.
var (
	// ErrNotFound covers unknown, malformed and wrong-kind tokens alike.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is a missing or malformed field. See InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidOrExpired is a recovery token that is unknown, used, or too old.
	ErrInvalidOrExpired = errors.New("invalid or expired token")
	// ErrDependency means the store or another backend could not be reached.
	ErrDependency = errors.New("dependency failure")
	// ErrRateLimited means the caller exhausted a budget. See RateLimitError.
	ErrRateLimited = errors.New("rate limited")
)

// InputError carries a user-facing validation message.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return "invalid input: " + e.Msg }

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(msg string) error {
	return &InputError{Msg: msg}
}

// RateLimitError tells the caller when to retry.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// Unwrap makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

func dependency(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDependency, err)
}

// storeErr keeps not-found distinct from every other store failure.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return dependency(op, err)
}

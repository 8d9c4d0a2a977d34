// Package ratelimit provides fixed-window counters that bound recovery
// requests, recovery redemptions and capability-token lookups.
//
// Window semantics: the first hit on a key starts a window of fixed length;
// hits beyond the limit inside that window are rejected. Keys are built by
// callers with Key.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrRateLimited is returned when a key has exhausted its budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable is returned when the counter backend cannot be reached.
	ErrUnavailable = errors.New("rate limiter unavailable")
)

// Limiter counts hits against a key.
type Limiter interface {
	// Allow records one hit on key. It returns ErrRateLimited, together with
	// the time until the window resets, once more than limit hits have been
	// seen inside window. A limit of zero or less always allows.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error)
}

// Scope names a budget.
type Scope string

const (
	ScopeRecoveryRequest Scope = "rrq"
	ScopeRecoveryRedeem  Scope = "rrd"
	ScopeTokenLookup     Scope = "tlk"
)

// Key joins a scope and its parts into a counter key, e.g. "bl:rrq:ip:1.2.3.4".
func Key(scope Scope, parts ...string) string {
	return "bl:" + string(scope) + ":" + strings.Join(parts, ":")
}

// Nop allows everything.
type Nop struct{}

// Allow implements Limiter.
func (Nop) Allow(context.Context, string, int, time.Duration) (time.Duration, error) {
	return 0, nil
}

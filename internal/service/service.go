package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/BlindList/internal/metrics"
	"github.com/Kerhoff/BlindList/internal/notify"
	"github.com/Kerhoff/BlindList/internal/ratelimit"
	"github.com/Kerhoff/BlindList/internal/repository"
	"github.com/Kerhoff/BlindList/internal/token"
)

// Queue accepts notifications for background delivery.
type Queue interface {
	Enqueue(msg notify.Message) bool
}

// Config holds the tunables the service needs.
type Config struct {
	FrontendURL         string
	RecoveryTTL         time.Duration
	MinRecoveryResponse time.Duration
	RateLimit           RateLimits
}

// RateLimits are fixed-window budgets; zero disables a check.
type RateLimits struct {
	Window          time.Duration
	RecoveryRequest int
	RecoveryRedeem  int
	TokenLookup     int
}

// Deps are the collaborators the service is built from.
type Deps struct {
	Lists   repository.ListRepository
	Items   repository.ItemRepository
	Tokens  *token.Generator
	Sender  notify.Sender
	Queue   Queue
	Limiter ratelimit.Limiter
	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// Service is the central business logic layer. It owns the capability model
// and the email recovery lifecycle; transports (HTTP, Telegram) call into it.
type Service struct {
	lists   repository.ListRepository
	items   repository.ItemRepository
	tokens  *token.Generator
	sender  notify.Sender
	queue   Queue
	limiter ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *logrus.Logger
	cfg     Config
	floor   responseFloor
	now     func() time.Time
}

// New creates a new Service with all required dependencies.
func New(cfg Config, deps Deps) (*Service, error) {
	if deps.Lists == nil || deps.Items == nil {
		return nil, errors.New("service: repositories are required")
	}
	if deps.Sender == nil || deps.Queue == nil {
		return nil, errors.New("service: notification sender and queue are required")
	}
	if deps.Logger == nil {
		return nil, errors.New("service: logger is required")
	}
	if cfg.RecoveryTTL <= 0 {
		return nil, errors.New("service: recovery TTL must be positive")
	}
	if deps.Tokens == nil {
		deps.Tokens = token.NewGenerator(nil)
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	return &Service{
		lists:   deps.Lists,
		items:   deps.Items,
		tokens:  deps.Tokens,
		sender:  deps.Sender,
		queue:   deps.Queue,
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		cfg:     cfg,
		floor:   newResponseFloor(cfg.MinRecoveryResponse),
		now:     time.Now,
	}, nil
}

type clientKey struct{}

// WithClient tags ctx with an identifier for the caller (an IP address, a
// chat ID) used to key per-client rate limits.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

func clientFrom(ctx context.Context) string {
	c, _ := ctx.Value(clientKey{}).(string)
	return c
}

// allow charges one hit against key. Exhausted budgets become
// *RateLimitError. failOpen decides what a broken limiter backend means.
func (s *Service) allow(ctx context.Context, scope ratelimit.Scope, limit int, failOpen bool, parts ...string) error {
	if limit <= 0 {
		return nil
	}
	retry, err := s.limiter.Allow(ctx, ratelimit.Key(scope, parts...), limit, s.cfg.RateLimit.Window)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrRateLimited):
		s.metrics.RateLimited.WithLabelValues(string(scope)).Inc()
		return &RateLimitError{RetryAfter: retry}
	case failOpen:
		s.logger.WithError(err).WithField("scope", scope).Warn("Rate limiter unavailable, allowing request")
		return nil
	default:
		return dependency("rate limiter", err)
	}
}

func (s *Service) creatorURL(tok string) string {
	return s.cfg.FrontendURL + "/list/creator/" + tok
}

func (s *Service) buyerURL(tok string) string {
	return s.cfg.FrontendURL + "/list/buyer/" + tok
}

func (s *Service) recoveryURL(tok string) string {
	return s.cfg.FrontendURL + "/verify-email/" + tok
}

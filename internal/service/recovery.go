package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Kerhoff/BlindList/internal/identity"
	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/notify"
	"github.com/Kerhoff/BlindList/internal/ratelimit"
	"github.com/Kerhoff/BlindList/internal/token"
)

// RecoveryAccepted is the message shown for every well-formed recovery
// request, whether or not any list matched.
const RecoveryAccepted = "If lists exist for this email, a link has been sent."

// RequestRecovery issues one recovery token covering every list bound to
// email and mails it. The outcome is the same whether zero or many lists
// match; delivery happens in the background and failures are only logged.
func (s *Service) RequestRecovery(ctx context.Context, email string) error {
	started := time.Now()
	defer s.floor.wait(ctx, started)

	if err := identity.Validate(email); err != nil {
		return invalidInput(err.Error())
	}
	key := identity.Derive(email)

	limit := s.cfg.RateLimit.RecoveryRequest
	if err := s.allow(ctx, ratelimit.ScopeRecoveryRequest, limit, false, "id", key.String()); err != nil {
		return err
	}
	if client := clientFrom(ctx); client != "" {
		if err := s.allow(ctx, ratelimit.ScopeRecoveryRequest, limit, false, "client", client); err != nil {
			return err
		}
	}

	s.metrics.RecoveryRequests.Inc()

	n, err := s.lists.CountRecoverable(ctx, key.String())
	if err != nil {
		return dependency("count recoverable lists", err)
	}
	if n == 0 {
		s.logger.Debug("Recovery requested for identity with no lists")
		return nil
	}

	raw, err := s.tokens.NewRecoveryToken()
	if err != nil {
		return dependency("generate recovery token", err)
	}
	updated, err := s.lists.SetRecoveryToken(ctx, key.String(), token.HashSHA256Hex(raw), s.now().UTC())
	if err != nil {
		return dependency("issue recovery token", err)
	}
	if updated == 0 {
		return nil
	}
	s.metrics.RecoveryFanout.Observe(float64(updated))

	ok := s.queue.Enqueue(notify.Message{
		To:   identity.Normalize(email),
		Kind: notify.KindRecoveryLink,
		Params: notify.Params{
			HomeURL:     s.cfg.FrontendURL,
			RecoveryURL: s.recoveryURL(raw),
			ExpiresIn:   s.cfg.RecoveryTTL,
		},
	})
	if !ok {
		s.logger.Warn("Recovery email dropped, notification queue unavailable")
	}
	s.logger.WithField("lists", updated).Info("Recovery token issued")
	return nil
}

// RedeemRecovery consumes a recovery token and returns the capability pairs
// of every list it covered, oldest first. A token works at most once; a
// second attempt, even a concurrent one, gets ErrInvalidOrExpired.
func (s *Service) RedeemRecovery(ctx context.Context, raw string) ([]models.RecoveredList, error) {
	if client := clientFrom(ctx); client != "" {
		if err := s.allow(ctx, ratelimit.ScopeRecoveryRedeem, s.cfg.RateLimit.RecoveryRedeem, false, "client", client); err != nil {
			return nil, err
		}
	}

	raw = strings.TrimSpace(raw)
	if !token.ValidRecoveryToken(raw) {
		s.metrics.RecoveryRedemptions.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidOrExpired
	}

	claims, err := s.lists.ClaimRecovery(ctx, token.HashSHA256Hex(strings.ToLower(raw)))
	if err != nil {
		return nil, dependency("claim recovery token", err)
	}

	now := s.now()
	out := make([]models.RecoveredList, 0, len(claims))
	for _, c := range claims {
		if !c.IdentityVerified || c.IssuedAt == nil || now.After(c.IssuedAt.Add(s.cfg.RecoveryTTL)) {
			continue
		}
		out = append(out, models.RecoveredList{
			Name:         c.Name,
			CreatorToken: c.CreatorToken,
			BuyerToken:   c.BuyerToken,
			CreatorURL:   s.creatorURL(c.CreatorToken),
			BuyerURL:     s.buyerURL(c.BuyerToken),
			CreatedAt:    c.CreatedAt,
		})
	}

	if len(out) == 0 {
		result := "invalid"
		if len(claims) > 0 {
			result = "expired"
		}
		s.metrics.RecoveryRedemptions.WithLabelValues(result).Inc()
		return nil, ErrInvalidOrExpired
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	s.metrics.RecoveryRedemptions.WithLabelValues("ok").Inc()
	s.logger.WithField("lists", len(out)).Info("Recovery token redeemed")
	return out, nil
}

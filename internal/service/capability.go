package service

import (
	"context"
	"errors"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/ratelimit"
	"github.com/Kerhoff/BlindList/internal/repository"
	"github.com/Kerhoff/BlindList/internal/token"
)

// Capability is the result of resolving a token: which list it names and
// what it may do there. Kind is CapabilityNone when the token names nothing.
type Capability struct {
	Kind models.CapabilityKind
	List *models.List
}

// Resolve looks a token up in the shared capability namespace. An unknown or
// malformed token yields a CapabilityNone result, not an error.
func (s *Service) Resolve(ctx context.Context, tok string) (Capability, error) {
	if err := s.allow(ctx, ratelimit.ScopeTokenLookup, s.cfg.RateLimit.TokenLookup, true, "client", clientFrom(ctx)); err != nil {
		return Capability{}, err
	}
	if !token.ValidCapabilityToken(tok) {
		return Capability{Kind: models.CapabilityNone}, nil
	}

	list, kind, err := s.lists.ResolveToken(ctx, tok)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Capability{Kind: models.CapabilityNone}, nil
		}
		return Capability{}, dependency("resolve token", err)
	}
	return Capability{Kind: kind, List: list}, nil
}

// require resolves tok and insists on kind. Unknown tokens and tokens of the
// other kind both come back as ErrNotFound.
func (s *Service) require(ctx context.Context, tok string, kind models.CapabilityKind) (*models.List, error) {
	c, err := s.Resolve(ctx, tok)
	if err != nil {
		return nil, err
	}
	if c.Kind != kind {
		s.metrics.Resolutions.WithLabelValues(string(kind), "not_found").Inc()
		return nil, ErrNotFound
	}
	s.metrics.Resolutions.WithLabelValues(string(kind), "ok").Inc()
	return c.List, nil
}

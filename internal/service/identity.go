package service

import (
	"context"

	"github.com/Kerhoff/BlindList/internal/identity"
	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/notify"
)

// BindWarning is reported when an email was bound but the confirmation
// message could not be delivered.
const BindWarning = "Email saved but failed to send confirmation email"

// BindResult reports the outcome of BindEmail. The binding itself always
// succeeded when a BindResult is returned.
type BindResult struct {
	Warning string `json:"warning,omitempty"`
}

// BindEmail attaches an email identity to the creator's list, replacing any
// earlier one, and mails the list's links to that address.
func (s *Service) BindEmail(ctx context.Context, creatorToken, email string) (*BindResult, error) {
	list, err := s.require(ctx, creatorToken, models.CapabilityCreator)
	if err != nil {
		return nil, err
	}
	if err := identity.Validate(email); err != nil {
		return nil, invalidInput(err.Error())
	}

	key := identity.Derive(email)
	if err := s.lists.BindIdentity(ctx, list.ID, key.String()); err != nil {
		return nil, storeErr("bind identity", err)
	}
	s.metrics.IdentitiesBound.Inc()

	log := s.logger.WithField("list_id", list.ID)
	log.Info("Email identity bound to list")

	err = s.sender.Send(ctx, identity.Normalize(email), notify.KindListLinks, notify.Params{
		HomeURL: s.cfg.FrontendURL,
		Lists: []notify.ListLink{{
			Name:       list.Name,
			CreatorURL: s.creatorURL(list.CreatorToken),
			BuyerURL:   s.buyerURL(list.BuyerToken),
		}},
	})
	if err != nil {
		s.metrics.Notifications.WithLabelValues(string(notify.KindListLinks), "failed").Inc()
		log.WithError(err).Warn("Failed to send list links email")
		return &BindResult{Warning: BindWarning}, nil
	}
	s.metrics.Notifications.WithLabelValues(string(notify.KindListLinks), "sent").Inc()
	return &BindResult{}, nil
}

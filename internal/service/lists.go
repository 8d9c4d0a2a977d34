package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/repository"
)

const (
	// MaxListNameLength bounds list names, in characters.
	MaxListNameLength = 200

	createAttempts = 3
)

// CreateList creates an empty list and returns its two capability tokens.
// This is the only time the tokens are handed out.
func (s *Service) CreateList(ctx context.Context, name string) (*models.CapabilityPair, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("list name is required")
	}
	if utf8.RuneCountInString(name) > MaxListNameLength {
		return nil, invalidInput("list name is too long")
	}

	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		creator, err := s.tokens.NewCapabilityToken()
		if err != nil {
			return nil, dependency("generate creator token", err)
		}
		buyer, err := s.tokens.NewCapabilityToken()
		if err != nil {
			return nil, dependency("generate buyer token", err)
		}

		list, err := s.lists.Create(ctx, &models.List{
			ID:           uuid.New(),
			Name:         name,
			CreatorToken: creator,
			BuyerToken:   buyer,
		})
		if err == nil {
			s.metrics.ListsCreated.Inc()
			s.logger.WithField("list_id", list.ID).Info("List created")
			return &models.CapabilityPair{
				CreatorToken: list.CreatorToken,
				BuyerToken:   list.BuyerToken,
				CreatorURL:   s.creatorURL(list.CreatorToken),
				BuyerURL:     s.buyerURL(list.BuyerToken),
			}, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, dependency("create list", err)
		}

		s.metrics.TokenCollisions.Inc()
		s.logger.WithField("attempt", attempt).Warn("Capability token collision, regenerating")
		lastErr = err
	}
	return nil, dependency("create list", lastErr)
}

// GetCreatorView returns the list as its creator sees it: no purchase state.
func (s *Service) GetCreatorView(ctx context.Context, creatorToken string) (*models.CreatorView, error) {
	list, err := s.require(ctx, creatorToken, models.CapabilityCreator)
	if err != nil {
		return nil, err
	}
	items, err := s.items.GetByList(ctx, list.ID)
	if err != nil {
		return nil, storeErr("list items", err)
	}

	view := &models.CreatorView{Name: list.Name, Items: make([]models.CreatorItem, 0, len(items))}
	for _, it := range items {
		view.Items = append(view.Items, models.NewCreatorItem(it))
	}
	return view, nil
}

// GetBuyerView returns the list with purchase state.
func (s *Service) GetBuyerView(ctx context.Context, buyerToken string) (*models.BuyerView, error) {
	list, err := s.require(ctx, buyerToken, models.CapabilityBuyer)
	if err != nil {
		return nil, err
	}
	items, err := s.items.GetByList(ctx, list.ID)
	if err != nil {
		return nil, storeErr("list items", err)
	}

	view := &models.BuyerView{Name: list.Name, Items: make([]models.BuyerItem, 0, len(items))}
	for _, it := range items {
		view.Items = append(view.Items, models.NewBuyerItem(it))
	}
	return view, nil
}

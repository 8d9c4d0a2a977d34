package service

import (
	"context"
	"crypto/rand"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/Kerhoff/BlindList/internal/models"
)

// Item field limits, in characters.
const (
	MaxItemNameLength    = 200
	MaxDescriptionLength = 2000
	MaxURLLength         = 2048
	MaxCategoryLength    = 100
	maxPrice             = 9999999999.99
)

func newItemID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// validItemID rejects ids that could never have been issued, so they are
// answered without a store round trip.
func validItemID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// validateItemFields checks f; creating requires a name, editing does not.
func validateItemFields(f *models.ItemFields, creating bool) error {
	if f.Name != nil {
		n := strings.TrimSpace(*f.Name)
		f.Name = &n
	}
	switch {
	case creating && (f.Name == nil || *f.Name == ""):
		return invalidInput("item name is required")
	case f.Name != nil && *f.Name == "":
		return invalidInput("item name must not be empty")
	case f.Name != nil && utf8.RuneCountInString(*f.Name) > MaxItemNameLength:
		return invalidInput("item name is too long")
	case tooLong(f.Description, MaxDescriptionLength):
		return invalidInput("description is too long")
	case tooLong(f.URL, MaxURLLength):
		return invalidInput("url is too long")
	case tooLong(f.Category, MaxCategoryLength):
		return invalidInput("category is too long")
	}
	if f.Price != nil && !f.ClearPrice {
		p := *f.Price
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > maxPrice {
			return invalidInput("price must be a non-negative number")
		}
		// Stored as NUMERIC(12, 2).
		p = math.Round(p*100) / 100
		f.Price = &p
	}
	return nil
}

func tooLong(s *string, limit int) bool {
	return s != nil && utf8.RuneCountInString(*s) > limit
}

// AddItem appends an item to the list named by creatorToken.
func (s *Service) AddItem(ctx context.Context, creatorToken string, fields models.ItemFields) (*models.CreatorItem, error) {
	list, err := s.require(ctx, creatorToken, models.CapabilityCreator)
	if err != nil {
		return nil, err
	}
	if err := validateItemFields(&fields, true); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	id, err := newItemID(now)
	if err != nil {
		return nil, dependency("generate item id", err)
	}

	item := &models.Item{ID: id, ListID: list.ID, CreatedAt: now}
	fields.Apply(item)

	created, err := s.items.Create(ctx, item)
	if err != nil {
		return nil, dependency("add item", err)
	}
	out := models.NewCreatorItem(created)
	return &out, nil
}

// EditItem changes the provided fields of an item on the creator's list.
func (s *Service) EditItem(ctx context.Context, creatorToken, itemID string, fields models.ItemFields) (*models.CreatorItem, error) {
	list, err := s.require(ctx, creatorToken, models.CapabilityCreator)
	if err != nil {
		return nil, err
	}
	if !validItemID(itemID) {
		return nil, ErrNotFound
	}
	if err := validateItemFields(&fields, false); err != nil {
		return nil, err
	}

	item, err := s.items.Get(ctx, list.ID, itemID)
	if err != nil {
		return nil, storeErr("get item", err)
	}
	fields.Apply(item)

	updated, err := s.items.Update(ctx, item)
	if err != nil {
		return nil, storeErr("update item", err)
	}
	out := models.NewCreatorItem(updated)
	return &out, nil
}

// DeleteItem removes an item from the creator's list.
func (s *Service) DeleteItem(ctx context.Context, creatorToken, itemID string) error {
	list, err := s.require(ctx, creatorToken, models.CapabilityCreator)
	if err != nil {
		return err
	}
	if !validItemID(itemID) {
		return ErrNotFound
	}
	if err := s.items.Delete(ctx, list.ID, itemID); err != nil {
		return storeErr("delete item", err)
	}
	return nil
}

// TogglePurchased flips an item's purchased flag. Only buyers may do this.
func (s *Service) TogglePurchased(ctx context.Context, buyerToken, itemID string) (*models.PurchaseState, error) {
	list, err := s.require(ctx, buyerToken, models.CapabilityBuyer)
	if err != nil {
		return nil, err
	}
	if !validItemID(itemID) {
		return nil, ErrNotFound
	}

	item, err := s.items.TogglePurchased(ctx, list.ID, itemID)
	if err != nil {
		return nil, storeErr("toggle purchased", err)
	}
	return &models.PurchaseState{ID: item.ID, Name: item.Name, Purchased: item.Purchased}, nil
}

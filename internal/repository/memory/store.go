// Package memory is an in-process implementation of the repository
// interfaces. It mirrors the Postgres constraints (global token uniqueness,
// list-scoped items, atomic recovery claims) and backs the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/repository"
)

type listRow struct {
	list           models.List
	recoveryHash   *string
	recoveryIssued *time.Time
}

type tokenRef struct {
	listID uuid.UUID
	kind   models.CapabilityKind
}

// Store holds lists, items and the capability token namespace behind one lock.
type Store struct {
	mu     sync.Mutex
	lists  map[uuid.UUID]*listRow
	tokens map[string]tokenRef
	items  map[uuid.UUID]map[string]*models.Item

	// Err, when set, is returned by every call. Used to simulate an
	// unreachable store.
	Err error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		lists:  make(map[uuid.UUID]*listRow),
		tokens: make(map[string]tokenRef),
		items:  make(map[uuid.UUID]map[string]*models.Item),
	}
}

// Lists returns the store as a repository.ListRepository.
func (s *Store) Lists() repository.ListRepository { return (*listStore)(s) }

// Items returns the store as a repository.ItemRepository.
func (s *Store) Items() repository.ItemRepository { return (*itemStore)(s) }

// DeleteList removes a list, its tokens and, like ON DELETE CASCADE, its items.
func (s *Store) DeleteList(listID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.lists[listID]
	if !ok {
		return
	}
	delete(s.tokens, row.list.CreatorToken)
	delete(s.tokens, row.list.BuyerToken)
	delete(s.items, listID)
	delete(s.lists, listID)
}

// ItemCount returns the number of items stored for listID.
func (s *Store) ItemCount(listID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items[listID])
}

// RecoveryHash returns the recovery token hash currently stored on a list.
func (s *Store) RecoveryHash(listID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.lists[listID]
	if !ok || row.recoveryHash == nil {
		return "", false
	}
	return *row.recoveryHash, true
}

type listStore Store

func (s *listStore) Create(_ context.Context, list *models.List) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	if list.CreatorToken == list.BuyerToken {
		return nil, fmt.Errorf("failed to create list: %w", repository.ErrConflict)
	}
	if _, ok := s.tokens[list.CreatorToken]; ok {
		return nil, fmt.Errorf("failed to create list: %w", repository.ErrConflict)
	}
	if _, ok := s.tokens[list.BuyerToken]; ok {
		return nil, fmt.Errorf("failed to create list: %w", repository.ErrConflict)
	}
	if _, ok := s.lists[list.ID]; ok {
		return nil, fmt.Errorf("failed to create list: %w", repository.ErrConflict)
	}

	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	s.lists[list.ID] = &listRow{list: *list}
	s.tokens[list.CreatorToken] = tokenRef{listID: list.ID, kind: models.CapabilityCreator}
	s.tokens[list.BuyerToken] = tokenRef{listID: list.ID, kind: models.CapabilityBuyer}

	out := *list
	return &out, nil
}

func (s *listStore) ResolveToken(_ context.Context, token string) (*models.List, models.CapabilityKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, models.CapabilityNone, s.Err
	}

	ref, ok := s.tokens[token]
	if !ok {
		return nil, models.CapabilityNone, repository.ErrNotFound
	}
	row := s.lists[ref.listID]
	out := row.list
	return &out, ref.kind, nil
}

func (s *listStore) BindIdentity(_ context.Context, listID uuid.UUID, identityKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	row, ok := s.lists[listID]
	if !ok {
		return repository.ErrNotFound
	}
	key := identityKey
	row.list.IdentityKey = &key
	row.list.IdentityVerified = true
	row.list.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *listStore) CountRecoverable(_ context.Context, identityKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	n := 0
	for _, row := range s.lists {
		if row.matchesIdentity(identityKey) {
			n++
		}
	}
	return n, nil
}

func (s *listStore) SetRecoveryToken(_ context.Context, identityKey, tokenHash string, issuedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	var n int64
	for _, row := range s.lists {
		if !row.matchesIdentity(identityKey) {
			continue
		}
		h := tokenHash
		t := issuedAt.UTC()
		row.recoveryHash = &h
		row.recoveryIssued = &t
		n++
	}
	return n, nil
}

func (s *listStore) ClaimRecovery(_ context.Context, tokenHash string) ([]models.RecoveryClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var claims []models.RecoveryClaim
	for _, row := range s.lists {
		if row.recoveryHash == nil || *row.recoveryHash != tokenHash {
			continue
		}
		claims = append(claims, models.RecoveryClaim{
			ListID:           row.list.ID,
			Name:             row.list.Name,
			CreatorToken:     row.list.CreatorToken,
			BuyerToken:       row.list.BuyerToken,
			IdentityVerified: row.list.IdentityVerified,
			IssuedAt:         row.recoveryIssued,
			CreatedAt:        row.list.CreatedAt,
		})
		row.recoveryHash = nil
		row.recoveryIssued = nil
	}
	return claims, nil
}

func (s *listStore) ExpireRecovery(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	var n int64
	for _, row := range s.lists {
		if row.recoveryHash != nil && row.recoveryIssued != nil && row.recoveryIssued.Before(cutoff) {
			row.recoveryHash = nil
			row.recoveryIssued = nil
			n++
		}
	}
	return n, nil
}

func (r *listRow) matchesIdentity(identityKey string) bool {
	return r.list.IdentityVerified && r.list.IdentityKey != nil && *r.list.IdentityKey == identityKey
}

type itemStore Store

func (s *itemStore) Create(_ context.Context, item *models.Item) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	if _, ok := s.lists[item.ListID]; !ok {
		return nil, fmt.Errorf("failed to add item: list %s does not exist", item.ListID)
	}
	bucket := s.items[item.ListID]
	if bucket == nil {
		bucket = make(map[string]*models.Item)
		s.items[item.ListID] = bucket
	}
	if _, ok := bucket[item.ID]; ok {
		return nil, fmt.Errorf("failed to add item: %w", repository.ErrConflict)
	}

	item.Purchased = false
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	stored := *item
	bucket[item.ID] = &stored

	out := stored
	return &out, nil
}

func (s *itemStore) GetByList(_ context.Context, listID uuid.UUID) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	items := make([]*models.Item, 0, len(s.items[listID]))
	for _, it := range s.items[listID] {
		out := *it
		items = append(items, &out)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *itemStore) Get(_ context.Context, listID uuid.UUID, itemID string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	it, ok := s.items[listID][itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (s *itemStore) Update(_ context.Context, item *models.Item) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	it, ok := s.items[item.ListID][item.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it.Name = item.Name
	it.Description = item.Description
	it.URL = item.URL
	it.Category = item.Category
	it.Price = item.Price

	out := *it
	return &out, nil
}

func (s *itemStore) Delete(_ context.Context, listID uuid.UUID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.items[listID][itemID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items[listID], itemID)
	return nil
}

func (s *itemStore) TogglePurchased(_ context.Context, listID uuid.UUID, itemID string) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	it, ok := s.items[listID][itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	it.Purchased = !it.Purchased

	out := *it
	return &out, nil
}

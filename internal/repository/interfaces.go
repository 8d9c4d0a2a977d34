package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/BlindList/internal/models"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("unique constraint violation")
)

// ListRepository defines the interface for list and capability operations
type ListRepository interface {
	// Create inserts the list and registers both of its tokens. A token that
	// already exists anywhere, in either role, yields ErrConflict.
	Create(ctx context.Context, list *models.List) (*models.List, error)
	// ResolveToken finds the list owning token and reports which role it has.
	ResolveToken(ctx context.Context, token string) (*models.List, models.CapabilityKind, error)
	// BindIdentity stores the identity key and marks the list verified.
	BindIdentity(ctx context.Context, listID uuid.UUID, identityKey string) error
	// CountRecoverable counts verified lists bound to identityKey.
	CountRecoverable(ctx context.Context, identityKey string) (int, error)
	// SetRecoveryToken writes one recovery token hash to every verified list
	// bound to identityKey, in a single statement. It returns the number of
	// lists updated.
	SetRecoveryToken(ctx context.Context, identityKey, tokenHash string, issuedAt time.Time) (int64, error)
	// ClaimRecovery atomically clears tokenHash from every list carrying it
	// and returns those lists as they were before the clear. Concurrent
	// claims of the same hash never both receive the same row.
	ClaimRecovery(ctx context.Context, tokenHash string) ([]models.RecoveryClaim, error)
	// ExpireRecovery clears recovery tokens issued before cutoff and returns
	// the number of lists touched.
	ExpireRecovery(ctx context.Context, cutoff time.Time) (int64, error)
}

// ItemRepository defines the interface for item operations. Every call is
// scoped by list ID; there is no way to reach an item without its list.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) (*models.Item, error)
	GetByList(ctx context.Context, listID uuid.UUID) ([]*models.Item, error)
	Get(ctx context.Context, listID uuid.UUID, itemID string) (*models.Item, error)
	Update(ctx context.Context, item *models.Item) (*models.Item, error)
	Delete(ctx context.Context, listID uuid.UUID, itemID string) error
	TogglePurchased(ctx context.Context, listID uuid.UUID, itemID string) (*models.Item, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/repository"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"

	tokensDistinctConstraint = "lists_tokens_distinct"
)

type listRepository struct {
	db *sql.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *sql.DB) repository.ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, list *models.List) (*models.List, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin list transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO lists (id, name, creator_token, buyer_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	err = tx.QueryRowContext(ctx, query,
		list.ID,
		list.Name,
		list.CreatorToken,
		list.BuyerToken,
		list.CreatedAt,
		list.UpdatedAt,
	).Scan(&list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		return nil, wrapWriteErr("failed to create list", err)
	}

	tokenQuery := `
		INSERT INTO capability_tokens (token, list_id, kind)
		VALUES ($1, $3, 'creator'), ($2, $3, 'buyer')`

	if _, err := tx.ExecContext(ctx, tokenQuery, list.CreatorToken, list.BuyerToken, list.ID); err != nil {
		return nil, wrapWriteErr("failed to register capability tokens", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapWriteErr("failed to commit list", err)
	}

	return list, nil
}

func (r *listRepository) ResolveToken(ctx context.Context, token string) (*models.List, models.CapabilityKind, error) {
	query := `
		SELECT l.id, l.name, l.creator_token, l.buyer_token, l.identity_key,
		       l.identity_verified, l.created_at, l.updated_at, t.kind
		FROM capability_tokens t
		JOIN lists l ON l.id = t.list_id
		WHERE t.token = $1`

	list := &models.List{}
	var kind string
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&list.ID,
		&list.Name,
		&list.CreatorToken,
		&list.BuyerToken,
		&list.IdentityKey,
		&list.IdentityVerified,
		&list.CreatedAt,
		&list.UpdatedAt,
		&kind,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.CapabilityNone, repository.ErrNotFound
		}
		return nil, models.CapabilityNone, fmt.Errorf("failed to resolve token: %w", err)
	}

	switch models.CapabilityKind(kind) {
	case models.CapabilityCreator:
		return list, models.CapabilityCreator, nil
	case models.CapabilityBuyer:
		return list, models.CapabilityBuyer, nil
	default:
		return nil, models.CapabilityNone, fmt.Errorf("unknown capability kind %q", kind)
	}
}

func (r *listRepository) BindIdentity(ctx context.Context, listID uuid.UUID, identityKey string) error {
	query := `
		UPDATE lists
		SET identity_key = $2, identity_verified = TRUE, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, listID, identityKey)
	if err != nil {
		return fmt.Errorf("failed to bind identity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *listRepository) CountRecoverable(ctx context.Context, identityKey string) (int, error) {
	query := `
		SELECT count(*)
		FROM lists
		WHERE identity_key = $1 AND identity_verified`

	var n int
	if err := r.db.QueryRowContext(ctx, query, identityKey).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count recoverable lists: %w", err)
	}
	return n, nil
}

func (r *listRepository) SetRecoveryToken(ctx context.Context, identityKey, tokenHash string, issuedAt time.Time) (int64, error) {
	query := `
		UPDATE lists
		SET recovery_token_hash = $2, recovery_issued_at = $3, updated_at = NOW()
		WHERE identity_key = $1 AND identity_verified`

	result, err := r.db.ExecContext(ctx, query, identityKey, tokenHash, issuedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to set recovery token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *listRepository) ClaimRecovery(ctx context.Context, tokenHash string) ([]models.RecoveryClaim, error) {
	// The row lock taken by the sub-select makes a concurrent claim wait,
	// then re-check recovery_token_hash against the committed (cleared) row.
	query := `
		UPDATE lists AS l
		SET recovery_token_hash = NULL, recovery_issued_at = NULL, updated_at = NOW()
		FROM (
			SELECT id, recovery_issued_at
			FROM lists
			WHERE recovery_token_hash = $1
			FOR UPDATE
		) AS prev
		WHERE l.id = prev.id
		RETURNING l.id, l.name, l.creator_token, l.buyer_token, l.identity_verified,
		          prev.recovery_issued_at, l.created_at`

	rows, err := r.db.QueryContext(ctx, query, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to claim recovery token: %w", err)
	}
	defer rows.Close()

	var claims []models.RecoveryClaim
	for rows.Next() {
		var c models.RecoveryClaim
		var issuedAt sql.NullTime
		if err := rows.Scan(
			&c.ListID,
			&c.Name,
			&c.CreatorToken,
			&c.BuyerToken,
			&c.IdentityVerified,
			&issuedAt,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recovery claim: %w", err)
		}
		if issuedAt.Valid {
			t := issuedAt.Time
			c.IssuedAt = &t
		}
		claims = append(claims, c)
	}

	return claims, rows.Err()
}

func (r *listRepository) ExpireRecovery(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE lists
		SET recovery_token_hash = NULL, recovery_issued_at = NULL, updated_at = NOW()
		WHERE recovery_token_hash IS NOT NULL AND recovery_issued_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire recovery tokens: %w", err)
	}
	return result.RowsAffected()
}

// wrapWriteErr maps token collisions, including a list whose two tokens are
// equal, to repository.ErrConflict.
func wrapWriteErr(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code == uniqueViolation ||
			(pqErr.Code == checkViolation && pqErr.Constraint == tokensDistinctConstraint) {
			return fmt.Errorf("%s: %w", msg, repository.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

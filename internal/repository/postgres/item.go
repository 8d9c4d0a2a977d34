package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/repository"
)

const itemColumns = `id, list_id, name, description, url, category, price, purchased, created_at`

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var price sql.NullFloat64
	if err := row.Scan(
		&item.ID,
		&item.ListID,
		&item.Name,
		&item.Description,
		&item.URL,
		&item.Category,
		&price,
		&item.Purchased,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	if price.Valid {
		p := price.Float64
		item.Price = &p
	}
	return item, nil
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := `
		INSERT INTO items (id, list_id, name, description, url, category, price, purchased, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	item.Purchased = false
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, query,
		item.ID,
		item.ListID,
		item.Name,
		item.Description,
		item.URL,
		item.Category,
		item.Price,
		item.Purchased,
		item.CreatedAt,
	).Scan(&item.CreatedAt)
	if err != nil {
		return nil, wrapWriteErr("failed to add item", err)
	}

	return item, nil
}

func (r *itemRepository) GetByList(ctx context.Context, listID uuid.UUID) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE list_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *itemRepository) Get(ctx context.Context, listID uuid.UUID, itemID string) (*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1 AND list_id = $2`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID, listID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := `
		UPDATE items
		SET name = $3, description = $4, url = $5, category = $6, price = $7
		WHERE id = $1 AND list_id = $2
		RETURNING ` + itemColumns

	updated, err := scanItem(r.db.QueryRowContext(ctx, query,
		item.ID,
		item.ListID,
		item.Name,
		item.Description,
		item.URL,
		item.Category,
		item.Price,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return updated, nil
}

func (r *itemRepository) Delete(ctx context.Context, listID uuid.UUID, itemID string) error {
	query := `DELETE FROM items WHERE id = $1 AND list_id = $2`

	result, err := r.db.ExecContext(ctx, query, itemID, listID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
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

func (r *itemRepository) TogglePurchased(ctx context.Context, listID uuid.UUID, itemID string) (*models.Item, error) {
	query := `
		UPDATE items
		SET purchased = NOT purchased
		WHERE id = $1 AND list_id = $2
		RETURNING ` + itemColumns

	item, err := scanItem(r.db.QueryRowContext(ctx, query, itemID, listID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle purchased: %w", err)
	}

	return item, nil
}

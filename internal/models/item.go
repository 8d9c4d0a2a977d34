package models

import (
	"time"

	"github.com/google/uuid"
)

// Item represents an entry on a wish list.
type Item struct {
	ID          string    `json:"id" db:"id"`
	ListID      uuid.UUID `json:"-" db:"list_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	URL         *string   `json:"url" db:"url"`
	Category    *string   `json:"category" db:"category"`
	Price       *float64  `json:"price" db:"price"`
	Purchased   bool      `json:"purchased" db:"purchased"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ItemFields carries caller-supplied item attributes. A nil field means
// "not provided"; on edit such fields are left unchanged. ClearPrice removes
// a stored price.
type ItemFields struct {
	Name        *string
	Description *string
	URL         *string
	Category    *string
	Price       *float64
	ClearPrice  bool
}

// Apply copies the provided fields onto item.
func (f ItemFields) Apply(item *Item) {
	if f.Name != nil {
		item.Name = *f.Name
	}
	if f.Description != nil {
		item.Description = emptyToNil(*f.Description)
	}
	if f.URL != nil {
		item.URL = emptyToNil(*f.URL)
	}
	if f.Category != nil {
		item.Category = emptyToNil(*f.Category)
	}
	if f.ClearPrice {
		item.Price = nil
	} else if f.Price != nil {
		p := *f.Price
		item.Price = &p
	}
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// List represents one shareable wish list. CreatorToken and BuyerToken are
// the capability credentials; whoever holds one holds that capability.
type List struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	CreatorToken     string    `json:"-" db:"creator_token"`
	BuyerToken       string    `json:"-" db:"buyer_token"`
	IdentityKey      *string   `json:"-" db:"identity_key"`
	IdentityVerified bool      `json:"-" db:"identity_verified"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// RecoveryClaim is a list row released by redeeming a recovery token, along
// with the recovery state it carried at the moment it was claimed.
type RecoveryClaim struct {
	ListID           uuid.UUID
	Name             string
	CreatorToken     string
	BuyerToken       string
	IdentityVerified bool
	IssuedAt         *time.Time
	CreatedAt        time.Time
}

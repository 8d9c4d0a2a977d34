package models

import "time"

// CreatorItem is the creator-facing projection of an Item. It has no
// purchased field, so purchase state cannot leak through it.
type CreatorItem struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	URL         *string   `json:"url"`
	Category    *string   `json:"category"`
	Price       *float64  `json:"price"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BuyerItem is the buyer-facing projection of an Item.
type BuyerItem struct {
	CreatorItem
	Purchased bool `json:"purchased"`
}

// CreatorView is what a creator token can read.
type CreatorView struct {
	Name  string        `json:"name"`
	Items []CreatorItem `json:"items"`
}

// BuyerView is what a buyer token can read.
type BuyerView struct {
	Name  string      `json:"name"`
	Items []BuyerItem `json:"items"`
}

// PurchaseState is the result of a buyer toggling an item.
type PurchaseState struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Purchased bool   `json:"purchased"`
}

// CapabilityPair is returned once, on list creation.
type CapabilityPair struct {
	CreatorToken string `json:"creatorToken"`
	BuyerToken   string `json:"buyerToken"`
	CreatorURL   string `json:"creatorUrl"`
	BuyerURL     string `json:"buyerUrl"`
}

// RecoveredList is one entry returned by a successful recovery redemption.
type RecoveredList struct {
	Name         string    `json:"name"`
	CreatorToken string    `json:"creatorToken"`
	BuyerToken   string    `json:"buyerToken"`
	CreatorURL   string    `json:"creatorUrl"`
	BuyerURL     string    `json:"buyerUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewCreatorItem projects an item for a creator.
func NewCreatorItem(it *Item) CreatorItem {
	return CreatorItem{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		URL:         it.URL,
		Category:    it.Category,
		Price:       it.Price,
		CreatedAt:   it.CreatedAt,
	}
}

// NewBuyerItem projects an item for a buyer.
func NewBuyerItem(it *Item) BuyerItem {
	return BuyerItem{CreatorItem: NewCreatorItem(it), Purchased: it.Purchased}
}

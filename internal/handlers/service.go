package handlers

import (
	"context"

	"github.com/Kerhoff/BlindList/internal/models"
)

// ListService is what the bot commands need from the business layer.
type ListService interface {
	CreateList(ctx context.Context, name string) (*models.CapabilityPair, error)
	RequestRecovery(ctx context.Context, email string) error
	RedeemRecovery(ctx context.Context, token string) ([]models.RecoveredList, error)
}

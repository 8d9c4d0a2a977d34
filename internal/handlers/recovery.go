package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/service"
	"github.com/Kerhoff/BlindList/internal/telegram"
)

// RecoverHandler handles /recover <email>.
type RecoverHandler struct {
	svc    ListService
	logger *logrus.Logger
}

func NewRecoverHandler(svc ListService, logger *logrus.Logger) *RecoverHandler {
	return &RecoverHandler{svc: svc, logger: logger}
}

// Handle answers the same way whether or not the address has lists.
func (h *RecoverHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !message.Chat.IsPrivate() {
		return send(bot, message.Chat.ID, privateOnly)
	}
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ Usage: /recover you@example.com")
	}

	if err := h.svc.RequestRecovery(clientContext(ctx, message), args[0]); err != nil {
		if reply, ok := userError(err); ok {
			return send(bot, message.Chat.ID, reply)
		}
		return fmt.Errorf("request recovery: %w", err)
	}
	return send(bot, message.Chat.ID, "📬 "+service.RecoveryAccepted)
}

// RedeemHandler handles /redeem <code>.
type RedeemHandler struct {
	svc    ListService
	logger *logrus.Logger
}

func NewRedeemHandler(svc ListService, logger *logrus.Logger) *RedeemHandler {
	return &RedeemHandler{svc: svc, logger: logger}
}

func (h *RedeemHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !message.Chat.IsPrivate() {
		return send(bot, message.Chat.ID, privateOnly)
	}
	if len(args) != 1 {
		return send(bot, message.Chat.ID, "❌ Usage: /redeem <code from the email>")
	}

	lists, err := h.svc.RedeemRecovery(clientContext(ctx, message), recoveryCode(args[0]))
	if err != nil {
		if reply, ok := userError(err); ok {
			return send(bot, message.Chat.ID, reply)
		}
		return fmt.Errorf("redeem recovery: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"lists":   len(lists),
	}).Info("Recovery redeemed via Telegram")
	return send(bot, message.Chat.ID, formatRecovered(lists))
}

// recoveryCode accepts either the bare code or the whole link from the email.
func recoveryCode(arg string) string {
	if i := strings.LastIndex(arg, "/verify-email/"); i >= 0 {
		arg = arg[i+len("/verify-email/"):]
	}
	return strings.TrimRight(arg, "/")
}

func formatRecovered(lists []models.RecoveredList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔑 Found %d list(s):\n", len(lists))
	for _, l := range lists {
		fmt.Fprintf(&b, "\n• %s\n  Creator: %s\n  Buyer: %s\n", l.Name, l.CreatorURL, l.BuyerURL)
	}
	b.WriteString("\nThis code has now been used up.")
	return b.String()
}

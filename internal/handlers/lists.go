package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/BlindList/internal/service"
	"github.com/Kerhoff/BlindList/internal/telegram"
)

const privateOnly = "🔒 This command hands out secret links. Send it to me in a private chat."

// send delivers plain text. Links and tokens contain characters that
// Markdown would eat, so no parse mode is set.
func send(bot telegram.Messenger, chatID int64, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// clientContext keys rate limits on the Telegram user.
func clientContext(ctx context.Context, message *tgbotapi.Message) context.Context {
	id := message.Chat.ID
	if message.From != nil {
		id = message.From.ID
	}
	return service.WithClient(ctx, "tg:"+strconv.FormatInt(id, 10))
}

// userError turns expected service failures into a reply. ok is false for
// errors the router should report generically.
func userError(err error) (reply string, ok bool) {
	var inputErr *service.InputError
	var rateErr *service.RateLimitError
	switch {
	case errors.As(err, &inputErr):
		return "❌ " + inputErr.Msg, true
	case errors.As(err, &rateErr):
		return "⏳ Too many attempts. Please try again later.", true
	case errors.Is(err, service.ErrInvalidOrExpired):
		return "❌ That code is invalid or has expired. Use /recover to get a new one.", true
	}
	return "", false
}

// NewListHandler handles /newlist <name>.
type NewListHandler struct {
	svc    ListService
	logger *logrus.Logger
}

// NewNewListHandler creates a NewListHandler.
func NewNewListHandler(svc ListService, logger *logrus.Logger) *NewListHandler {
	return &NewListHandler{svc: svc, logger: logger}
}

// Handle processes the /newlist command.
func (h *NewListHandler) Handle(ctx context.Context, bot telegram.Messenger, message *tgbotapi.Message, args []string) error {
	if !message.Chat.IsPrivate() {
		return send(bot, message.Chat.ID, privateOnly)
	}
	if len(args) == 0 {
		return send(bot, message.Chat.ID, "❌ Please give your list a name.\nUsage: /newlist Birthday 2026")
	}

	pair, err := h.svc.CreateList(clientContext(ctx, message), strings.Join(args, " "))
	if err != nil {
		if reply, ok := userError(err); ok {
			return send(bot, message.Chat.ID, reply)
		}
		return fmt.Errorf("create list: %w", err)
	}

	text := "✅ List created!\n\n" +
		"📝 Your creator link (keep it to yourself):\n" + pair.CreatorURL + "\n\n" +
		"🎁 Buyer link (share with friends):\n" + pair.BuyerURL + "\n\n" +
		"Tip: add your email on the creator page so you can recover these links later."

	h.logger.WithField("chat_id", message.Chat.ID).Info("List created via Telegram")
	return send(bot, message.Chat.ID, text)
}

package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/BlindList/pkg/logger"
)

type fakeMessenger struct {
	texts []string
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

type handlerFunc func(ctx context.Context, bot Messenger, message *tgbotapi.Message, args []string) error

func (f handlerFunc) Handle(ctx context.Context, bot Messenger, message *tgbotapi.Message, args []string) error {
	return f(ctx, bot, message, args)
}

func command(text string, length int) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 1,
		Text:      text,
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		From:      &tgbotapi.User{ID: 7},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: length}},
	}
}

func TestRouterDispatchesWithArgs(t *testing.T) {
	r := NewRouter(logger.Discard())
	var got []string
	r.RegisterCommand("newlist", handlerFunc(func(_ context.Context, _ Messenger, _ *tgbotapi.Message, args []string) error {
		got = args
		return nil
	}))

	bot := &fakeMessenger{}
	r.HandleMessage(context.Background(), bot, command("/newlist Summer  party", len("/newlist")))

	assert.Equal(t, []string{"Summer", "party"}, got)
	assert.Empty(t, bot.texts)
}

func TestRouterUnknownCommand(t *testing.T) {
	r := NewRouter(logger.Discard())
	bot := &fakeMessenger{}

	r.HandleMessage(context.Background(), bot, command("/nope", len("/nope")))

	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0], "Unknown command")
}

func TestRouterHandlerError(t *testing.T) {
	r := NewRouter(logger.Discard())
	r.RegisterCommand("help", handlerFunc(func(context.Context, Messenger, *tgbotapi.Message, []string) error {
		return errors.New("boom")
	}))
	bot := &fakeMessenger{}

	r.HandleMessage(context.Background(), bot, command("/help", len("/help")))

	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0], "An error occurred")
}

func TestRouterIgnoresPlainText(t *testing.T) {
	r := NewRouter(logger.Discard())
	bot := &fakeMessenger{}

	r.HandleMessage(context.Background(), bot, &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 1}})
	r.HandleMessage(context.Background(), bot, nil)

	assert.Empty(t, bot.texts)
}

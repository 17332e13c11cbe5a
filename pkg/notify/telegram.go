package notify

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram posts alerts to a chat through the Bot API. The recipient is the numeric chat id.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// NewTelegramWithEndpoint talks to a Bot API server other than api.telegram.org. endpoint
// takes the token and the method, e.g. "http://localhost:8081/bot%s/%s".
func NewTelegramWithEndpoint(token, endpoint string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return dispatchError("telegram", err)
	}

	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return dispatchError("telegram", fmt.Errorf("bad chat id %q: %w", recipient, err))
	}

	msg := tgbotapi.NewMessage(chatID, subject+"\n\n"+body)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return dispatchError("telegram", err)
	}
	return nil
}

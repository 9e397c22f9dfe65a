package forwarder

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smsrelay/internal/models"

	"github.com/sirupsen/logrus"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// TelegramBotForwarder delivers messages straight to the Telegram Bot API
// using a bot token and a chat id.
type TelegramBotForwarder struct {
	httpSender
	token  string
	chatID string
}

// NewTelegramBotForwarder creates a Telegram bot forwarder. Token and chat
// id are both required.
func NewTelegramBotForwarder(token, chatID string, client *http.Client, logger *logrus.Logger) (*TelegramBotForwarder, error) {
	if token == "" {
		return nil, models.ConfigError{Message: "missing Telegram bot token"}
	}
	if chatID == "" {
		return nil, models.ConfigError{Message: "missing Telegram chat id"}
	}

	return &TelegramBotForwarder{
		httpSender: newHTTPSender(client, logger),
		token:      token,
		chatID:     chatID,
	}, nil
}

func (f *TelegramBotForwarder) Kind() Kind {
	return KindTelegramBot
}

func (f *TelegramBotForwarder) Forward(ctx context.Context, msg models.SmsMessage) error {
	return f.send(ctx, f.Kind(), msg, f.buildRequest)
}

func (f *TelegramBotForwarder) buildRequest(ctx context.Context, msg models.SmsMessage) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBaseURL, f.token)

	body := EncodePairs(map[string]string{
		"chat_id": f.chatID,
		"text":    formatMessageText(msg),
	})

	req, err := http.NewRequestWithContext(ctx, MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

func formatMessageText(msg models.SmsMessage) string {
	return fmt.Sprintf("New SMS message from %s:\n%s\n\nDate: %d.", msg.Sender, msg.Body, msg.Timestamp)
}

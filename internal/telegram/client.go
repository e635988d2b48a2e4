package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/pathakanu/lifesync/internal/notify"
)

// Client posts reminder notifications to a single Telegram chat.
type Client struct {
	bot    *bot.Bot
	chatID int64
}

// New creates a send-only bot. Extra options are appended after WithSkipGetMe.
func New(token string, chatID int64, opts ...bot.Option) (*Client, error) {
	b, err := bot.New(token, append([]bot.Option{bot.WithSkipGetMe()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Client{bot: b, chatID: chatID}, nil
}

func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: c.chatID,
		Text:   n.Text(),
	})
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

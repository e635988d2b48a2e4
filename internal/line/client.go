package line

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"github.com/pathakanu/lifesync/internal/notify"
)

// Client pushes reminder notifications to one LINE user.
type Client struct {
	bot *linebot.Client
	to  string
}

// New creates a push-only LINE client for the user id to.
func New(channelSecret, channelToken, to string, opts ...linebot.ClientOption) (*Client, error) {
	bot, err := linebot.New(channelSecret, channelToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create LINE client: %w", err)
	}
	return &Client{bot: bot, to: to}, nil
}

func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	if _, err := c.bot.PushMessage(c.to, linebot.NewTextMessage(n.Text())).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("LINE push message: %w", err)
	}
	return nil
}

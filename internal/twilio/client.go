package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/pathakanu/lifesync/internal/notify"
)

// ErrNoRecipient is returned when there is no mobile number to deliver to.
var ErrNoRecipient = errors.New("twilio: no recipient number")

type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// RecipientFunc resolves the number to deliver to at send time, normally the
// current profile's mobile.
type RecipientFunc func(ctx context.Context) (string, error)

// Client sends reminder notifications as WhatsApp messages.
type Client struct {
	api          messageAPI
	fromWhatsApp string
	recipient    RecipientFunc
	log          *slog.Logger
}

// New creates a Twilio client bound to the configured WhatsApp sender number.
func New(accountSID, authToken, fromWhatsApp string, recipient RecipientFunc, log *slog.Logger) *Client {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	return &Client{
		api:          rest.Api,
		fromWhatsApp: fromWhatsApp,
		recipient:    recipient,
		log:          log,
	}
}

// Notify delivers n to the current recipient. Without a recipient it returns ErrNoRecipient.
func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	to, err := c.recipient(ctx)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	return c.SendWhatsAppMessage(to, n.Text())
}

// SendWhatsAppMessage sends a WhatsApp message via Twilio's API.
func (c *Client) SendWhatsAppMessage(to, body string) error {
	if c.api == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := normalizeWhatsAppAddress(c.fromWhatsApp)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}

	recipient := normalizeWhatsAppAddress(to)
	if recipient == "" {
		return ErrNoRecipient
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	c.log.Debug("twilio: message sent", "to", recipient, "sid", sid)
	return nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}

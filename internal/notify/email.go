package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/go-resty/resty/v2"
)

// EmailNotifier delivers alert emails through a Resend-compatible HTTP API.
type EmailNotifier struct {
	client *resty.Client
	apiKey string
	from   string
}

// NewEmailNotifier creates an email notifier from configuration.
func NewEmailNotifier(cfg *config.EmailConfig) *EmailNotifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &EmailNotifier{
		client: client,
		apiKey: cfg.APIKey,
		from:   cfg.From,
	}
}

// Channel identifies the delivery channel this notifier serves.
func (n *EmailNotifier) Channel() domain.Channel { return domain.ChannelEmail }

// Enabled reports whether an API key is configured.
func (n *EmailNotifier) Enabled() bool { return n.apiKey != "" }

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type emailResponse struct {
	ID string `json:"id"`
}

// Send posts the email to the delivery API.
func (n *EmailNotifier) Send(ctx context.Context, notification Notification) error {
	if !n.Enabled() {
		return fmt.Errorf("email notifier is not configured")
	}
	if notification.RecipientEmail == "" {
		return fmt.Errorf("notification has no recipient email")
	}

	var out emailResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(emailRequest{
			From:    n.from,
			To:      []string{notification.RecipientEmail},
			Subject: notification.Subject,
			Text:    notification.Body,
		}).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("email delivery failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email delivery returned %s", resp.Status())
	}
	return nil
}

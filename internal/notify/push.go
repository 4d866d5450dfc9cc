package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/chaza/pricewatch/internal/config"
	"github.com/chaza/pricewatch/internal/domain"
	"github.com/go-resty/resty/v2"
)

// PushNotifier delivers push notifications through an FCM-compatible
// HTTP API.
type PushNotifier struct {
	client    *resty.Client
	serverKey string
}

// NewPushNotifier creates a push notifier from configuration.
func NewPushNotifier(cfg *config.PushConfig) *PushNotifier {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")
	if cfg.ServerKey != "" {
		client.SetHeader("Authorization", "key="+cfg.ServerKey)
	}

	return &PushNotifier{
		client:    client,
		serverKey: cfg.ServerKey,
	}
}

// Channel identifies the delivery channel this notifier serves.
func (n *PushNotifier) Channel() domain.Channel { return domain.ChannelPush }

// Enabled reports whether a server key is configured.
func (n *PushNotifier) Enabled() bool { return n.serverKey != "" }

type pushRequest struct {
	To           string            `json:"to"`
	Notification pushBody          `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type pushBody struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type pushResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send posts the notification to the push gateway.
func (n *PushNotifier) Send(ctx context.Context, notification Notification) error {
	if !n.Enabled() {
		return fmt.Errorf("push notifier is not configured")
	}
	if notification.RecipientToken == "" {
		return fmt.Errorf("notification has no recipient device token")
	}

	var out pushResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(pushRequest{
			To: notification.RecipientToken,
			Notification: pushBody{
				Title: notification.Subject,
				Body:  notification.Body,
			},
			Data: notification.Data,
		}).
		SetResult(&out).
		Post("/fcm/send")
	if err != nil {
		return fmt.Errorf("push delivery failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("push delivery returned %s", resp.Status())
	}
	if out.Failure > 0 && out.Success == 0 {
		return fmt.Errorf("push gateway rejected the message")
	}
	return nil
}

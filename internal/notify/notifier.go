package notify

import (
	"context"

	"github.com/chaza/pricewatch/internal/domain"
)

// Notification is the payload handed to a delivery channel. Recipient
// identity fields are channel-specific: email uses RecipientEmail, push uses
// RecipientToken.
type Notification struct {
	RecipientEmail string
	RecipientToken string
	Subject        string
	Body           string
	Data           map[string]string
}

// Notifier delivers one notification over a single channel. Delivery is
// fire-and-forget from the evaluator's perspective: failures are logged by
// the caller, never retried here.
type Notifier interface {
	// Channel identifies the delivery channel this notifier serves.
	Channel() domain.Channel

	// Enabled reports whether the notifier is configured for use.
	// Unconfigured credentials disable a notifier without error.
	Enabled() bool

	// Send delivers the notification, returning any delivery failure.
	Send(ctx context.Context, n Notification) error
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/chaza/pricewatch/internal/domain"
	"github.com/chaza/pricewatch/internal/logger"
	"github.com/chaza/pricewatch/internal/notify"
	"github.com/chaza/pricewatch/internal/repository"
)

// priceChangeWindow is the recency window used by PRICE_CHANGE alerts.
// It approximates "changed since the last evaluation" and can both miss
// changes and double-fire when the evaluator cadence diverges from it.
const priceChangeWindow = time.Hour

// AlertJobResult aggregates one evaluation pass over all active alerts.
type AlertJobResult struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	AlertsChecked     int       `json:"alerts_checked"`
	AlertsTriggered   int       `json:"alerts_triggered"`
	NotificationsSent int       `json:"notifications_sent"`
	Errors            []string  `json:"errors"`
}

// AlertService evaluates active price alerts against the user's regional
// prices and dispatches notifications for triggered alerts.
type AlertService struct {
	alerts    *repository.AlertRepository
	notifiers []notify.Notifier
	logger    *logger.Logger
}

// NewAlertService creates an alert evaluation service.
func NewAlertService(alerts *repository.AlertRepository, notifiers []notify.Notifier, log *logger.Logger) *AlertService {
	if log == nil {
		log = logger.GetDefault()
	}
	return &AlertService{
		alerts:    alerts,
		notifiers: notifiers,
		logger:    log.WithField(logger.FieldComponent, "price-alerts"),
	}
}

// Run evaluates every active alert. Per-alert failures are logged and
// accumulated; they never stop evaluation of the remaining alerts.
func (s *AlertService) Run(ctx context.Context) (*AlertJobResult, error) {
	result := &AlertJobResult{StartTime: time.Now()}

	alerts, err := s.alerts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}
	result.AlertsChecked = len(alerts)

	s.logger.WithField(logger.FieldCount, len(alerts)).Info("Checking active alerts")

	for i := range alerts {
		alert := &alerts[i]
		if err := s.evaluate(ctx, alert, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("alert %s: %v", alert.ID, err))
			s.logger.WithField(logger.FieldAlertID, alert.ID).WithError(err).Error("Alert evaluation failed")
		}
	}

	result.EndTime = time.Now()

	logger.With(logger.Fields{
		logger.FieldDurationMs: result.EndTime.Sub(result.StartTime).Milliseconds(),
		"alerts_checked":       result.AlertsChecked,
		"alerts_triggered":     result.AlertsTriggered,
		"notifications_sent":   result.NotificationsSent,
		"errors":               len(result.Errors),
	}).Info(ctx, "Alert evaluation completed")

	return result, nil
}

func (s *AlertService) evaluate(ctx context.Context, alert *domain.PriceAlert, result *AlertJobResult) error {
	regionPrices := pricesInRegion(alert.Product.Prices, alert.User.Region)
	if len(regionPrices) == 0 {
		// No in-region offer for this product: nothing to evaluate.
		return nil
	}

	// Prices arrive ordered ascending by current price; the cheapest
	// in-region offer is the reference.
	lowest := regionPrices[0]

	if !shouldTrigger(alert, lowest, regionPrices, time.Now()) {
		return nil
	}

	result.AlertsTriggered++
	result.NotificationsSent += s.dispatch(ctx, alert, lowest)

	return s.alerts.MarkTriggered(ctx, alert.ID)
}

// shouldTrigger applies the alert's trigger predicate against the user's
// in-region prices.
func shouldTrigger(alert *domain.PriceAlert, lowest domain.Price, regionPrices []domain.Price, now time.Time) bool {
	switch alert.AlertType {
	case domain.AlertPriceDrop:
		return alert.TargetPrice != nil &&
			domain.Cents(lowest.CurrentPrice) <= domain.Cents(*alert.TargetPrice)

	case domain.AlertPriceChange:
		return lowest.LastChangedAt.After(now.Add(-priceChangeWindow))

	case domain.AlertBackInStock:
		for _, p := range regionPrices {
			if p.InStock {
				return true
			}
		}
		return false

	case domain.AlertDeal:
		for _, p := range regionPrices {
			if p.IsOnSale {
				return true
			}
		}
		return false
	}
	return false
}

// dispatch sends the triggered alert over every channel that is both
// selected on the alert and allowed by the user's preferences. Delivery is
// fire-and-forget: failures are logged, never retried.
func (s *AlertService) dispatch(ctx context.Context, alert *domain.PriceAlert, lowest domain.Price) int {
	sent := 0
	for _, notifier := range s.notifiers {
		channel := notifier.Channel()
		if !alert.Channels.Contains(channel) || !userAllows(&alert.User, channel) {
			continue
		}
		if !notifier.Enabled() {
			continue
		}

		if err := notifier.Send(ctx, buildNotification(alert, lowest)); err != nil {
			s.logger.WithFields(logger.Fields{
				logger.FieldAlertID: alert.ID,
				"channel":           string(channel),
			}).WithError(err).Error("Notification delivery failed")
			continue
		}
		sent++
	}
	return sent
}

func userAllows(user *domain.User, channel domain.Channel) bool {
	switch channel {
	case domain.ChannelEmail:
		return user.EmailNotifications
	case domain.ChannelPush:
		return user.PushNotifications
	default:
		return false
	}
}

func buildNotification(alert *domain.PriceAlert, lowest domain.Price) notify.Notification {
	subject := fmt.Sprintf("Price Alert: %s", alert.Product.Name)
	body := fmt.Sprintf(
		"The price for %s has met your alert conditions.\n\nCurrent price: %s %.2f at %s\n\nView product: %s",
		alert.Product.Name,
		lowest.Currency,
		lowest.CurrentPrice,
		lowest.Retailer.DisplayName,
		lowest.ProductURL,
	)

	return notify.Notification{
		RecipientEmail: alert.User.Email,
		RecipientToken: alert.User.PushToken,
		Subject:        subject,
		Body:           body,
		Data: map[string]string{
			"type":         "price_alert",
			"alert_id":     alert.ID,
			"product_slug": alert.Product.Slug,
		},
	}
}

func pricesInRegion(prices []domain.Price, region domain.Region) []domain.Price {
	var filtered []domain.Price
	for _, p := range prices {
		if p.Retailer.Region == region {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AlertType selects the trigger predicate evaluated for a price alert.
type AlertType string

const (
	AlertPriceDrop   AlertType = "PRICE_DROP"
	AlertPriceChange AlertType = "PRICE_CHANGE"
	AlertBackInStock AlertType = "BACK_IN_STOCK"
	AlertDeal        AlertType = "DEAL"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
	ChannelSMS   Channel = "SMS"
)

// ChannelList stores a set of channels as JSON in a text column.
type ChannelList []Channel

// Value implements the driver.Valuer interface for database serialization.
func (l ChannelList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (l *ChannelList) Scan(value interface{}) error {
	if value == nil {
		*l = ChannelList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ChannelList")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, l)
}

// Contains reports whether the list includes the given channel.
func (l ChannelList) Contains(c Channel) bool {
	for _, ch := range l {
		if ch == c {
			return true
		}
	}
	return false
}

// PriceAlert is a user-owned notification rule. It is created by user action,
// mutated by the alert evaluator on trigger, and deactivated by its owner.
type PriceAlert struct {
	ID              string      `gorm:"type:text;primaryKey" json:"id"`
	UserID          string      `gorm:"type:text;not null;index:idx_price_alerts_user" json:"user_id"`
	User            User        `gorm:"foreignKey:UserID" json:"-"`
	ProductID       string      `gorm:"type:text;not null;index:idx_price_alerts_product" json:"product_id"`
	Product         Product     `gorm:"foreignKey:ProductID" json:"-"`
	AlertType       AlertType   `gorm:"type:text;not null" json:"alert_type"`
	TargetPrice     *float64    `json:"target_price,omitempty"`
	Channels        ChannelList `gorm:"type:text" json:"channels"`
	IsActive        bool        `gorm:"default:true;index:idx_price_alerts_active" json:"is_active"`
	TriggerCount    int         `gorm:"default:0" json:"trigger_count"`
	LastTriggeredAt *time.Time  `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName returns the database table name for PriceAlert.
func (PriceAlert) TableName() string {
	return "price_alerts"
}

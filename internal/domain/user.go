package domain

import "time"

// User owns price alerts and notification preferences. Authentication and
// account management live outside this service; the pipeline only reads
// region and channel preferences.
type User struct {
	ID                 string    `gorm:"type:text;primaryKey" json:"id"`
	Email              string    `gorm:"type:text;not null;uniqueIndex:idx_users_email" json:"email"`
	Region             Region    `gorm:"type:text;default:US" json:"region"`
	ZipCode            string    `gorm:"type:text" json:"zip_code,omitempty"`
	EmailNotifications bool      `gorm:"default:true" json:"email_notifications"`
	PushNotifications  bool      `gorm:"default:false" json:"push_notifications"`
	PushToken          string    `gorm:"type:text" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

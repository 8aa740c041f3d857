package models

import "gorm.io/gorm"

// Notification type constants
const (
	NotificationMatchFound      = "match_found"
	NotificationRequestAccepted = "request_accepted"
	NotificationRequestTimeout  = "request_timeout"
	NotificationPhotosDelivered = "photos_delivered"
)

// Notification is an in-app notification record. Creation is fire-and-forget
// from the flows that emit it.
type Notification struct {
	gorm.Model
	UserID uint   `json:"userId" gorm:"not null;index"`
	Type   string `json:"type" gorm:"not null"`
	Title  string `json:"title" gorm:"not null"`
	Body   string `json:"body"`
	Data   string `json:"data,omitempty"` // JSON payload for the client
	IsRead bool   `json:"isRead" gorm:"not null;default:false"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

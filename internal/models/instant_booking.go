package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// InstantBooking is the monetary commitment created once a request is
// confirmed. The unique index on RequestID keeps the approve path and the
// completion path from both inserting a booking for the same request.
type InstantBooking struct {
	gorm.Model
	RequestID           uint   `json:"requestId" gorm:"not null;uniqueIndex"`
	PhotographerID      uint   `json:"photographerId" gorm:"not null"`
	TotalAmount         int64  `json:"totalAmount" gorm:"not null"` // in yen
	PlatformFee         int64  `json:"platformFee" gorm:"not null"`
	PhotographerEarnings int64 `json:"photographerEarnings" gorm:"not null"`
	PaymentStatus       string `json:"paymentStatus" gorm:"not null;default:'pending'"`
	DeliveredAt         *time.Time `json:"deliveredAt,omitempty"`

	Request      *InstantPhotoRequest `json:"request,omitempty" gorm:"foreignKey:RequestID"`
	Photographer *User                `json:"photographer,omitempty" gorm:"foreignKey:PhotographerID"`
}

// TableName specifies the table name
func (InstantBooking) TableName() string {
	return "instant_bookings"
}

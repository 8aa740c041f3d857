package models

import (
	"time"

	"gorm.io/gorm"
)

// PhotoSession is a scheduled session an organizer publishes for booking.
type PhotoSession struct {
	gorm.Model
	OrganizerID uint      `json:"organizerId" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	SessionType string    `json:"sessionType" gorm:"not null;default:'portrait'"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lng"`
	Address     string    `json:"address"`
	Price       int64     `json:"price" gorm:"not null"` // in yen, per slot
	Date        time.Time `json:"date" gorm:"not null"`
	IsPublished bool      `json:"isPublished" gorm:"not null;default:true"`

	Organizer *User         `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID"`
	Slots     []SessionSlot `json:"slots,omitempty" gorm:"foreignKey:SessionID"`
}

// TableName specifies the table name
func (PhotoSession) TableName() string {
	return "photo_sessions"
}

// SessionSlot is one bookable time slot within a session.
type SessionSlot struct {
	gorm.Model
	SessionID   uint      `json:"sessionId" gorm:"not null;index"`
	StartsAt    time.Time `json:"startsAt" gorm:"not null"`
	EndsAt      time.Time `json:"endsAt" gorm:"not null"`
	Capacity    int       `json:"capacity" gorm:"not null;default:1"`
	BookedCount int       `json:"bookedCount" gorm:"not null;default:0"`
}

// TableName specifies the table name
func (SessionSlot) TableName() string {
	return "session_slots"
}

// SlotBooking status constants
const (
	SlotBookingConfirmed = "confirmed"
	SlotBookingCancelled = "cancelled"
)

// SlotBooking is one user's confirmed place in a session slot.
type SlotBooking struct {
	gorm.Model
	SlotID uint   `json:"slotId" gorm:"not null;index"`
	UserID uint   `json:"userId" gorm:"not null;index"`
	Status string `json:"status" gorm:"not null;default:'confirmed'"`

	Slot *SessionSlot `json:"slot,omitempty" gorm:"foreignKey:SlotID"`
	User *User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (SlotBooking) TableName() string {
	return "slot_bookings"
}

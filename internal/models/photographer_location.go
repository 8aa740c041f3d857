package models

import (
	"time"

	"gorm.io/gorm"
)

// PhotographerLocation represents a photographer's live presence. A missing
// row means the photographer is offline.
type PhotographerLocation struct {
	gorm.Model
	PhotographerID    uint      `json:"photographerId" gorm:"not null;uniqueIndex"`
	Latitude          float64   `json:"lat" gorm:"not null"`
	Longitude         float64   `json:"lng" gorm:"not null"`
	Accuracy          float64   `json:"accuracy" gorm:"not null;default:0"` // meters
	IsOnline          bool      `json:"isOnline" gorm:"not null;default:false"`
	AcceptingRequests bool      `json:"acceptingRequests" gorm:"not null;default:false"`
	ResponseRadius    float64   `json:"responseRadius" gorm:"not null;default:3000"` // meters
	AvailableUntil    *time.Time `json:"availableUntil,omitempty"`
	LastSeen          time.Time `json:"lastSeen" gorm:"not null"`

	// Instant rates by session type, in yen. Zero means the type is not offered.
	PortraitRate int64 `json:"portraitRate" gorm:"not null;default:0"`
	CoupleRate   int64 `json:"coupleRate" gorm:"not null;default:0"`
	FamilyRate   int64 `json:"familyRate" gorm:"not null;default:0"`
	EventRate    int64 `json:"eventRate" gorm:"not null;default:0"`

	Photographer *User `json:"photographer,omitempty" gorm:"foreignKey:PhotographerID"`
}

// TableName specifies the table name
func (PhotographerLocation) TableName() string {
	return "photographer_locations"
}

// RateFor returns the photographer's instant rate for a session type.
func (l *PhotographerLocation) RateFor(sessionType string) int64 {
	switch sessionType {
	case SessionTypeCouple:
		return l.CoupleRate
	case SessionTypeFamily:
		return l.FamilyRate
	case SessionTypeEvent:
		return l.EventRate
	default:
		return l.PortraitRate
	}
}

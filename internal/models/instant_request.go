package models

import (
	"time"

	"gorm.io/gorm"
)

// Request status constants
const (
	RequestStatusPending    = "pending"
	RequestStatusAccepted   = "photographer_accepted"
	RequestStatusMatched    = "matched"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
	RequestStatusDelivered  = "delivered"
)

// Session type constants
const (
	SessionTypePortrait = "portrait"
	SessionTypeCouple   = "couple"
	SessionTypeFamily   = "family"
	SessionTypeEvent    = "event"
)

// Urgency constants
const (
	UrgencyASAP       = "asap"
	UrgencyWithinHour = "within_hour"
	UrgencyToday      = "today"
)

// RequestExpiry is how long a request stays open before the expiry sweep
// cancels it.
const RequestExpiry = 72 * time.Hour

// AcceptTimeout is the guest approval window after a photographer accepts.
const AcceptTimeout = 10 * time.Minute

// InstantPhotoRequest represents a guest's on-demand photo request.
// Exactly one of {no photographer, PendingPhotographerID, MatchedPhotographerID}
// describes the current claim; PhotographerTimeoutAt is set only while the
// status is photographer_accepted.
type InstantPhotoRequest struct {
	gorm.Model
	GuestName  string `json:"guestName" gorm:"not null"`
	GuestPhone string `json:"guestPhone" gorm:"not null;index"`
	GuestEmail string `json:"guestEmail"`
	PartySize  int    `json:"partySize" gorm:"not null;default:1"`

	Latitude  float64 `json:"lat" gorm:"not null"`
	Longitude float64 `json:"lng" gorm:"not null"`
	Address   string  `json:"address"`
	Landmark  string  `json:"landmark"`

	SessionType     string `json:"sessionType" gorm:"not null;default:'portrait'"`
	Urgency         string `json:"urgency" gorm:"not null;default:'asap'"`
	DurationMinutes int    `json:"durationMinutes" gorm:"not null;default:30"`
	BudgetAmount    int64  `json:"budgetAmount" gorm:"not null"` // in yen

	Status                string     `json:"status" gorm:"not null;default:'pending';index"`
	PendingPhotographerID *uint      `json:"pendingPhotographerId,omitempty"`
	MatchedPhotographerID *uint      `json:"matchedPhotographerId,omitempty"`
	PhotographerAcceptedAt *time.Time `json:"photographerAcceptedAt,omitempty"`
	PhotographerTimeoutAt *time.Time `json:"photographerTimeoutAt,omitempty"`
	GuestApprovedAt       *time.Time `json:"guestApprovedAt,omitempty"`
	DeliveredAt           *time.Time `json:"deliveredAt,omitempty"`
	ExpiresAt             time.Time  `json:"expiresAt" gorm:"not null"`

	PendingPhotographer *User `json:"pendingPhotographer,omitempty" gorm:"foreignKey:PendingPhotographerID"`
	MatchedPhotographer *User `json:"matchedPhotographer,omitempty" gorm:"foreignKey:MatchedPhotographerID"`
}

// TableName specifies the table name
func (InstantPhotoRequest) TableName() string {
	return "instant_photo_requests"
}

// ClaimedBy reports whether the given photographer currently holds the
// request, either tentatively or as the confirmed match.
func (r *InstantPhotoRequest) ClaimedBy(photographerID uint) bool {
	if r.PendingPhotographerID != nil && *r.PendingPhotographerID == photographerID {
		return true
	}
	return r.MatchedPhotographerID != nil && *r.MatchedPhotographerID == photographerID
}

// Response type constants
const (
	ResponseAccept  = "accept"
	ResponseDecline = "decline"
)

// PhotographerResponse is one photographer's accept/decline record for a
// request. At most one row exists per (request, photographer) pair.
type PhotographerResponse struct {
	gorm.Model
	RequestID            uint   `json:"requestId" gorm:"not null;index:idx_response_request_photographer,unique"`
	PhotographerID       uint   `json:"photographerId" gorm:"not null;index:idx_response_request_photographer,unique"`
	ResponseType         string `json:"responseType" gorm:"not null"`
	DeclineReason        string `json:"declineReason,omitempty"`
	EstimatedArrivalMins int    `json:"estimatedArrivalMins,omitempty"`

	Photographer *User `json:"photographer,omitempty" gorm:"foreignKey:PhotographerID"`
}

// TableName specifies the table name
func (PhotographerResponse) TableName() string {
	return "photographer_request_responses"
}

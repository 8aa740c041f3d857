package services

import (
	"errors"
	"log"
	"sort"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/pkg/utils"
	"gorm.io/gorm"
)

var (
	ErrRequestNotFound    = errors.New("request not found")
	ErrUsageLimitReached  = errors.New("monthly request limit reached for this phone number")
	ErrAlreadyResponded   = errors.New("photographer already responded to this request")
	ErrClaimedByOther     = errors.New("request already accepted by another photographer")
	ErrRequestUnavailable = errors.New("request is no longer available")
	ErrNotPendingApproval = errors.New("request is not awaiting this photographer's approval")
	ErrApprovalExpired    = errors.New("approval window expired")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidInput       = errors.New("invalid request input")
)

// acceptRetries caps the guarded-update retry loop on accept races. The guard
// clause is kept on every attempt.
const acceptRetries = 3

// Matcher triggers the matching computation for a freshly created request.
type Matcher interface {
	AutoMatch(requestID uint) (*MatchResult, error)
}

// InstantPhotoService owns the instant-photo request lifecycle: creation,
// the photographer-accept / guest-approve state machine, timeout sweeps and
// booking finalization. All mutual exclusion is done with WHERE-guarded
// updates against the request row; there are no in-process locks.
type InstantPhotoService struct {
	DB      *gorm.DB
	Usage   *GuestUsageService
	Matcher Matcher
}

func NewInstantPhotoService(db *gorm.DB, usage *GuestUsageService, matcher Matcher) *InstantPhotoService {
	return &InstantPhotoService{DB: db, Usage: usage, Matcher: matcher}
}

// CreateRequestInput carries the guest submission.
type CreateRequestInput struct {
	GuestName       string
	GuestPhone      string
	GuestEmail      string
	PartySize       int
	Latitude        float64
	Longitude       float64
	Address         string
	Landmark        string
	SessionType     string
	Urgency         string
	DurationMinutes int
	BudgetAmount    int64
}

// CreateRequest validates the guest's monthly quota, inserts the request and
// kicks off matching. Usage recording and matching are best-effort: their
// failures are logged and the created request stands.
func (s *InstantPhotoService) CreateRequest(input CreateRequestInput) (*models.InstantPhotoRequest, error) {
	if !utils.ValidCoordinates(input.Latitude, input.Longitude) {
		return nil, ErrInvalidInput
	}
	if input.BudgetAmount <= 0 || input.GuestPhone == "" || input.GuestName == "" {
		return nil, ErrInvalidInput
	}
	if input.PartySize < 1 {
		input.PartySize = 1
	}
	if input.SessionType == "" {
		input.SessionType = models.SessionTypePortrait
	}
	if input.Urgency == "" {
		input.Urgency = models.UrgencyASAP
	}
	if input.DurationMinutes <= 0 {
		input.DurationMinutes = 30
	}

	usage, err := s.Usage.CheckUsage(input.GuestPhone)
	if err != nil {
		return nil, err
	}
	if !usage.CanUse {
		return nil, ErrUsageLimitReached
	}

	request := models.InstantPhotoRequest{
		GuestName:       input.GuestName,
		GuestPhone:      input.GuestPhone,
		GuestEmail:      input.GuestEmail,
		PartySize:       input.PartySize,
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Address:         input.Address,
		Landmark:        input.Landmark,
		SessionType:     input.SessionType,
		Urgency:         input.Urgency,
		DurationMinutes: input.DurationMinutes,
		BudgetAmount:    input.BudgetAmount,
		Status:          models.RequestStatusPending,
		ExpiresAt:       time.Now().Add(models.RequestExpiry),
	}

	if err := s.DB.Create(&request).Error; err != nil {
		return nil, err
	}

	if err := s.Usage.RecordUsage(input.GuestPhone, request.ID); err != nil {
		log.Printf("Failed to record guest usage for request %d: %v", request.ID, err)
	}

	if s.Matcher != nil {
		if _, err := s.Matcher.AutoMatch(request.ID); err != nil {
			log.Printf("Auto-match failed for request %d: %v", request.ID, err)
		}
	}

	return &request, nil
}

// GetRequest returns one request with its photographer associations loaded.
func (s *InstantPhotoService) GetRequest(requestID uint) (*models.InstantPhotoRequest, error) {
	var request models.InstantPhotoRequest
	err := s.DB.Preload("PendingPhotographer").Preload("MatchedPhotographer").
		First(&request, requestID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// GuestHistory returns a guest's requests, newest first.
func (s *InstantPhotoService) GuestHistory(phone string, limit int) ([]models.InstantPhotoRequest, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var requests []models.InstantPhotoRequest
	err := s.DB.Preload("MatchedPhotographer").
		Where("guest_phone = ?", phone).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error
	return requests, err
}

// ListForPhotographer returns the requests a photographer should see: the
// ones they currently claim, plus open pending requests within their response
// radius when they are online and accepting. Requests the photographer
// previously declined are hidden.
func (s *InstantPhotoService) ListForPhotographer(photographerID uint) ([]models.InstantPhotoRequest, error) {
	var claimed []models.InstantPhotoRequest
	err := s.DB.Where(
		"(status = ? AND pending_photographer_id = ?) OR (status IN (?) AND matched_photographer_id = ?)",
		models.RequestStatusAccepted, photographerID,
		[]string{models.RequestStatusMatched, models.RequestStatusInProgress}, photographerID,
	).Find(&claimed).Error
	if err != nil {
		return nil, err
	}

	results := claimed
	seen := make(map[uint]bool, len(claimed))
	for _, r := range claimed {
		seen[r.ID] = true
	}

	var location models.PhotographerLocation
	locErr := s.DB.Where("photographer_id = ?", photographerID).First(&location).Error
	if locErr == nil && location.IsOnline && location.AcceptingRequests {
		var pending []models.InstantPhotoRequest
		err := s.DB.Where("status = ? AND expires_at > ?", models.RequestStatusPending, time.Now()).
			Order("created_at DESC").
			Limit(50).
			Find(&pending).Error
		if err != nil {
			return nil, err
		}

		declined, err := s.declinedRequestIDs(photographerID)
		if err != nil {
			return nil, err
		}

		for _, r := range pending {
			if seen[r.ID] || declined[r.ID] {
				continue
			}
			if r.PendingPhotographerID != nil && *r.PendingPhotographerID != photographerID {
				continue
			}
			if !utils.IsWithinRadius(location.Latitude, location.Longitude, r.Latitude, r.Longitude, location.ResponseRadius) {
				continue
			}
			results = append(results, r)
			seen[r.ID] = true
		}
	} else if locErr != nil && locErr != gorm.ErrRecordNotFound {
		return nil, locErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if len(results) > 20 {
		results = results[:20]
	}
	return results, nil
}

// RespondInput carries a photographer's accept or decline details.
type RespondInput struct {
	EstimatedArrivalMins int
	DeclineReason        string
}

// Respond records a photographer's accept or decline for a request.
//
// Accept performs the guarded pending -> photographer_accepted transition and
// starts the guest approval window. A lost race is re-read and classified:
// claimed by this photographer counts as success, claimed by another fails,
// still-pending retries the guarded update up to acceptRetries times.
func (s *InstantPhotoService) Respond(requestID, photographerID uint, responseType string, input RespondInput) (*models.InstantPhotoRequest, error) {
	var request models.InstantPhotoRequest
	if err := s.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	var prior models.PhotographerResponse
	priorErr := s.DB.Where("request_id = ? AND photographer_id = ?", requestID, photographerID).
		First(&prior).Error
	if priorErr != nil && priorErr != gorm.ErrRecordNotFound {
		return nil, priorErr
	}

	if responseType == models.ResponseDecline {
		return s.decline(&request, photographerID, input.DeclineReason, &prior, priorErr == nil)
	}

	// Any earlier response, accept or decline, blocks a new accept.
	if priorErr == nil {
		return nil, ErrAlreadyResponded
	}
	if request.Status == models.RequestStatusMatched {
		if request.ClaimedBy(photographerID) {
			return &request, nil
		}
		return nil, ErrClaimedByOther
	}

	return s.accept(requestID, photographerID, input.EstimatedArrivalMins)
}

func (s *InstantPhotoService) accept(requestID, photographerID uint, etaMins int) (*models.InstantPhotoRequest, error) {
	for attempt := 0; attempt < acceptRetries; attempt++ {
		now := time.Now()
		timeoutAt := now.Add(models.AcceptTimeout)

		result := s.DB.Model(&models.InstantPhotoRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":                   models.RequestStatusAccepted,
				"pending_photographer_id":  photographerID,
				"photographer_accepted_at": now,
				"photographer_timeout_at":  timeoutAt,
			})
		if result.Error != nil {
			return nil, result.Error
		}

		if result.RowsAffected == 1 {
			response := models.PhotographerResponse{
				RequestID:            requestID,
				PhotographerID:       photographerID,
				ResponseType:         models.ResponseAccept,
				EstimatedArrivalMins: etaMins,
			}
			if err := s.DB.Create(&response).Error; err != nil {
				// Audit row only; the claim itself already stands.
				log.Printf("Failed to record accept response for request %d: %v", requestID, err)
			}

			var request models.InstantPhotoRequest
			if err := s.DB.First(&request, requestID).Error; err != nil {
				return nil, err
			}
			return &request, nil
		}

		// Lost the race: re-read and classify.
		var request models.InstantPhotoRequest
		if err := s.DB.First(&request, requestID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrRequestNotFound
			}
			return nil, err
		}
		if request.ClaimedBy(photographerID) {
			return &request, nil
		}
		switch request.Status {
		case models.RequestStatusAccepted, models.RequestStatusMatched:
			return nil, ErrClaimedByOther
		case models.RequestStatusPending:
			continue
		default:
			return nil, ErrRequestUnavailable
		}
	}
	return nil, ErrRequestUnavailable
}

func (s *InstantPhotoService) decline(request *models.InstantPhotoRequest, photographerID uint, reason string, prior *models.PhotographerResponse, hasPrior bool) (*models.InstantPhotoRequest, error) {
	if hasPrior {
		prior.ResponseType = models.ResponseDecline
		prior.DeclineReason = reason
		if err := s.DB.Save(prior).Error; err != nil {
			return nil, err
		}
		return request, nil
	}

	response := models.PhotographerResponse{
		RequestID:      request.ID,
		PhotographerID: photographerID,
		ResponseType:   models.ResponseDecline,
		DeclineReason:  reason,
	}
	if err := s.DB.Create(&response).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// ApprovePhotographer confirms the pending photographer as the match. The
// approval deadline is enforced lazily: a stale claim is swept back to
// pending here and the approval fails. On success the booking is finalized.
func (s *InstantPhotoService) ApprovePhotographer(requestID, photographerID uint) (*models.InstantPhotoRequest, *models.InstantBooking, error) {
	var request models.InstantPhotoRequest
	if err := s.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, err
	}

	if request.Status != models.RequestStatusAccepted ||
		request.PendingPhotographerID == nil || *request.PendingPhotographerID != photographerID {
		return nil, nil, ErrNotPendingApproval
	}

	if request.PhotographerTimeoutAt != nil && request.PhotographerTimeoutAt.Before(time.Now()) {
		if _, err := s.SweepTimeouts(&requestID); err != nil {
			log.Printf("Timeout sweep failed for request %d: %v", requestID, err)
		}
		return nil, nil, ErrApprovalExpired
	}

	result := s.DB.Model(&models.InstantPhotoRequest{}).
		Where("id = ? AND status = ? AND pending_photographer_id = ?",
			requestID, models.RequestStatusAccepted, photographerID).
		Updates(map[string]interface{}{
			"status":                  models.RequestStatusMatched,
			"matched_photographer_id": photographerID,
			"pending_photographer_id": nil,
			"photographer_timeout_at": nil,
			"guest_approved_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil, ErrNotPendingApproval
	}

	if err := s.DB.First(&request, requestID).Error; err != nil {
		return nil, nil, err
	}

	booking, err := s.FinalizeBooking(&request, photographerID)
	if err != nil {
		log.Printf("Failed to finalize booking for request %d: %v", requestID, err)
		return &request, nil, nil
	}
	return &request, booking, nil
}

// RejectPhotographer sends the request back to pending and marks the
// photographer's response as a decline so they no longer see it.
func (s *InstantPhotoService) RejectPhotographer(requestID, photographerID uint) (*models.InstantPhotoRequest, error) {
	var request models.InstantPhotoRequest
	if err := s.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if request.Status != models.RequestStatusAccepted ||
		request.PendingPhotographerID == nil || *request.PendingPhotographerID != photographerID {
		return nil, ErrNotPendingApproval
	}

	result := s.DB.Model(&models.InstantPhotoRequest{}).
		Where("id = ? AND status = ? AND pending_photographer_id = ?",
			requestID, models.RequestStatusAccepted, photographerID).
		Updates(map[string]interface{}{
			"status":                   models.RequestStatusPending,
			"pending_photographer_id":  nil,
			"photographer_accepted_at": nil,
			"photographer_timeout_at":  nil,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotPendingApproval
	}

	err := s.DB.Model(&models.PhotographerResponse{}).
		Where("request_id = ? AND photographer_id = ?", requestID, photographerID).
		Updates(map[string]interface{}{
			"response_type":  models.ResponseDecline,
			"decline_reason": "rejected by guest",
		}).Error
	if err != nil {
		log.Printf("Failed to mark response declined for request %d: %v", requestID, err)
	}

	if err := s.DB.First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// SweepTimeouts reverts stale photographer_accepted claims back to pending.
// With a request id it sweeps that one row; with nil it sweeps every expired
// claim (the cron entry point). Returns the number of reverted requests.
func (s *InstantPhotoService) SweepTimeouts(requestID *uint) (int64, error) {
	query := s.DB.Model(&models.InstantPhotoRequest{}).
		Where("status = ? AND photographer_timeout_at < ?", models.RequestStatusAccepted, time.Now())
	if requestID != nil {
		query = query.Where("id = ?", *requestID)
	}

	result := query.Updates(map[string]interface{}{
		"status":                   models.RequestStatusPending,
		"pending_photographer_id":  nil,
		"photographer_accepted_at": nil,
		"photographer_timeout_at":  nil,
	})
	return result.RowsAffected, result.Error
}

// ExpireOldRequests cancels pending requests past their 72h expiry. Invoked
// by the external scheduler. Returns the affected count.
func (s *InstantPhotoService) ExpireOldRequests() (int64, error) {
	result := s.DB.Model(&models.InstantPhotoRequest{}).
		Where("status = ? AND expires_at < ?", models.RequestStatusPending, time.Now()).
		Update("status", models.RequestStatusCancelled)
	return result.RowsAffected, result.Error
}

// UpdateStatus advances a matched request through
// in_progress -> completed -> delivered. Only the matched photographer may
// advance it. Completion finalizes the booking; the unique request_id index
// makes that idempotent with the approve path.
func (s *InstantPhotoService) UpdateStatus(requestID, photographerID uint, status string) (*models.InstantPhotoRequest, *models.InstantBooking, error) {
	var from string
	updates := map[string]interface{}{"status": status}

	switch status {
	case models.RequestStatusInProgress:
		from = models.RequestStatusMatched
	case models.RequestStatusCompleted:
		from = models.RequestStatusInProgress
	case models.RequestStatusDelivered:
		from = models.RequestStatusCompleted
		updates["delivered_at"] = time.Now()
	default:
		return nil, nil, ErrInvalidTransition
	}

	result := s.DB.Model(&models.InstantPhotoRequest{}).
		Where("id = ? AND status = ? AND matched_photographer_id = ?", requestID, from, photographerID).
		Updates(updates)
	if result.Error != nil {
		return nil, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil, ErrInvalidTransition
	}

	var request models.InstantPhotoRequest
	if err := s.DB.First(&request, requestID).Error; err != nil {
		return nil, nil, err
	}

	var booking *models.InstantBooking
	if status == models.RequestStatusCompleted {
		b, err := s.FinalizeBooking(&request, photographerID)
		if err != nil {
			log.Printf("Failed to finalize booking for completed request %d: %v", requestID, err)
		} else {
			booking = b
		}
	}
	if status == models.RequestStatusDelivered {
		err := s.DB.Model(&models.InstantBooking{}).
			Where("request_id = ?", requestID).
			Update("delivered_at", time.Now()).Error
		if err != nil {
			log.Printf("Failed to stamp booking delivery for request %d: %v", requestID, err)
		}
	}

	return &request, booking, nil
}

// FinalizeBooking creates the monetary booking for a confirmed request, or
// returns the existing one. The platform takes a floored 10% fee; fee plus
// earnings always equals the total.
func (s *InstantPhotoService) FinalizeBooking(request *models.InstantPhotoRequest, photographerID uint) (*models.InstantBooking, error) {
	var existing models.InstantBooking
	err := s.DB.Where("request_id = ?", request.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fee, earnings := utils.SplitBookingAmount(request.BudgetAmount)
	booking := models.InstantBooking{
		RequestID:            request.ID,
		PhotographerID:       photographerID,
		TotalAmount:          request.BudgetAmount,
		PlatformFee:          fee,
		PhotographerEarnings: earnings,
		PaymentStatus:        models.PaymentStatusPending,
	}

	if err := s.DB.Create(&booking).Error; err != nil {
		// A concurrent finalize may have won the unique index race.
		if lookupErr := s.DB.Where("request_id = ?", request.ID).First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (s *InstantPhotoService) declinedRequestIDs(photographerID uint) (map[uint]bool, error) {
	var responses []models.PhotographerResponse
	err := s.DB.Select("request_id").
		Where("photographer_id = ? AND response_type = ?", photographerID, models.ResponseDecline).
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	declined := make(map[uint]bool, len(responses))
	for _, r := range responses {
		declined[r.RequestID] = true
	}
	return declined, nil
}

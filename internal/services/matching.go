package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shutterhub/shutterhub-backend/internal/models"
	"github.com/shutterhub/shutterhub-backend/pkg/utils"
	"gorm.io/gorm"
)

// maxNotifiedCandidates is how many of the top-ranked photographers get
// notified per matching pass.
const maxNotifiedCandidates = 5

// MatchResult is what a matching pass produced.
type MatchResult struct {
	PhotographerID *uint  `json:"photographerId,omitempty"`
	Message        string `json:"message"`
	NotifiedCount  int    `json:"notifiedCount"`
}

// MatchCandidate is one ranked photographer for a request.
type MatchCandidate struct {
	PhotographerID uint
	DistanceMeters float64
	Rate           int64
	ArrivalMins    int
	Score          float64
}

// MatchingService ranks online photographers for an open request and
// notifies the best ones. This hosts the geo + urgency + budget computation
// in-process; callers treat its failures as non-fatal.
type MatchingService struct {
	DB  *gorm.DB
	Hub *Hub
}

func NewMatchingService(db *gorm.DB, hub *Hub) *MatchingService {
	return &MatchingService{DB: db, Hub: hub}
}

// AutoMatch scans online, accepting photographers for a pending request,
// ranks them and notifies the top candidates over websocket and push. The
// best candidate's id is surfaced but nothing is claimed on their behalf;
// acceptance stays with the photographer.
func (s *MatchingService) AutoMatch(requestID uint) (*MatchResult, error) {
	var request models.InstantPhotoRequest
	if err := s.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if request.Status != models.RequestStatusPending {
		return &MatchResult{Message: "request is not open for matching"}, nil
	}

	var locations []models.PhotographerLocation
	err := s.DB.Preload("Photographer").
		Where("is_online = ? AND accepting_requests = ?", true, true).
		Find(&locations).Error
	if err != nil {
		return nil, err
	}

	candidates := RankCandidates(&request, locations, time.Now())
	if len(candidates) == 0 {
		return &MatchResult{Message: "no photographers available nearby"}, nil
	}

	notified := s.notifyCandidates(&request, locations, candidates)

	s.cacheCandidates(&request, candidates)

	best := candidates[0].PhotographerID
	return &MatchResult{
		PhotographerID: &best,
		Message:        fmt.Sprintf("notified %d nearby photographers", notified),
		NotifiedCount:  notified,
	}, nil
}

// RankCandidates filters photographer locations against the request's
// radius, availability window, session type and budget, then orders them by
// urgency-weighted distance (closest-cheapest first for asap requests,
// progressively more rate-tolerant for relaxed urgency).
func RankCandidates(request *models.InstantPhotoRequest, locations []models.PhotographerLocation, now time.Time) []MatchCandidate {
	weight := urgencyWeight(request.Urgency)

	var candidates []MatchCandidate
	for _, location := range locations {
		if location.AvailableUntil != nil && location.AvailableUntil.Before(now) {
			continue
		}

		rate := location.RateFor(request.SessionType)
		if rate <= 0 || rate > request.BudgetAmount {
			continue
		}

		distance := utils.HaversineMeters(
			request.Latitude, request.Longitude,
			location.Latitude, location.Longitude,
		)
		if distance > location.ResponseRadius {
			continue
		}

		candidates = append(candidates, MatchCandidate{
			PhotographerID: location.PhotographerID,
			DistanceMeters: distance,
			Rate:           rate,
			ArrivalMins:    utils.EstimateArrivalMinutes(distance),
			Score:          distance*weight + float64(rate)/100,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates
}

func urgencyWeight(urgency string) float64 {
	switch urgency {
	case models.UrgencyWithinHour:
		return 1.2
	case models.UrgencyToday:
		return 1.5
	default: // asap: distance dominates
		return 1.0
	}
}

func (s *MatchingService) notifyCandidates(request *models.InstantPhotoRequest, locations []models.PhotographerLocation, candidates []MatchCandidate) int {
	tokens := make(map[uint]string, len(locations))
	for _, location := range locations {
		if location.Photographer != nil {
			tokens[location.PhotographerID] = location.Photographer.FCMToken
		}
	}

	expiresIn := int(time.Until(request.ExpiresAt).Minutes())
	notified := 0
	for i, candidate := range candidates {
		if i >= maxNotifiedCandidates {
			break
		}

		if s.Hub != nil {
			s.Hub.SendInstantRequestNotice(candidate.PhotographerID, InstantRequestNotice{
				RequestID:      request.ID,
				SessionType:    request.SessionType,
				Urgency:        request.Urgency,
				BudgetAmount:   request.BudgetAmount,
				DistanceMeters: candidate.DistanceMeters,
				Landmark:       request.Landmark,
				ExpiresInMins:  expiresIn,
			})
		}

		if token := tokens[candidate.PhotographerID]; token != "" {
			ctx := context.Background()
			go SendNewRequestNotification(ctx, token, request.ID, request.SessionType, candidate.DistanceMeters)
		}

		notified++
	}
	return notified
}

func (s *MatchingService) cacheCandidates(request *models.InstantPhotoRequest, candidates []MatchCandidate) {
	cached := make([]map[string]interface{}, 0, len(candidates))
	for _, candidate := range candidates {
		cached = append(cached, map[string]interface{}{
			"photographerId": candidate.PhotographerID,
			"distance":       candidate.DistanceMeters,
			"rate":           candidate.Rate,
			"arrivalMins":    candidate.ArrivalMins,
		})
	}

	ctx := context.Background()
	if err := SetNearbyPhotographers(ctx, request.Latitude, request.Longitude, cached); err != nil {
		log.Printf("Failed to cache match candidates for request %d: %v", request.ID, err)
	}
}

package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/lifecycle"
	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/repository"
	"github.com/senyabanana/clinic-offer-service/internal/utils"
)

type OfferService struct {
	Repo     repository.OfferRepository
	Requests repository.RequestRepository
	Now      func() time.Time
}

// NewOfferService создает новый экземпляр OfferService.
func NewOfferService(repo repository.OfferRepository, requests repository.RequestRepository, now func() time.Time) *OfferService {
	if now == nil {
		now = SystemClock
	}
	return &OfferService{Repo: repo, Requests: requests, Now: now}
}

// SubmitOffer создает предложение клиники и переводит запрос из new в offered.
// Предварительные проверки дают понятную ошибку, окончательное решение принимает
// условная запись в репозитории.
func (s *OfferService) SubmitOffer(ctx context.Context, requestId, clinicId string, fields models.OfferFields) (*models.Offer, error) {
	if clinicId == "" {
		return nil, models.ErrUnauthorized
	}
	if requestId == "" {
		return nil, models.ErrRequestNotFound
	}

	draft, err := lifecycle.ValidateOffer(fields)
	if err != nil {
		return nil, err
	}

	req, err := s.Requests.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}

	exists, err := s.Repo.HasClinicOffer(ctx, requestId, clinicId)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing offer: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateOffer
	}

	now := s.Now()
	if !lifecycle.IsOpen(*req, now) {
		if req.Status == models.NewRequest {
			return nil, models.ErrSlaExpired
		}
		return nil, models.ErrRequestNotOpen
	}

	draft.RequestID = requestId
	draft.ClinicID = clinicId
	draft.Status = models.PendingOffer
	draft.SubmittedAt = now
	draft.ExpiresAt = lifecycle.OfferExpiry(now)
	return s.Repo.CreateOffer(ctx, draft, now)
}

// ListRequestOffers получает предложения по запросу пациента.
func (s *OfferService) ListRequestOffers(ctx context.Context, patientId, requestId string) ([]models.Offer, error) {
	req, err := s.Requests.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if req.PatientID != patientId {
		return nil, models.ErrForbidden
	}
	offers, err := s.Repo.GetRequestOffers(ctx, requestId)
	if err != nil {
		return nil, err
	}
	return s.evaluateAll(offers), nil
}

// ListClinicOffers получает предложения клиники.
func (s *OfferService) ListClinicOffers(ctx context.Context, clinicId, limitStr, offsetStr string) ([]models.Offer, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, models.KindValidation, models.ErrInvalidField.Code, err.Error())
	}
	if clinicId == "" {
		return nil, models.ErrUnauthorized
	}
	offers, err := s.Repo.GetClinicOffers(ctx, clinicId, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.evaluateAll(offers), nil
}

// DecideOffer фиксирует решение пациента по предложению.
func (s *OfferService) DecideOffer(ctx context.Context, patientId, offerId string, decision models.OfferDecision) (*models.Offer, error) {
	allowedDecision := map[models.OfferDecision]models.OfferStatus{
		models.AcceptDecision: models.AcceptedOffer,
		models.RejectDecision: models.RejectedOffer,
	}
	target, ok := allowedDecision[decision]
	if !ok {
		return nil, models.ErrInvalidField.WithMessage("invalid decision, must be either 'accepted' or 'rejected'")
	}

	offer, err := s.Repo.GetOffer(ctx, offerId)
	if err != nil {
		return nil, err
	}
	req, err := s.Requests.GetRequest(ctx, offer.RequestID)
	if err != nil {
		return nil, err
	}
	if req.PatientID != patientId {
		return nil, models.ErrForbidden
	}

	now := s.Now()
	current := lifecycle.EvaluateOfferExpiry(*offer, now)
	if !lifecycle.CanTransitionOffer(current.Status, target) {
		return nil, models.ErrOfferNotPending
	}
	return s.Repo.DecideOffer(ctx, offerId, target, now)
}

// ExpireOverdue сохраняет истечение SLA запросов и окна ответа по предложениям.
func (s *OfferService) ExpireOverdue(ctx context.Context) (requests int64, offers int64, err error) {
	now := s.Now()
	requests, err = s.Requests.ExpireOverdueRequests(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	offers, err = s.Repo.ExpireStaleOffers(ctx, now)
	if err != nil {
		return requests, 0, err
	}
	return requests, offers, nil
}

func (s *OfferService) evaluateAll(offers []models.Offer) []models.Offer {
	now := s.Now()
	out := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		out = append(out, lifecycle.EvaluateOfferExpiry(offer, now))
	}
	return out
}

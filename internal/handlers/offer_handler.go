package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/services"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
)

// OfferHandler - структура для обработки HTTP-запросов по предложениям клиник.
type OfferHandler struct {
	Service *services.OfferService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewOfferHandler создает новый экземпляр OfferHandler.
func NewOfferHandler(service *services.OfferService, logger *zap.Logger, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// SubmitOffer обрабатывает запросы клиники на отправку предложения.
func (h *OfferHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var fields models.OfferFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		utils.SendError(w, models.ErrInvalidField.WithMessage("invalid request body"), "")
		return
	}

	requestId := r.PathValue("requestId")
	clinicId := callerIdentity(r).UserID
	offer, err := h.Service.SubmitOffer(ctx, requestId, clinicId, fields)
	if err != nil {
		respondError(h.Logger, w, err, "failed to submit offer",
			zap.String("request_id", requestId), zap.String("clinic_id", clinicId))
		return
	}

	h.Logger.Info("offer submitted",
		zap.String("offer_id", offer.ID), zap.String("request_id", requestId), zap.String("clinic_id", clinicId))
	utils.SendJSON(w, http.StatusOK, offer)
}

// GetRequestOffers обрабатывает запросы пациента для получения предложений по его запросу.
func (h *OfferHandler) GetRequestOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestId := r.PathValue("requestId")
	offers, err := h.Service.ListRequestOffers(ctx, callerIdentity(r).UserID, requestId)
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch offers", zap.String("request_id", requestId))
		return
	}

	utils.SendJSON(w, http.StatusOK, offers)
}

// GetClinicOffers обрабатывает запросы для получения предложений клиники.
func (h *OfferHandler) GetClinicOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	clinicId := callerIdentity(r).UserID
	offers, err := h.Service.ListClinicOffers(ctx, clinicId, limitStr, offsetStr)
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch offers", zap.String("clinic_id", clinicId))
		return
	}

	utils.SendJSON(w, http.StatusOK, offers)
}

// SubmitOfferDecision обрабатывает решение пациента по предложению.
func (h *OfferHandler) SubmitOfferDecision(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var input models.OfferDecisionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendError(w, models.ErrInvalidField.WithMessage("invalid request body"), "")
		return
	}

	offerId := r.PathValue("offerId")
	offer, err := h.Service.DecideOffer(ctx, callerIdentity(r).UserID, offerId, input.Decision)
	if err != nil {
		respondError(h.Logger, w, err, "failed to submit decision", zap.String("offer_id", offerId))
		return
	}

	h.Logger.Info("offer decided", zap.String("offer_id", offer.ID), zap.String("status", string(offer.Status)))
	utils.SendJSON(w, http.StatusOK, offer)
}

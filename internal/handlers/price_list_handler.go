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

// PriceListHandler - структура для обработки HTTP-запросов к прайс-листу клиники.
type PriceListHandler struct {
	Service *services.PriceListService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewPriceListHandler создает новый экземпляр PriceListHandler.
func NewPriceListHandler(service *services.PriceListService, logger *zap.Logger, timeout time.Duration) *PriceListHandler {
	return &PriceListHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetPriceList обрабатывает запросы для получения прайс-листа клиники.
func (h *PriceListHandler) GetPriceList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	clinicId := callerIdentity(r).UserID
	entries, err := h.Service.ListPriceList(ctx, clinicId)
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch price list", zap.String("clinic_id", clinicId))
		return
	}

	utils.SendJSON(w, http.StatusOK, entries)
}

// CreateEntry обрабатывает запросы для добавления цены в прайс-лист.
func (h *PriceListHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

// EditEntry обрабатывает запросы для изменения цены в прайс-листе.
func (h *PriceListHandler) EditEntry(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("entryId"))
}

func (h *PriceListHandler) save(w http.ResponseWriter, r *http.Request, entryId string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var input models.PriceListInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendError(w, models.ErrInvalidField.WithMessage("invalid request body"), "")
		return
	}

	clinicId := callerIdentity(r).UserID
	entry, err := h.Service.SavePriceListEntry(ctx, clinicId, entryId, input)
	if err != nil {
		respondError(h.Logger, w, err, "failed to save price list entry",
			zap.String("clinic_id", clinicId), zap.String("entry_id", entryId))
		return
	}

	utils.SendJSON(w, http.StatusOK, entry)
}

// DeleteEntry обрабатывает запросы для удаления цены из прайс-листа.
func (h *PriceListHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	entryId := r.PathValue("entryId")
	if err := h.Service.DeletePriceListEntry(ctx, callerIdentity(r).UserID, entryId); err != nil {
		respondError(h.Logger, w, err, "failed to delete price list entry", zap.String("entry_id", entryId))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/services"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
)

// RequestHandler - структура для обработки HTTP-запросов пациентов.
type RequestHandler struct {
	Service *services.RequestService
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewRequestHandler создаёт новый экземпляр RequestHandler.
func NewRequestHandler(service *services.RequestService, logger *zap.Logger, timeout time.Duration) *RequestHandler {
	return &RequestHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateRequest обрабатывает запросы для создания запроса пациента.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var input models.RequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendError(w, models.ErrInvalidField.WithMessage("invalid request body"), "")
		return
	}

	caller := callerIdentity(r)
	req, err := h.Service.CreateRequest(ctx, caller.UserID, input)
	if err != nil {
		respondError(h.Logger, w, err, "failed to create request", zap.String("patient_id", caller.UserID))
		return
	}

	h.Logger.Info("request created", zap.String("request_id", req.ID), zap.String("procedure", req.ProcedureKey))
	utils.SendJSON(w, http.StatusOK, req)
}

// GetPatientRequests обрабатывает запросы для получения списка запросов пациента.
func (h *RequestHandler) GetPatientRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	caller := callerIdentity(r)
	requests, err := h.Service.ListPatientRequests(ctx, caller.UserID, limitStr, offsetStr)
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch requests", zap.String("patient_id", caller.UserID))
		return
	}

	utils.SendJSON(w, http.StatusOK, requests)
}

// GetOpenRequests обрабатывает запросы клиник для получения ленты открытых запросов.
func (h *RequestHandler) GetOpenRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	query := r.URL.Query()
	var procedureKeys []string
	for _, v := range query["procedure"] {
		for _, key := range strings.Split(v, ",") {
			if key = strings.TrimSpace(key); key != "" {
				procedureKeys = append(procedureKeys, key)
			}
		}
	}

	requests, err := h.Service.ListOpenRequests(ctx, procedureKeys, query.Get("country"), query.Get("limit"), query.Get("offset"))
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch open requests")
		return
	}

	utils.SendJSON(w, http.StatusOK, requests)
}

// GetRequest обрабатывает запросы для получения запроса по идентификатору.
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestId := r.PathValue("requestId")
	req, err := h.Service.GetRequest(ctx, callerIdentity(r), requestId)
	if err != nil {
		respondError(h.Logger, w, err, "failed to fetch request", zap.String("request_id", requestId))
		return
	}

	utils.SendJSON(w, http.StatusOK, req)
}

// DeleteRequest обрабатывает запросы для удаления запроса пациентом.
func (h *RequestHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	requestId := r.PathValue("requestId")
	if err := h.Service.DeleteRequest(ctx, callerIdentity(r).UserID, requestId); err != nil {
		respondError(h.Logger, w, err, "failed to delete request", zap.String("request_id", requestId))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

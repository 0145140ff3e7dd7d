// Package lifecycle содержит чистые правила жизненного цикла запросов и предложений:
// расчет дедлайнов, ленивое истечение SLA, таблицы переходов и валидацию предложений.
// Функции пакета не обращаются к хранилищу и не читают системное время.
package lifecycle

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/utils"
)

const (
	SLAWindow      = 24 * time.Hour     // Время на ответ клиники
	OfferWindow    = 7 * 24 * time.Hour // Время на решение пациента
	MaxPriceSpread = int64(200)         // Допустимая разница maxPrice - minPrice
)

var requestTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.NewRequest:     {models.OfferedRequest, models.ExpiredRequest},
	models.OfferedRequest: {},
	models.ExpiredRequest: {},
}

var offerTransitions = map[models.OfferStatus][]models.OfferStatus{
	models.PendingOffer:  {models.AcceptedOffer, models.RejectedOffer, models.ExpiredOffer},
	models.AcceptedOffer: {},
	models.RejectedOffer: {},
	models.ExpiredOffer:  {},
}

// SLADeadline возвращает дедлайн ответа клиник для запроса.
func SLADeadline(createdAt time.Time) time.Time {
	return createdAt.Add(SLAWindow)
}

// OfferExpiry возвращает момент, после которого пациент не может ответить на предложение.
func OfferExpiry(submittedAt time.Time) time.Time {
	return submittedAt.Add(OfferWindow)
}

// CanTransitionRequest проверяет допустимость перехода статуса запроса.
func CanTransitionRequest(from, to models.RequestStatus) bool {
	return utils.Contains(requestTransitions[from], to)
}

// CanTransitionOffer проверяет допустимость перехода статуса предложения.
func CanTransitionOffer(from, to models.OfferStatus) bool {
	return utils.Contains(offerTransitions[from], to)
}

// EvaluateExpiry возвращает запрос со статусом, согласованным с now.
// Запрос в статусе new, у которого наступил дедлайн, читается как expired.
func EvaluateExpiry(req models.Request, now time.Time) models.Request {
	if req.Status == models.NewRequest && !now.Before(req.SLADeadlineAt) {
		req.Status = models.ExpiredRequest
	}
	return req
}

// EvaluateOfferExpiry возвращает предложение со статусом, согласованным с now.
func EvaluateOfferExpiry(offer models.Offer, now time.Time) models.Offer {
	if offer.Status == models.PendingOffer && !now.Before(offer.ExpiresAt) {
		offer.Status = models.ExpiredOffer
	}
	return offer
}

// IsOpen сообщает, может ли запрос принять предложение в момент now.
func IsOpen(req models.Request, now time.Time) bool {
	return CanTransitionRequest(EvaluateExpiry(req, now).Status, models.OfferedRequest)
}

// ParsePrice разбирает цену как целое положительное число.
func ParsePrice(field string, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, models.ErrMissingField.WithMessage(fmt.Sprintf("%s is required", field))
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, models.ErrInvalidPrice.WithMessage(fmt.Sprintf("%s must be a positive whole number", field))
	}
	return value, nil
}

// ValidateOffer проверяет поля предложения и возвращает заготовку Offer без идентификаторов и времени.
func ValidateOffer(fields models.OfferFields) (models.Offer, error) {
	offerType := fields.OfferType
	if offerType == "" {
		offerType = models.ManualOffer
	}
	switch offerType {
	case models.ManualOffer, models.AutoOffer:
	case models.SLADefaultOffer:
		return models.Offer{}, models.ErrInvalidField.WithMessage("offer type sla_default cannot be submitted by a clinic")
	default:
		return models.Offer{}, models.ErrInvalidField.WithMessage(fmt.Sprintf("unsupported offer type: %s", offerType))
	}

	minPrice, err := ParsePrice("minPrice", string(fields.MinPrice))
	if err != nil {
		return models.Offer{}, err
	}
	maxPrice, err := ParsePrice("maxPrice", string(fields.MaxPrice))
	if err != nil {
		return models.Offer{}, err
	}
	if maxPrice < minPrice {
		return models.Offer{}, models.ErrInvalidPrice.WithMessage("maxPrice must not be lower than minPrice")
	}
	if maxPrice-minPrice > MaxPriceSpread {
		return models.Offer{}, models.ErrPriceSpreadExceeded
	}

	if offerType == models.ManualOffer {
		required := []struct {
			name  string
			value string
		}{
			{"doctorName", fields.DoctorName},
			{"procedureAddress", fields.ProcedureAddress},
			{"durationLabel", fields.DurationLabel},
			{"hospitalizationLabel", fields.HospitalizationLabel},
		}
		for _, f := range required {
			if strings.TrimSpace(f.value) == "" {
				return models.Offer{}, models.ErrMissingField.WithMessage(fmt.Sprintf("%s is required", f.name))
			}
		}
	}

	services, err := normalizeServices(fields.IncludedServices)
	if err != nil {
		return models.Offer{}, err
	}

	return models.Offer{
		MinPrice:             minPrice,
		MaxPrice:             maxPrice,
		OfferType:            offerType,
		DurationLabel:        strings.TrimSpace(fields.DurationLabel),
		HospitalizationLabel: strings.TrimSpace(fields.HospitalizationLabel),
		DoctorName:           strings.TrimSpace(fields.DoctorName),
		ProcedureAddress:     strings.TrimSpace(fields.ProcedureAddress),
		IncludedServices:     services,
		Notes:                fields.Notes,
	}, nil
}

func normalizeServices(in []models.IncludedService) ([]models.IncludedService, error) {
	allowed := []models.IncludedService{models.Accommodation, models.Transport, models.Consultation}
	out := make([]models.IncludedService, 0, len(in))
	for _, s := range in {
		if !utils.Contains(allowed, s) {
			return nil, models.ErrInvalidField.WithMessage(fmt.Sprintf("unsupported included service: %s", s))
		}
		if !utils.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out, nil
}

package models

import (
	"encoding/json"
	"time"
)

type (
	OfferType       string // Происхождение предложения
	OfferStatus     string // Статус предложения
	OfferDecision   string // Решение пациента
	IncludedService string // Услуга, входящая в предложение
)

const (
	AutoOffer       OfferType = "auto"        // Сформировано по прайс-листу
	ManualOffer     OfferType = "manual"      // Заполнено клиникой
	SLADefaultOffer OfferType = "sla_default" // Резервное предложение при истечении SLA

	PendingOffer  OfferStatus = "pending"
	AcceptedOffer OfferStatus = "accepted"
	RejectedOffer OfferStatus = "rejected"
	ExpiredOffer  OfferStatus = "expired"

	AcceptDecision OfferDecision = "accepted"
	RejectDecision OfferDecision = "rejected"

	Accommodation IncludedService = "accommodation"
	Transport     IncludedService = "transport"
	Consultation  IncludedService = "consultation"
)

// Offer представляет модель предложения клиники по запросу.
type Offer struct {
	ID                   string            `json:"id"`
	RequestID            string            `json:"requestId"`
	ClinicID             string            `json:"clinicId"`
	MinPrice             int64             `json:"minPrice"`
	MaxPrice             int64             `json:"maxPrice"`
	OfferType            OfferType         `json:"offerType"`
	DurationLabel        string            `json:"durationLabel"`
	HospitalizationLabel string            `json:"hospitalizationLabel"`
	DoctorName           string            `json:"doctorName"`
	ProcedureAddress     string            `json:"procedureAddress"`
	IncludedServices     []IncludedService `json:"includedServices"`
	Notes                string            `json:"notes"`
	Status               OfferStatus       `json:"status"`
	SubmittedAt          time.Time         `json:"submittedAt"`
	ExpiresAt            time.Time         `json:"expiresAt"`
	DecidedAt            *time.Time        `json:"decidedAt,omitempty"`
	DeletedAt            *time.Time        `json:"-"`
}

// OfferFields - поля предложения в том виде, в каком их прислала клиника.
// Цены приходят как PriceValue и разбираются при валидации.
type OfferFields struct {
	MinPrice             PriceValue        `json:"minPrice"`
	MaxPrice             PriceValue        `json:"maxPrice"`
	OfferType            OfferType         `json:"offerType"`
	DurationLabel        string            `json:"durationLabel"`
	HospitalizationLabel string            `json:"hospitalizationLabel"`
	DoctorName           string            `json:"doctorName"`
	ProcedureAddress     string            `json:"procedureAddress"`
	IncludedServices     []IncludedService `json:"includedServices"`
	Notes                string            `json:"notes"`
}

// OfferDecisionInput - тело запроса с решением пациента.
type OfferDecisionInput struct {
	Decision OfferDecision `json:"decision"`
}

// PriceValue - цена в том виде, в каком ее прислали. Принимает любое JSON-значение,
// чтобы нечисловая цена отклонялась при валидации, а не при разборе тела запроса.
type PriceValue string

func (p *PriceValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PriceValue(s)
		return nil
	}
	if string(data) == "null" {
		*p = ""
		return nil
	}
	*p = PriceValue(data)
	return nil
}

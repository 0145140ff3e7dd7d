package models

import "time"

type RequestStatus string // Статус запроса пациента

const (
	NewRequest     RequestStatus = "new"     // Запрос ожидает предложений
	OfferedRequest RequestStatus = "offered" // Клиника отправила предложение
	ExpiredRequest RequestStatus = "expired" // SLA истек без предложений
)

// Request представляет модель запроса пациента на процедуру.
type Request struct {
	ID            string        `json:"id"`
	PatientID     string        `json:"patientId"`
	ProcedureKey  string        `json:"procedureKey"`
	Countries     []string      `json:"countries"`
	Cities        []string      `json:"cities"`
	Photos        []string      `json:"photos"`
	Description   string        `json:"description"`
	Notes         string        `json:"notes"`
	Status        RequestStatus `json:"status"`
	OfferType     OfferType     `json:"offerType,omitempty"`
	OfferPriceMin int64         `json:"offerPriceMinUsd,omitempty"`
	OfferPriceMax int64         `json:"offerPriceMaxUsd,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	SLADeadlineAt time.Time     `json:"slaDeadlineAt"`
	DeletedAt     *time.Time    `json:"-"`
}

// RequestInput представляет структуру запроса для создания запроса пациента.
type RequestInput struct {
	ProcedureKey string   `json:"procedureKey"`
	Countries    []string `json:"countries"`
	Cities       []string `json:"cities"`
	Photos       []string `json:"photos"`
	Description  string   `json:"description"`
	Notes        string   `json:"notes"`
}

// OpenRequestFilter - фильтр ленты открытых запросов для клиник.
type OpenRequestFilter struct {
	ProcedureKeys []string
	Country       string
	Limit         int
	Offset        int
}

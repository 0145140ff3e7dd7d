package models

import "time"

// Currency - единственная валюта цен в системе.
const Currency = "USD"

// PriceListEntry представляет цену клиники на процедуру из каталога.
type PriceListEntry struct {
	ID           string     `json:"id"`
	ClinicID     string     `json:"clinicId"`
	ProcedureKey string     `json:"procedureKey"`
	Amount       int64      `json:"amount"`
	Currency     string     `json:"currency"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	DeletedAt    *time.Time `json:"-"`
}

// PriceListInput - тело запроса на создание или изменение цены.
type PriceListInput struct {
	ProcedureKey string `json:"procedureKey"`
	Amount       int64  `json:"amount"`
}

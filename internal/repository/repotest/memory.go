// Package repotest содержит хранилища в памяти для тестов сервисов, обработчиков и sweeper.
// Условные записи воспроизводят поведение Postgres-репозиториев.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"github.com/google/uuid"
)

// Store - общее состояние для всех репозиториев в памяти.
type Store struct {
	mu       sync.Mutex
	requests map[string]models.Request
	offers   map[string]models.Offer
	entries  map[string]models.PriceListEntry

	// Err, если задана, возвращается всеми методами.
	Err error
}

// NewStore создает пустое хранилище.
func NewStore() *Store {
	return &Store{
		requests: make(map[string]models.Request),
		offers:   make(map[string]models.Offer),
		entries:  make(map[string]models.PriceListEntry),
	}
}

// Requests возвращает RequestRepository поверх хранилища.
func (s *Store) Requests() *RequestRepo { return &RequestRepo{s: s} }

// Offers возвращает OfferRepository поверх хранилища.
func (s *Store) Offers() *OfferRepo { return &OfferRepo{s: s} }

// PriceList возвращает PriceListRepository поверх хранилища.
func (s *Store) PriceList() *PriceListRepo { return &PriceListRepo{s: s} }

// PutRequest кладет запрос как есть, минуя проверки.
func (s *Store) PutRequest(req models.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
}

// RawRequest возвращает сохраненный запрос без ленивого пересчета статуса.
func (s *Store) RawRequest(id string) (models.Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	return req, ok
}

// OfferCount возвращает количество сохраненных предложений.
func (s *Store) OfferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offers)
}

// RawOffer возвращает сохраненное предложение.
func (s *Store) RawOffer(id string) (models.Offer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[id]
	return offer, ok
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// RequestRepo - RequestRepository в памяти.
type RequestRepo struct{ s *Store }

func (r *RequestRepo) CreateRequest(ctx context.Context, req models.Request) (*models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	req.ID = uuid.New().String()
	r.s.requests[req.ID] = req
	return &req, nil
}

func (r *RequestRepo) GetRequest(ctx context.Context, requestId string) (*models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	req, ok := r.s.requests[requestId]
	if !ok || req.DeletedAt != nil {
		return nil, models.ErrRequestNotFound
	}
	return &req, nil
}

func (r *RequestRepo) GetPatientRequests(ctx context.Context, patientId string, limit, offset int) ([]models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Request
	for _, req := range r.s.requests {
		if req.PatientID == patientId && req.DeletedAt == nil {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *RequestRepo) GetOpenRequests(ctx context.Context, filter models.OpenRequestFilter, now time.Time) ([]models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Request
	for _, req := range r.s.requests {
		if req.Status != models.NewRequest || !now.Before(req.SLADeadlineAt) || req.DeletedAt != nil {
			continue
		}
		if len(filter.ProcedureKeys) > 0 && !utils.Contains(filter.ProcedureKeys, req.ProcedureKey) {
			continue
		}
		if filter.Country != "" && !utils.Contains(req.Countries, filter.Country) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SLADeadlineAt.Before(out[j].SLADeadlineAt) })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *RequestRepo) DeleteRequest(ctx context.Context, requestId string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	req, ok := r.s.requests[requestId]
	if !ok || req.DeletedAt != nil {
		return models.ErrRequestNotFound
	}
	req.DeletedAt = &now
	r.s.requests[requestId] = req
	return nil
}

func (r *RequestRepo) ExpireOverdueRequests(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var n int64
	for id, req := range r.s.requests {
		if req.Status == models.NewRequest && !now.Before(req.SLADeadlineAt) && req.DeletedAt == nil {
			req.Status = models.ExpiredRequest
			r.s.requests[id] = req
			n++
		}
	}
	return n, nil
}

// OfferRepo - OfferRepository в памяти.
type OfferRepo struct{ s *Store }

func (r *OfferRepo) CreateOffer(ctx context.Context, offer models.Offer, now time.Time) (*models.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	req, ok := r.s.requests[offer.RequestID]
	if !ok || req.DeletedAt != nil {
		return nil, models.ErrRequestNotFound
	}
	for _, o := range r.s.offers {
		if o.RequestID == offer.RequestID && o.ClinicID == offer.ClinicID {
			return nil, models.ErrDuplicateOffer
		}
	}
	if req.Status != models.NewRequest || !req.SLADeadlineAt.After(now) {
		if req.Status == models.NewRequest {
			return nil, models.ErrSlaExpired.AsRaceLost()
		}
		return nil, models.ErrRequestNotOpen.AsRaceLost()
	}
	req.Status = models.OfferedRequest
	req.OfferType = offer.OfferType
	req.OfferPriceMin = offer.MinPrice
	req.OfferPriceMax = offer.MaxPrice
	r.s.requests[req.ID] = req

	offer.ID = uuid.New().String()
	r.s.offers[offer.ID] = offer
	return &offer, nil
}

func (r *OfferRepo) HasClinicOffer(ctx context.Context, requestId, clinicId string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	for _, o := range r.s.offers {
		if o.RequestID == requestId && o.ClinicID == clinicId {
			return true, nil
		}
	}
	return false, nil
}

func (r *OfferRepo) GetOffer(ctx context.Context, offerId string) (*models.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	offer, ok := r.s.offers[offerId]
	if !ok || offer.DeletedAt != nil {
		return nil, models.ErrOfferNotFound
	}
	return &offer, nil
}

func (r *OfferRepo) GetRequestOffers(ctx context.Context, requestId string) ([]models.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Offer
	for _, o := range r.s.offers {
		if o.RequestID == requestId && o.DeletedAt == nil {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (r *OfferRepo) GetClinicOffers(ctx context.Context, clinicId string, limit, offset int) ([]models.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.Offer
	for _, o := range r.s.offers {
		if o.ClinicID == clinicId && o.DeletedAt == nil {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return page(out, limit, offset), nil
}

func (r *OfferRepo) DecideOffer(ctx context.Context, offerId string, status models.OfferStatus, now time.Time) (*models.Offer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	offer, ok := r.s.offers[offerId]
	if !ok || offer.DeletedAt != nil || offer.Status != models.PendingOffer || !offer.ExpiresAt.After(now) {
		return nil, models.ErrOfferNotPending.AsRaceLost()
	}
	offer.Status = status
	offer.DecidedAt = &now
	r.s.offers[offerId] = offer
	return &offer, nil
}

func (r *OfferRepo) ExpireStaleOffers(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	var n int64
	for id, o := range r.s.offers {
		if o.Status == models.PendingOffer && !now.Before(o.ExpiresAt) && o.DeletedAt == nil {
			o.Status = models.ExpiredOffer
			r.s.offers[id] = o
			n++
		}
	}
	return n, nil
}

// PriceListRepo - PriceListRepository в памяти.
type PriceListRepo struct{ s *Store }

func (r *PriceListRepo) conflicts(entry models.PriceListEntry) bool {
	for id, e := range r.s.entries {
		if id != entry.ID && e.DeletedAt == nil && e.ClinicID == entry.ClinicID && e.ProcedureKey == entry.ProcedureKey {
			return true
		}
	}
	return false
}

func (r *PriceListRepo) CreateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	entry.ID = uuid.New().String()
	if r.conflicts(entry) {
		return nil, models.ErrDuplicatePriceEntry
	}
	r.s.entries[entry.ID] = entry
	return &entry, nil
}

func (r *PriceListRepo) UpdateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	current, ok := r.s.entries[entry.ID]
	if !ok || current.DeletedAt != nil || current.ClinicID != entry.ClinicID {
		return nil, models.ErrPriceEntryNotFound
	}
	if r.conflicts(entry) {
		return nil, models.ErrDuplicatePriceEntry
	}
	current.ProcedureKey = entry.ProcedureKey
	current.Amount = entry.Amount
	current.UpdatedAt = entry.UpdatedAt
	r.s.entries[entry.ID] = current
	return &current, nil
}

func (r *PriceListRepo) GetEntry(ctx context.Context, entryId string) (*models.PriceListEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	entry, ok := r.s.entries[entryId]
	if !ok || entry.DeletedAt != nil {
		return nil, models.ErrPriceEntryNotFound
	}
	return &entry, nil
}

func (r *PriceListRepo) FindEntry(ctx context.Context, clinicId, procedureKey string) (*models.PriceListEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, e := range r.s.entries {
		if e.ClinicID == clinicId && e.ProcedureKey == procedureKey && e.DeletedAt == nil {
			return &e, nil
		}
	}
	return nil, models.ErrPriceEntryNotFound
}

func (r *PriceListRepo) GetClinicEntries(ctx context.Context, clinicId string) ([]models.PriceListEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []models.PriceListEntry
	for _, e := range r.s.entries {
		if e.ClinicID == clinicId && e.DeletedAt == nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProcedureKey < out[j].ProcedureKey })
	return out, nil
}

func (r *PriceListRepo) DeleteEntry(ctx context.Context, entryId, clinicId string, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	entry, ok := r.s.entries[entryId]
	if !ok || entry.DeletedAt != nil || entry.ClinicID != clinicId {
		return models.ErrPriceEntryNotFound
	}
	entry.DeletedAt = &now
	r.s.entries[entryId] = entry
	return nil
}

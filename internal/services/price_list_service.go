package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/repository"
)

type PriceListService struct {
	Repo repository.PriceListRepository
	Now  func() time.Time
}

// NewPriceListService создает новый экземпляр PriceListService.
func NewPriceListService(repo repository.PriceListRepository, now func() time.Time) *PriceListService {
	if now == nil {
		now = SystemClock
	}
	return &PriceListService{Repo: repo, Now: now}
}

// SavePriceListEntry создает цену клиники (entryId пустой) или меняет существующую.
// На клинику допускается одна запись на процедуру, при изменении сама запись не считается дубликатом.
func (s *PriceListService) SavePriceListEntry(ctx context.Context, clinicId, entryId string, input models.PriceListInput) (*models.PriceListEntry, error) {
	if clinicId == "" {
		return nil, models.ErrUnauthorized
	}
	if input.ProcedureKey == "" {
		return nil, models.ErrMissingField.WithMessage("procedureKey is required")
	}
	if !models.IsKnownProcedure(input.ProcedureKey) {
		return nil, models.ErrInvalidField.WithMessage(fmt.Sprintf("unknown procedure: %s", input.ProcedureKey))
	}
	if input.Amount <= 0 {
		return nil, models.ErrInvalidPrice.WithMessage("amount must be a positive whole number")
	}

	var current *models.PriceListEntry
	if entryId != "" {
		entry, err := s.Repo.GetEntry(ctx, entryId)
		if err != nil {
			return nil, err
		}
		if entry.ClinicID != clinicId {
			return nil, models.ErrPriceEntryNotFound
		}
		current = entry
	}

	existing, err := s.Repo.FindEntry(ctx, clinicId, input.ProcedureKey)
	if err != nil && !errors.Is(err, models.ErrPriceEntryNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != entryId {
		return nil, models.ErrDuplicatePriceEntry
	}

	now := s.Now()
	if current == nil {
		return s.Repo.CreateEntry(ctx, models.PriceListEntry{
			ClinicID:     clinicId,
			ProcedureKey: input.ProcedureKey,
			Amount:       input.Amount,
			Currency:     models.Currency,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	current.ProcedureKey = input.ProcedureKey
	current.Amount = input.Amount
	current.UpdatedAt = now
	return s.Repo.UpdateEntry(ctx, *current)
}

// ListPriceList получает прайс-лист клиники.
func (s *PriceListService) ListPriceList(ctx context.Context, clinicId string) ([]models.PriceListEntry, error) {
	if clinicId == "" {
		return nil, models.ErrUnauthorized
	}
	return s.Repo.GetClinicEntries(ctx, clinicId)
}

// DeletePriceListEntry помечает запись прайс-листа удаленной.
func (s *PriceListService) DeletePriceListEntry(ctx context.Context, clinicId, entryId string) error {
	if clinicId == "" {
		return models.ErrUnauthorized
	}
	return s.Repo.DeleteEntry(ctx, entryId, clinicId, s.Now())
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PriceListRepository - интерфейс для работы с прайс-листами клиник.
type PriceListRepository interface {
	CreateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error)
	UpdateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error)
	GetEntry(ctx context.Context, entryId string) (*models.PriceListEntry, error)
	FindEntry(ctx context.Context, clinicId, procedureKey string) (*models.PriceListEntry, error)
	GetClinicEntries(ctx context.Context, clinicId string) ([]models.PriceListEntry, error)
	DeleteEntry(ctx context.Context, entryId, clinicId string, now time.Time) error
}

const entryColumns = `id, clinic_id, procedure_key, amount, currency, created_at, updated_at, deleted_at`

// PostgresPriceListRepository - реализация PriceListRepository для базы данных.
type PostgresPriceListRepository struct {
	DB DBTX
}

// NewPostgresPriceListRepository создает новый экземпляр PostgresPriceListRepository.
func NewPostgresPriceListRepository(db DBTX) *PostgresPriceListRepository {
	return &PostgresPriceListRepository{DB: db}
}

func scanEntry(row pgx.Row) (models.PriceListEntry, error) {
	var e models.PriceListEntry
	err := row.Scan(&e.ID, &e.ClinicID, &e.ProcedureKey, &e.Amount, &e.Currency, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	return e, err
}

// CreateEntry создает цену. Уникальность (clinic_id, procedure_key) обеспечивается частичным индексом.
func (r *PostgresPriceListRepository) CreateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error) {
	entry.ID = uuid.New().String()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO price_list_entry (id, clinic_id, procedure_key, amount, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ClinicID, entry.ProcedureKey, entry.Amount, entry.Currency, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicatePriceEntry
		}
		return nil, fmt.Errorf("failed to insert price list entry: %w", err)
	}
	return &entry, nil
}

// UpdateEntry меняет процедуру и сумму записи клиники.
func (r *PostgresPriceListRepository) UpdateEntry(ctx context.Context, entry models.PriceListEntry) (*models.PriceListEntry, error) {
	query := `UPDATE price_list_entry SET procedure_key = $1, amount = $2, updated_at = $3
	          WHERE id = $4 AND clinic_id = $5 AND deleted_at IS NULL
	          RETURNING ` + entryColumns
	updated, err := scanEntry(r.DB.QueryRow(ctx, query, entry.ProcedureKey, entry.Amount, entry.UpdatedAt, entry.ID, entry.ClinicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPriceEntryNotFound
		}
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicatePriceEntry
		}
		return nil, fmt.Errorf("failed to update price list entry: %w", err)
	}
	return &updated, nil
}

// GetEntry возвращает запись прайс-листа по ID.
func (r *PostgresPriceListRepository) GetEntry(ctx context.Context, entryId string) (*models.PriceListEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM price_list_entry WHERE id = $1 AND deleted_at IS NULL`
	entry, err := scanEntry(r.DB.QueryRow(ctx, query, entryId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPriceEntryNotFound
		}
		return nil, fmt.Errorf("failed to get price list entry: %w", err)
	}
	return &entry, nil
}

// FindEntry ищет действующую запись клиники по процедуре.
func (r *PostgresPriceListRepository) FindEntry(ctx context.Context, clinicId, procedureKey string) (*models.PriceListEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM price_list_entry
	          WHERE clinic_id = $1 AND procedure_key = $2 AND deleted_at IS NULL`
	entry, err := scanEntry(r.DB.QueryRow(ctx, query, clinicId, procedureKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPriceEntryNotFound
		}
		return nil, fmt.Errorf("failed to find price list entry: %w", err)
	}
	return &entry, nil
}

// GetClinicEntries возвращает прайс-лист клиники.
func (r *PostgresPriceListRepository) GetClinicEntries(ctx context.Context, clinicId string) ([]models.PriceListEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM price_list_entry
	          WHERE clinic_id = $1 AND deleted_at IS NULL ORDER BY procedure_key`
	rows, err := r.DB.Query(ctx, query, clinicId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PriceListEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DeleteEntry помечает запись удаленной.
func (r *PostgresPriceListRepository) DeleteEntry(ctx context.Context, entryId, clinicId string, now time.Time) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE price_list_entry SET deleted_at = $1
		WHERE id = $2 AND clinic_id = $3 AND deleted_at IS NULL`, now, entryId, clinicId)
	if err != nil {
		return fmt.Errorf("failed to delete price list entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPriceEntryNotFound
	}
	return nil
}

// isUniqueViolation проверяет код ошибки 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OfferRepository - интерфейс для работы с предложениями клиник.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer models.Offer, now time.Time) (*models.Offer, error)
	HasClinicOffer(ctx context.Context, requestId, clinicId string) (bool, error)
	GetOffer(ctx context.Context, offerId string) (*models.Offer, error)
	GetRequestOffers(ctx context.Context, requestId string) ([]models.Offer, error)
	GetClinicOffers(ctx context.Context, clinicId string, limit, offset int) ([]models.Offer, error)
	DecideOffer(ctx context.Context, offerId string, status models.OfferStatus, now time.Time) (*models.Offer, error)
	ExpireStaleOffers(ctx context.Context, now time.Time) (int64, error)
}

const offerColumns = `id, request_id, clinic_id, min_price, max_price, offer_type, duration_label, hospitalization_label,
	doctor_name, procedure_address, included_services, notes, status, submitted_at, expires_at, decided_at, deleted_at`

// PostgresOfferRepository - реализация OfferRepository для базы данных.
type PostgresOfferRepository struct {
	DB DBTX
}

// NewPostgresOfferRepository создает новый экземпляр PostgresOfferRepository.
func NewPostgresOfferRepository(db DBTX) *PostgresOfferRepository {
	return &PostgresOfferRepository{DB: db}
}

func scanOffer(row pgx.Row) (models.Offer, error) {
	var offer models.Offer
	var services []string
	err := row.Scan(
		&offer.ID,
		&offer.RequestID,
		&offer.ClinicID,
		&offer.MinPrice,
		&offer.MaxPrice,
		&offer.OfferType,
		&offer.DurationLabel,
		&offer.HospitalizationLabel,
		&offer.DoctorName,
		&offer.ProcedureAddress,
		&services,
		&offer.Notes,
		&offer.Status,
		&offer.SubmittedAt,
		&offer.ExpiresAt,
		&offer.DecidedAt,
		&offer.DeletedAt)
	if err != nil {
		return offer, err
	}
	offer.IncludedServices = make([]models.IncludedService, 0, len(services))
	for _, s := range services {
		offer.IncludedServices = append(offer.IncludedServices, models.IncludedService(s))
	}
	return offer, nil
}

func collectOffers(rows pgx.Rows) ([]models.Offer, error) {
	defer rows.Close()
	var offers []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}
	return offers, rows.Err()
}

// CreateOffer сохраняет предложение и переводит запрос из new в offered одной транзакцией.
// Перевод выполняется условной записью: статус и дедлайн проверяются в момент записи,
// поэтому из двух конкурентных предложений успешно только одно.
func (r *PostgresOfferRepository) CreateOffer(ctx context.Context, offer models.Offer, now time.Time) (*models.Offer, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var status models.RequestStatus
	var deadline time.Time
	err = tx.QueryRow(ctx, `SELECT status, sla_deadline_at FROM request WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`,
		offer.RequestID).Scan(&status, &deadline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to lock request: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM offer WHERE request_id = $1 AND clinic_id = $2)`,
		offer.RequestID, offer.ClinicID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing offer: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateOffer
	}

	tag, err := tx.Exec(ctx, `
		UPDATE request SET status = $1, offer_type = $2, offer_price_min = $3, offer_price_max = $4
		WHERE id = $5 AND status = $6 AND sla_deadline_at > $7 AND deleted_at IS NULL`,
		models.OfferedRequest, offer.OfferType, offer.MinPrice, offer.MaxPrice,
		offer.RequestID, models.NewRequest, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if status == models.NewRequest && !now.Before(deadline) {
			return nil, models.ErrSlaExpired.AsRaceLost()
		}
		return nil, models.ErrRequestNotOpen.AsRaceLost()
	}

	offer.ID = uuid.New().String()
	services := make([]string, 0, len(offer.IncludedServices))
	for _, s := range offer.IncludedServices {
		services = append(services, string(s))
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO offer (id, request_id, clinic_id, min_price, max_price, offer_type, duration_label, hospitalization_label,
		                   doctor_name, procedure_address, included_services, notes, status, submitted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		offer.ID,
		offer.RequestID,
		offer.ClinicID,
		offer.MinPrice,
		offer.MaxPrice,
		offer.OfferType,
		offer.DurationLabel,
		offer.HospitalizationLabel,
		offer.DoctorName,
		offer.ProcedureAddress,
		services,
		offer.Notes,
		offer.Status,
		offer.SubmittedAt,
		offer.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.ErrDuplicateOffer
		}
		return nil, fmt.Errorf("failed to insert offer: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit offer: %w", err)
	}
	return &offer, nil
}

// HasClinicOffer проверяет, отправляла ли клиника предложение по запросу.
func (r *PostgresOfferRepository) HasClinicOffer(ctx context.Context, requestId, clinicId string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM offer WHERE request_id = $1 AND clinic_id = $2)`
	err := r.DB.QueryRow(ctx, query, requestId, clinicId).Scan(&exists)
	return exists, err
}

// GetOffer возвращает предложение по ID.
func (r *PostgresOfferRepository) GetOffer(ctx context.Context, offerId string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offer WHERE id = $1 AND deleted_at IS NULL`
	offer, err := scanOffer(r.DB.QueryRow(ctx, query, offerId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	return &offer, nil
}

// GetRequestOffers возвращает предложения по запросу.
func (r *PostgresOfferRepository) GetRequestOffers(ctx context.Context, requestId string) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offer
	          WHERE request_id = $1 AND deleted_at IS NULL ORDER BY submitted_at`
	rows, err := r.DB.Query(ctx, query, requestId)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

// GetClinicOffers возвращает предложения клиники.
func (r *PostgresOfferRepository) GetClinicOffers(ctx context.Context, clinicId string, limit, offset int) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offer
	          WHERE clinic_id = $1 AND deleted_at IS NULL
	          ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, clinicId, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectOffers(rows)
}

// DecideOffer фиксирует решение пациента, если предложение все еще pending и не истекло.
func (r *PostgresOfferRepository) DecideOffer(ctx context.Context, offerId string, status models.OfferStatus, now time.Time) (*models.Offer, error) {
	query := `UPDATE offer SET status = $1, decided_at = $2
	          WHERE id = $3 AND status = $4 AND expires_at > $2 AND deleted_at IS NULL
	          RETURNING ` + offerColumns
	offer, err := scanOffer(r.DB.QueryRow(ctx, query, status, now, offerId, models.PendingOffer))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrOfferNotPending.AsRaceLost()
		}
		return nil, fmt.Errorf("failed to decide offer: %w", err)
	}
	return &offer, nil
}

// ExpireStaleOffers переводит предложения без ответа пациента в expired.
func (r *PostgresOfferRepository) ExpireStaleOffers(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE offer SET status = $1
		WHERE status = $2 AND expires_at <= $3 AND deleted_at IS NULL`,
		models.ExpiredOffer, models.PendingOffer, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire offers: %w", err)
	}
	return tag.RowsAffected(), nil
}

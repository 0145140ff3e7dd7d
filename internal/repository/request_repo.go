package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// RequestRepository - интерфейс для работы с запросами пациентов.
type RequestRepository interface {
	CreateRequest(ctx context.Context, req models.Request) (*models.Request, error)
	GetRequest(ctx context.Context, requestId string) (*models.Request, error)
	GetPatientRequests(ctx context.Context, patientId string, limit, offset int) ([]models.Request, error)
	GetOpenRequests(ctx context.Context, filter models.OpenRequestFilter, now time.Time) ([]models.Request, error)
	DeleteRequest(ctx context.Context, requestId string, now time.Time) error
	ExpireOverdueRequests(ctx context.Context, now time.Time) (int64, error)
}

const requestColumns = `id, patient_id, procedure_key, countries, cities, photos, description, notes, status,
	COALESCE(offer_type, ''), COALESCE(offer_price_min, 0), COALESCE(offer_price_max, 0), created_at, sla_deadline_at, deleted_at`

// PostgresRequestRepository - реализация RequestRepository для базы данных.
type PostgresRequestRepository struct {
	DB DBTX
}

// NewPostgresRequestRepository создаёт новый экземпляр PostgresRequestRepository.
func NewPostgresRequestRepository(db DBTX) *PostgresRequestRepository {
	return &PostgresRequestRepository{DB: db}
}

func scanRequest(row pgx.Row) (models.Request, error) {
	var req models.Request
	err := row.Scan(
		&req.ID,
		&req.PatientID,
		&req.ProcedureKey,
		&req.Countries,
		&req.Cities,
		&req.Photos,
		&req.Description,
		&req.Notes,
		&req.Status,
		&req.OfferType,
		&req.OfferPriceMin,
		&req.OfferPriceMax,
		&req.CreatedAt,
		&req.SLADeadlineAt,
		&req.DeletedAt)
	return req, err
}

func collectRequests(rows pgx.Rows) ([]models.Request, error) {
	defer rows.Close()
	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// CreateRequest сохраняет новый запрос пациента.
func (r *PostgresRequestRepository) CreateRequest(ctx context.Context, req models.Request) (*models.Request, error) {
	req.ID = uuid.New().String()
	_, err := r.DB.Exec(ctx, `
       INSERT INTO request (id, patient_id, procedure_key, countries, cities, photos, description, notes, status, created_at, sla_deadline_at)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
   `,
		req.ID,
		req.PatientID,
		req.ProcedureKey,
		nonNil(req.Countries),
		nonNil(req.Cities),
		nonNil(req.Photos),
		req.Description,
		req.Notes,
		req.Status,
		req.CreatedAt,
		req.SLADeadlineAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert request: %w", err)
	}
	return &req, nil
}

// GetRequest возвращает запрос по ID.
func (r *PostgresRequestRepository) GetRequest(ctx context.Context, requestId string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request WHERE id = $1 AND deleted_at IS NULL`
	req, err := scanRequest(r.DB.QueryRow(ctx, query, requestId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

// GetPatientRequests возвращает список запросов пациента.
func (r *PostgresRequestRepository) GetPatientRequests(ctx context.Context, patientId string, limit, offset int) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request
              WHERE patient_id = $1 AND deleted_at IS NULL
              ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, patientId, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// GetOpenRequests возвращает запросы, на которые клиники еще могут ответить.
func (r *PostgresRequestRepository) GetOpenRequests(ctx context.Context, filter models.OpenRequestFilter, now time.Time) ([]models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM request`
	filters := []string{"status = $1", "sla_deadline_at > $2", "deleted_at IS NULL"}
	args := []interface{}{models.NewRequest, now}
	argIndex := 3

	if len(filter.ProcedureKeys) > 0 {
		filters = append(filters, fmt.Sprintf("procedure_key = ANY($%d)", argIndex))
		args = append(args, pq.Array(filter.ProcedureKeys))
		argIndex++
	}
	if filter.Country != "" {
		filters = append(filters, fmt.Sprintf("$%d = ANY(countries)", argIndex))
		args = append(args, filter.Country)
		argIndex++
	}

	query += " WHERE " + strings.Join(filters, " AND ")
	query += fmt.Sprintf(" ORDER BY sla_deadline_at LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// DeleteRequest помечает запрос удаленным.
func (r *PostgresRequestRepository) DeleteRequest(ctx context.Context, requestId string, now time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE request SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, now, requestId)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRequestNotFound
	}
	return nil
}

// ExpireOverdueRequests переводит просроченные запросы new в expired.
func (r *PostgresRequestRepository) ExpireOverdueRequests(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, `
		UPDATE request SET status = $1
		WHERE status = $2 AND sla_deadline_at <= $3 AND deleted_at IS NULL`,
		models.ExpiredRequest, models.NewRequest, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire requests: %w", err)
	}
	return tag.RowsAffected(), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

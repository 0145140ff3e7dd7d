package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/lifecycle"
	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/repository"
	"github.com/senyabanana/clinic-offer-service/internal/utils"
)

// MaxRequestPhotos - максимальное количество фотографий в запросе.
const MaxRequestPhotos = 10

// SystemClock возвращает текущее время с точностью, которую хранит Postgres.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

type RequestService struct {
	Repo repository.RequestRepository
	Now  func() time.Time
}

// NewRequestService создаёт новый экземпляр RequestService.
func NewRequestService(repo repository.RequestRepository, now func() time.Time) *RequestService {
	if now == nil {
		now = SystemClock
	}
	return &RequestService{Repo: repo, Now: now}
}

// CreateRequest создает запрос пациента со статусом new и дедлайном SLA.
func (s *RequestService) CreateRequest(ctx context.Context, patientId string, input models.RequestInput) (*models.Request, error) {
	if patientId == "" {
		return nil, models.ErrUnauthorized
	}
	if input.ProcedureKey == "" {
		return nil, models.ErrMissingField.WithMessage("procedureKey is required")
	}
	if !models.IsKnownProcedure(input.ProcedureKey) {
		return nil, models.ErrInvalidField.WithMessage(fmt.Sprintf("unknown procedure: %s", input.ProcedureKey))
	}
	countries := compact(input.Countries)
	if len(countries) == 0 {
		return nil, models.ErrMissingField.WithMessage("at least one country is required")
	}
	photos := compact(input.Photos)
	if len(photos) > MaxRequestPhotos {
		return nil, models.ErrInvalidField.WithMessage(fmt.Sprintf("at most %d photos are allowed", MaxRequestPhotos))
	}

	now := s.Now()
	req := models.Request{
		PatientID:     patientId,
		ProcedureKey:  input.ProcedureKey,
		Countries:     countries,
		Cities:        compact(input.Cities),
		Photos:        photos,
		Description:   strings.TrimSpace(input.Description),
		Notes:         strings.TrimSpace(input.Notes),
		Status:        models.NewRequest,
		CreatedAt:     now,
		SLADeadlineAt: lifecycle.SLADeadline(now),
	}
	return s.Repo.CreateRequest(ctx, req)
}

// GetRequest возвращает запрос со статусом, пересчитанным на текущий момент.
// Пациент видит только свои запросы.
func (s *RequestService) GetRequest(ctx context.Context, caller models.Identity, requestId string) (*models.Request, error) {
	if requestId == "" {
		return nil, models.ErrRequestNotFound
	}
	req, err := s.Repo.GetRequest(ctx, requestId)
	if err != nil {
		return nil, err
	}
	if caller.Role == models.PatientRole && req.PatientID != caller.UserID {
		return nil, models.ErrForbidden
	}
	evaluated := lifecycle.EvaluateExpiry(*req, s.Now())
	return &evaluated, nil
}

// ListPatientRequests получает список запросов пациента.
func (s *RequestService) ListPatientRequests(ctx context.Context, patientId, limitStr, offsetStr string) ([]models.Request, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, models.KindValidation, models.ErrInvalidField.Code, err.Error())
	}
	if patientId == "" {
		return nil, models.ErrUnauthorized
	}
	requests, err := s.Repo.GetPatientRequests(ctx, patientId, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.evaluateAll(requests), nil
}

// ListOpenRequests получает ленту запросов, на которые клиника еще может ответить.
func (s *RequestService) ListOpenRequests(ctx context.Context, procedureKeys []string, country, limitStr, offsetStr string) ([]models.Request, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, models.KindValidation, models.ErrInvalidField.Code, err.Error())
	}
	for _, key := range procedureKeys {
		if !models.IsKnownProcedure(key) {
			return nil, models.ErrInvalidField.WithMessage(fmt.Sprintf("unknown procedure: %s", key))
		}
	}
	filter := models.OpenRequestFilter{
		ProcedureKeys: procedureKeys,
		Country:       strings.TrimSpace(country),
		Limit:         limit,
		Offset:        offset,
	}
	requests, err := s.Repo.GetOpenRequests(ctx, filter, s.Now())
	if err != nil {
		return nil, err
	}
	return s.evaluateAll(requests), nil
}

// DeleteRequest помечает запрос пациента удаленным.
func (s *RequestService) DeleteRequest(ctx context.Context, patientId, requestId string) error {
	req, err := s.Repo.GetRequest(ctx, requestId)
	if err != nil {
		return err
	}
	if req.PatientID != patientId {
		return models.ErrForbidden
	}
	return s.Repo.DeleteRequest(ctx, requestId, s.Now())
}

func (s *RequestService) evaluateAll(requests []models.Request) []models.Request {
	now := s.Now()
	out := make([]models.Request, 0, len(requests))
	for _, req := range requests {
		out = append(out, lifecycle.EvaluateExpiry(req, now))
	}
	return out
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

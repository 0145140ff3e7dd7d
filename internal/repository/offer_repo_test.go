package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func setupMockOfferRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresOfferRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresOfferRepository(mock)
}

func newOffer() models.Offer {
	return models.Offer{
		RequestID:        "req-1",
		ClinicID:         "clinic-a",
		MinPrice:         3000,
		MaxPrice:         3500,
		OfferType:        models.ManualOffer,
		DurationLabel:    "3 hours",
		DoctorName:       "Dr. Yilmaz",
		ProcedureAddress: "Antalya",
		IncludedServices: []models.IncludedService{models.Accommodation},
		Status:           models.PendingOffer,
		SubmittedAt:      repoNow,
		ExpiresAt:        repoNow.Add(72 * time.Hour),
	}
}

func expectLock(mock pgxmock.PgxPoolIface, status models.RequestStatus, deadline time.Time) {
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("req-1").
		WillReturnRows(pgxmock.NewRows([]string{"status", "sla_deadline_at"}).AddRow(status, deadline))
}

func expectNoClinicOffer(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM offer")).
		WithArgs("req-1", "clinic-a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
}

func requireKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	var resp *models.ErrorResponse
	require.True(t, errors.As(err, &resp), "got %v", err)
	assert.Equal(t, kind, resp.Kind)
}

func TestCreateOffer_Success(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectBegin()
	expectLock(mock, models.NewRequest, repoNow.Add(time.Hour))
	expectNoClinicOffer(mock)
	mock.ExpectExec("UPDATE request SET status").
		WithArgs(models.OfferedRequest, models.ManualOffer, int64(3000), int64(3500), "req-1", models.NewRequest, repoNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO offer").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	offer, err := repo.CreateOffer(context.Background(), newOffer(), repoNow)
	require.NoError(t, err)
	assert.NotEmpty(t, offer.ID)
	assert.Equal(t, models.PendingOffer, offer.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOffer_ConditionalUpdateMissed(t *testing.T) {
	tests := []struct {
		name     string
		status   models.RequestStatus
		deadline time.Time
		want     error
	}{
		{"deadline passed", models.NewRequest, repoNow.Add(-time.Minute), models.ErrSlaExpired},
		{"deadline reached", models.NewRequest, repoNow, models.ErrSlaExpired},
		{"already offered", models.OfferedRequest, repoNow.Add(time.Hour), models.ErrRequestNotOpen},
		{"taken concurrently", models.NewRequest, repoNow.Add(time.Hour), models.ErrRequestNotOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := setupMockOfferRepo(t)

			mock.ExpectBegin()
			expectLock(mock, tt.status, tt.deadline)
			expectNoClinicOffer(mock)
			mock.ExpectExec("UPDATE request SET status").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			mock.ExpectRollback()

			_, err := repo.CreateOffer(context.Background(), newOffer(), repoNow)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			requireKind(t, err, models.KindRaceLost)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateOffer_RequestMissing(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("req-1").WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.CreateOffer(context.Background(), newOffer(), repoNow)
	assert.True(t, errors.Is(err, models.ErrRequestNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOffer_ClinicAlreadyOffered(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectBegin()
	expectLock(mock, models.NewRequest, repoNow.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM offer")).
		WithArgs("req-1", "clinic-a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.CreateOffer(context.Background(), newOffer(), repoNow)
	assert.True(t, errors.Is(err, models.ErrDuplicateOffer), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOffer_InsertFailsRollsBack(t *testing.T) {
	tests := []struct {
		name      string
		insertErr error
		want      error
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrDuplicateOffer},
		{"connection lost", errors.New("connection reset"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := setupMockOfferRepo(t)

			mock.ExpectBegin()
			expectLock(mock, models.NewRequest, repoNow.Add(time.Hour))
			expectNoClinicOffer(mock)
			mock.ExpectExec("UPDATE request SET status").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			mock.ExpectExec("INSERT INTO offer").WillReturnError(tt.insertErr)
			mock.ExpectRollback()

			offer, err := repo.CreateOffer(context.Background(), newOffer(), repoNow)
			require.Error(t, err)
			assert.Nil(t, offer)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			} else {
				assert.True(t, errors.Is(err, tt.insertErr), "got %v", err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func offerRow(status models.OfferStatus, decidedAt *time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "request_id", "clinic_id", "min_price", "max_price", "offer_type", "duration_label", "hospitalization_label",
		"doctor_name", "procedure_address", "included_services", "notes", "status", "submitted_at", "expires_at", "decided_at", "deleted_at",
	}).AddRow(
		"offer-1", "req-1", "clinic-a", int64(3000), int64(3500), models.ManualOffer, "3 hours", "1 night",
		"Dr. Yilmaz", "Antalya", []string{"accommodation", "transport"}, "", status, repoNow, repoNow.Add(72*time.Hour), decidedAt, nil,
	)
}

func TestDecideOffer(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)
	decided := repoNow.Add(time.Hour)

	mock.ExpectQuery("UPDATE offer SET status").
		WithArgs(models.AcceptedOffer, decided, "offer-1", models.PendingOffer).
		WillReturnRows(offerRow(models.AcceptedOffer, &decided))

	offer, err := repo.DecideOffer(context.Background(), "offer-1", models.AcceptedOffer, decided)
	require.NoError(t, err)
	assert.Equal(t, models.AcceptedOffer, offer.Status)
	assert.Equal(t, []models.IncludedService{models.Accommodation, models.Transport}, offer.IncludedServices)
	require.NotNil(t, offer.DecidedAt)
	assert.True(t, offer.DecidedAt.Equal(decided))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideOffer_NotPending(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectQuery("UPDATE offer SET status").WillReturnError(pgx.ErrNoRows)

	_, err := repo.DecideOffer(context.Background(), "offer-1", models.RejectedOffer, repoNow)
	assert.True(t, errors.Is(err, models.ErrOfferNotPending), "got %v", err)
	requireKind(t, err, models.KindRaceLost)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOffer_NotFound(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectQuery("FROM offer WHERE id").WithArgs("offer-404").WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetOffer(context.Background(), "offer-404")
	assert.True(t, errors.Is(err, models.ErrOfferNotFound), "got %v", err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStaleOffers(t *testing.T) {
	mock, repo := setupMockOfferRepo(t)

	mock.ExpectExec("UPDATE offer SET status").
		WithArgs(models.ExpiredOffer, models.PendingOffer, repoNow).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.ExpireStaleOffers(context.Background(), repoNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

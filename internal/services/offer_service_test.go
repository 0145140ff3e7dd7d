package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitOffer_Success(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	submitAt := baseTime.Add(time.Hour)
	f.clock.Set(submitAt)
	offer, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3150"))
	require.NoError(t, err)

	assert.Equal(t, models.PendingOffer, offer.Status)
	assert.Equal(t, submitAt, offer.SubmittedAt)
	assert.Equal(t, submitAt.Add(7*24*time.Hour), offer.ExpiresAt)
	assert.Equal(t, int64(3000), offer.MinPrice)
	assert.Equal(t, int64(3150), offer.MaxPrice)

	raw, _ := f.store.RawRequest(req.ID)
	assert.Equal(t, models.OfferedRequest, raw.Status)
	assert.Equal(t, models.ManualOffer, raw.OfferType)
	assert.Equal(t, int64(3000), raw.OfferPriceMin)
	assert.Equal(t, int64(3150), raw.OfferPriceMax)
}

func TestSubmitOffer_SecondClinicRejected(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	f.clock.Set(baseTime.Add(time.Hour))
	_, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3150"))
	require.NoError(t, err)

	f.clock.Set(baseTime.Add(2 * time.Hour))
	_, err = f.offers.SubmitOffer(context.Background(), req.ID, "clinic-b", manualOffer("2900", "3000"))
	assert.True(t, errors.Is(err, models.ErrRequestNotOpen), "got %v", err)
	assert.Equal(t, 1, f.store.OfferCount())
}

func TestSubmitOffer_Duplicate(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	_, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3150"))
	require.NoError(t, err)

	_, err = f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3150"))
	assert.True(t, errors.Is(err, models.ErrDuplicateOffer), "got %v", err)
	assert.Equal(t, 1, f.store.OfferCount())
}

func TestSubmitOffer_PriceSpreadExceeded(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	_, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3300"))
	assert.True(t, errors.Is(err, models.ErrPriceSpreadExceeded))
	assert.Equal(t, 0, f.store.OfferCount())

	raw, _ := f.store.RawRequest(req.ID)
	assert.Equal(t, models.NewRequest, raw.Status)
}

func TestSubmitOffer_Errors(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")
	ctx := context.Background()

	_, err := f.offers.SubmitOffer(ctx, "missing", "clinic-a", manualOffer("3000", "3100"))
	assert.True(t, errors.Is(err, models.ErrRequestNotFound))

	_, err = f.offers.SubmitOffer(ctx, req.ID, "", manualOffer("3000", "3100"))
	assert.True(t, errors.Is(err, models.ErrUnauthorized))

	_, err = f.offers.SubmitOffer(ctx, req.ID, "clinic-a", manualOffer("0", "100"))
	assert.True(t, errors.Is(err, models.ErrInvalidPrice))

	fields := manualOffer("3000", "3100")
	fields.DoctorName = ""
	_, err = f.offers.SubmitOffer(ctx, req.ID, "clinic-a", fields)
	assert.True(t, errors.Is(err, models.ErrMissingField))

	assert.Equal(t, 0, f.store.OfferCount())
}

func TestSubmitOffer_SlaExpiredBeforeSweep(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	f.clock.Set(req.SLADeadlineAt)
	_, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3100"))
	assert.True(t, errors.Is(err, models.ErrSlaExpired), "got %v", err)
	assert.Equal(t, 0, f.store.OfferCount())
}

func TestSubmitOffer_ExpiredBySweep(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	f.clock.Set(baseTime.Add(25 * time.Hour))
	_, _, err := f.offers.ExpireOverdue(context.Background())
	require.NoError(t, err)

	_, err = f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3100"))
	assert.True(t, errors.Is(err, models.ErrRequestNotOpen), "got %v", err)
}

func TestSubmitOffer_ConcurrentClinics(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	clinics := []string{"clinic-a", "clinic-b", "clinic-c", "clinic-d"}
	errs := make([]error, len(clinics))
	var wg sync.WaitGroup
	for i, clinic := range clinics {
		wg.Add(1)
		go func(i int, clinic string) {
			defer wg.Done()
			_, errs[i] = f.offers.SubmitOffer(context.Background(), req.ID, clinic, manualOffer("3000", "3100"))
		}(i, clinic)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, models.ErrRequestNotOpen), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, f.store.OfferCount())

	raw, _ := f.store.RawRequest(req.ID)
	assert.Equal(t, models.OfferedRequest, raw.Status)
}

// sweepingOfferRepo запускает before перед записью, имитируя sweep между проверкой и записью.
type sweepingOfferRepo struct {
	*repotest.OfferRepo
	before func()
}

func (r *sweepingOfferRepo) CreateOffer(ctx context.Context, offer models.Offer, now time.Time) (*models.Offer, error) {
	r.before()
	return r.OfferRepo.CreateOffer(ctx, offer, now)
}

func TestSubmitOffer_SweepWinsAtCommit(t *testing.T) {
	f := newFixture()
	req := f.createRequest(t, "patient-1")

	f.offers.Repo = &sweepingOfferRepo{
		OfferRepo: f.store.Offers(),
		before: func() {
			raw, _ := f.store.RawRequest(req.ID)
			raw.Status = models.ExpiredRequest
			f.store.PutRequest(raw)
		},
	}

	_, err := f.offers.SubmitOffer(context.Background(), req.ID, "clinic-a", manualOffer("3000", "3100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrRequestNotOpen))
	var errorResponse *models.ErrorResponse
	require.True(t, errors.As(err, &errorResponse))
	assert.Equal(t, models.KindRaceLost, errorResponse.Kind)
	assert.Equal(t, 0, f.store.OfferCount())
}

func TestSubmitOffer_DeadlineCheckedAtCommit(t *testing.T) {
	store := repotest.NewStore()
	req := models.Request{
		ID:            "r1",
		PatientID:     "patient-1",
		Status:        models.NewRequest,
		CreatedAt:     baseTime,
		SLADeadlineAt: baseTime.Add(24 * time.Hour),
	}
	store.PutRequest(req)

	_, err := store.Offers().CreateOffer(context.Background(), models.Offer{RequestID: "r1", ClinicID: "c"}, req.SLADeadlineAt)
	assert.True(t, errors.Is(err, models.ErrSlaExpired))
	assert.Equal(t, 0, store.OfferCount())
}

func TestDecideOffer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.createRequest(t, "patient-1")
	offer, err := f.offers.SubmitOffer(ctx, req.ID, "clinic-a", manualOffer("3000", "3100"))
	require.NoError(t, err)

	_, err = f.offers.DecideOffer(ctx, "patient-2", offer.ID, models.AcceptDecision)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	_, err = f.offers.DecideOffer(ctx, "patient-1", offer.ID, "maybe")
	assert.True(t, errors.Is(err, models.ErrInvalidField))

	f.clock.Set(baseTime.Add(48 * time.Hour))
	decided, err := f.offers.DecideOffer(ctx, "patient-1", offer.ID, models.AcceptDecision)
	require.NoError(t, err)
	assert.Equal(t, models.AcceptedOffer, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, baseTime.Add(48*time.Hour), *decided.DecidedAt)

	_, err = f.offers.DecideOffer(ctx, "patient-1", offer.ID, models.RejectDecision)
	assert.True(t, errors.Is(err, models.ErrOfferNotPending))
}

func TestDecideOffer_AfterWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.createRequest(t, "patient-1")
	offer, err := f.offers.SubmitOffer(ctx, req.ID, "clinic-a", manualOffer("3000", "3100"))
	require.NoError(t, err)

	f.clock.Set(offer.ExpiresAt)
	_, err = f.offers.DecideOffer(ctx, "patient-1", offer.ID, models.AcceptDecision)
	assert.True(t, errors.Is(err, models.ErrOfferNotPending))

	offers, err := f.offers.ListRequestOffers(ctx, "patient-1", req.ID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, models.ExpiredOffer, offers[0].Status)

	raw, _ := f.store.RawRequest(req.ID)
	assert.Equal(t, models.OfferedRequest, raw.Status, "request stays offered after offer window")
}

func TestListOffers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first := f.createRequest(t, "patient-1")
	second := f.createRequest(t, "patient-2")

	_, err := f.offers.SubmitOffer(ctx, first.ID, "clinic-a", manualOffer("3000", "3100"))
	require.NoError(t, err)
	_, err = f.offers.SubmitOffer(ctx, second.ID, "clinic-a", manualOffer("1500", "1600"))
	require.NoError(t, err)

	offers, err := f.offers.ListClinicOffers(ctx, "clinic-a", "", "")
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	_, err = f.offers.ListRequestOffers(ctx, "patient-2", first.ID)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	offers, err = f.offers.ListRequestOffers(ctx, "patient-1", first.ID)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "clinic-a", offers[0].ClinicID)
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	stale := f.createRequest(t, "patient-1")
	offered := f.createRequest(t, "patient-2")
	offer, err := f.offers.SubmitOffer(ctx, offered.ID, "clinic-a", manualOffer("3000", "3100"))
	require.NoError(t, err)

	f.clock.Set(baseTime.Add(12 * time.Hour))
	fresh := f.createRequest(t, "patient-3")

	f.clock.Set(baseTime.Add(24 * time.Hour))
	requests, offers, err := f.offers.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests)
	assert.Equal(t, int64(0), offers)

	raw, _ := f.store.RawRequest(stale.ID)
	assert.Equal(t, models.ExpiredRequest, raw.Status)
	raw, _ = f.store.RawRequest(offered.ID)
	assert.Equal(t, models.OfferedRequest, raw.Status)
	raw, _ = f.store.RawRequest(fresh.ID)
	assert.Equal(t, models.NewRequest, raw.Status)

	f.clock.Set(offer.ExpiresAt.Add(time.Minute))
	requests, offers, err = f.offers.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), requests)
	assert.Equal(t, int64(1), offers)

	storedOffer, _ := f.store.RawOffer(offer.ID)
	assert.Equal(t, models.ExpiredOffer, storedOffer.Status)
}

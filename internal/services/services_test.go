package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/repository/repotest"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: baseTime} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store     *repotest.Store
	clock     *fakeClock
	requests  *RequestService
	offers    *OfferService
	priceList *PriceListService
}

func newFixture() *fixture {
	store := repotest.NewStore()
	clock := newFakeClock()
	return &fixture{
		store:     store,
		clock:     clock,
		requests:  NewRequestService(store.Requests(), clock.Now),
		offers:    NewOfferService(store.Offers(), store.Requests(), clock.Now),
		priceList: NewPriceListService(store.PriceList(), clock.Now),
	}
}

func (f *fixture) createRequest(t *testing.T, patientId string) *models.Request {
	t.Helper()
	req, err := f.requests.CreateRequest(context.Background(), patientId, models.RequestInput{
		ProcedureKey: "burun_estetigi_rinoplasti",
		Countries:    []string{"TR"},
		Cities:       []string{"Istanbul"},
		Photos:       []string{"photos/front.jpg", "photos/side.jpg"},
		Description:  "Revision rhinoplasty",
	})
	require.NoError(t, err)
	return req
}

func manualOffer(min, max string) models.OfferFields {
	return models.OfferFields{
		MinPrice:             models.PriceValue(min),
		MaxPrice:             models.PriceValue(max),
		OfferType:            models.ManualOffer,
		DurationLabel:        "3 hours",
		HospitalizationLabel: "1 night",
		DoctorName:           "Dr. Yilmaz",
		ProcedureAddress:     "Antalya, Muratpasa",
		IncludedServices:     []models.IncludedService{models.Accommodation, models.Consultation},
	}
}

package router

import (
	"net/http"

	"github.com/senyabanana/clinic-offer-service/internal/handlers"
	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/router/middleware"

	"go.uber.org/zap"
)

// Handlers - обработчики, которые подключает роутер.
type Handlers struct {
	Requests  *handlers.RequestHandler
	Offers    *handlers.OfferHandler
	PriceList *handlers.PriceListHandler
}

func InitRoutes(h Handlers, jwtSecret string, limiter *middleware.RateLimiter, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	authenticate := middleware.Authenticate(jwtSecret, logger)

	// read: аутентификация и проверка роли; write: дополнительно лимит частоты.
	read := func(role models.Role, fn http.HandlerFunc) http.Handler {
		return authenticate(middleware.RequireRole(role, fn))
	}
	write := func(role models.Role, fn http.HandlerFunc) http.Handler {
		return authenticate(limiter.Limit(middleware.RequireRole(role, fn)))
	}
	anyRole := authenticate(http.HandlerFunc(h.Requests.GetRequest))

	mux.HandleFunc("GET /api/ping", handlers.PingHandler)
	mux.HandleFunc("GET /api/procedures", handlers.ProceduresHandler)

	mux.Handle("POST /api/requests/new", write(models.PatientRole, h.Requests.CreateRequest))
	mux.Handle("GET /api/requests/my", read(models.PatientRole, h.Requests.GetPatientRequests))
	mux.Handle("GET /api/requests/open", read(models.ClinicRole, h.Requests.GetOpenRequests))
	mux.Handle("GET /api/requests/{requestId}", anyRole)
	mux.Handle("DELETE /api/requests/{requestId}", write(models.PatientRole, h.Requests.DeleteRequest))

	mux.Handle("POST /api/requests/{requestId}/offers", write(models.ClinicRole, h.Offers.SubmitOffer))
	mux.Handle("GET /api/requests/{requestId}/offers", read(models.PatientRole, h.Offers.GetRequestOffers))
	mux.Handle("GET /api/offers/my", read(models.ClinicRole, h.Offers.GetClinicOffers))
	mux.Handle("PUT /api/offers/{offerId}/decision", write(models.PatientRole, h.Offers.SubmitOfferDecision))

	mux.Handle("GET /api/price-list/my", read(models.ClinicRole, h.PriceList.GetPriceList))
	mux.Handle("POST /api/price-list/new", write(models.ClinicRole, h.PriceList.CreateEntry))
	mux.Handle("PUT /api/price-list/{entryId}", write(models.ClinicRole, h.PriceList.EditEntry))
	mux.Handle("DELETE /api/price-list/{entryId}", write(models.ClinicRole, h.PriceList.DeleteEntry))

	return middleware.Logging(logger)(mux)
}

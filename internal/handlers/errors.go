package handlers

import (
	"errors"
	"net/http"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/router/middleware"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
)

// respondError отправляет ошибку клиенту. Ожидаемые ошибки пишутся в лог как warn, прочие как error.
func respondError(logger *zap.Logger, w http.ResponseWriter, err error, fallback string, fields ...zap.Field) {
	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		fields = append(fields, zap.String("code", errorResponse.Code), zap.String("kind", string(errorResponse.Kind)))
		logger.Warn(fallback, append(fields, zap.Error(err))...)
	} else {
		logger.Error(fallback, append(fields, zap.Error(err))...)
	}
	utils.SendError(w, err, fallback)
}

func callerIdentity(r *http.Request) models.Identity {
	identity, _ := middleware.IdentityFromContext(r.Context())
	return identity
}

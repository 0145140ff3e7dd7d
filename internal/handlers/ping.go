package handlers

import (
	"fmt"
	"net/http"

	"github.com/senyabanana/clinic-offer-service/internal/models"
	"github.com/senyabanana/clinic-offer-service/internal/utils"

	"go.uber.org/zap"
)

// PingHandler обрабатывает GET запрос к /api/ping
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, "ok"); err != nil {
		zap.L().Warn("failed to write ping response", zap.Error(err))
	}
}

// ProceduresHandler возвращает каталог процедур, опционально по категории.
func ProceduresHandler(w http.ResponseWriter, r *http.Request) {
	category := models.ProcedureCategory(r.URL.Query().Get("category"))

	procedures := make([]models.Procedure, 0, len(models.Procedures))
	for _, p := range models.Procedures {
		if category == "" || p.Category == category {
			procedures = append(procedures, p)
		}
	}
	utils.SendJSON(w, http.StatusOK, procedures)
}

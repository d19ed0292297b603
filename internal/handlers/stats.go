package handlers

import (
	"math"
	"net/http"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
)

// GetStats returns the dashboard counters. "Today" is the current day in
// the configured timezone.
func GetStats(db *sqlx.DB, cfg config.DashboardConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, inAlert, avg, err := database.BinStats(r.Context(), db, cfg.AlertLevel)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		start, end := helpers.DayBounds(time.Now().In(cfg.Location()))
		today, err := database.CountCollectionsBetween(r.Context(), db, start.Unix(), end.Unix())
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		utils.Success(w, models.DashboardStats{
			TotalLixeiras:  total,
			LixeirasAlerta: inAlert,
			NivelMedio:     math.Round(avg*10) / 10,
			ColetasHoje:    today,
		})
	}
}

// GetSettings exposes the thresholds the frontend colors bins with.
func GetSettings(cfg config.DashboardConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, map[string]interface{}{
			"nivel_alerta":          cfg.AlertLevel,
			"nivel_critico":         cfg.CriticalLevel,
			"intervalo_atualizacao": cfg.RefreshSeconds,
			"timezone":              cfg.Timezone,
		})
	}
}

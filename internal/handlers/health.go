package handlers

import (
	"net/http"
	"time"

	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
)

func Health(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := db.PingContext(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "indisponivel"
		}

		utils.JSON(w, status, map[string]interface{}{
			"status":    http.StatusText(status),
			"database":  dbStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

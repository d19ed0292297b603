package handlers

import (
	"net/http"
	"strconv"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

const defaultNotificationLimit = 50

// GetNotifications lists notifications newest first; nao_lidas=true keeps
// only unread ones.
func GetNotifications(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unreadOnly := r.URL.Query().Get("nao_lidas") == "true"

		limit := defaultNotificationLimit
		if raw := r.URL.Query().Get("limite"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				utils.ValidationError(w, []string{"limite deve ser um inteiro positivo"})
				return
			}
			limit = n
		}

		notifications, err := database.ListNotifications(r.Context(), db, unreadOnly, limit)
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		responses := make([]models.NotificationResponse, len(notifications))
		for i := range notifications {
			responses[i] = notifications[i].ToNotificationResponse()
		}
		utils.Success(w, responses)
	}
}

func MarkNotificationRead(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := database.MarkNotificationRead(r.Context(), db, id); err != nil {
			writeDBError(w, err, "Notificação não encontrada")
			return
		}

		n, err := database.GetNotification(r.Context(), db, id)
		if err != nil {
			writeDBError(w, err, "Notificação não encontrada")
			return
		}
		utils.Success(w, n.ToNotificationResponse())
	}
}

package handlers

import (
	"errors"
	"net/http"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/pkg/utils"

	"go.uber.org/zap"
)

// ProcessAlerts runs one alert scan on demand.
func ProcessAlerts(runner services.AlertRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetUserFromContext(r)
		logger.Info("🔔 Manual alert processing requested", zap.String("user_id", claims.UserID))

		stats, err := runner.Process(r.Context())
		if errors.Is(err, services.ErrAlertsRunning) {
			utils.Error(w, http.StatusConflict, "Processamento de alertas já em execução")
			return
		}
		if err != nil {
			writeDBError(w, err, "")
			return
		}

		utils.Success(w, map[string]interface{}{
			"mensagem":     "Alertas processados com sucesso",
			"estatisticas": stats,
		})
	}
}

// GetSchedulerStatus reports the periodic alert job. A nil scheduler means
// scheduling is disabled in this process.
func GetSchedulerStatus(scheduler *services.AlertScheduler, intervalMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if scheduler == nil {
			utils.Success(w, services.SchedulerStatus{
				Ativo:            false,
				Mensagem:         "Sistema de agendamento não está ativo",
				IntervaloMinutos: intervalMinutes,
			})
			return
		}
		utils.Success(w, scheduler.Status())
	}
}

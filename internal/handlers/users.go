package handlers

import (
	"net/http"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CreateUser lets an admin create an account, optionally with admin rights.
func CreateUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateUserRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, ok := createUser(w, r, db, req.RegisterRequest, req.Admin)
		if !ok {
			return
		}

		creator, _ := middleware.GetUserFromContext(r)
		logger.Info("✅ User created by admin",
			zap.String("username", user.Username),
			zap.Bool("admin", user.Admin),
			zap.String("created_by", creator.UserID))

		utils.JSON(w, http.StatusCreated, map[string]interface{}{
			"mensagem": "Usuário criado com sucesso",
			"usuario":  user.ToUserResponse(),
		})
	}
}

// UpdateFCMToken stores the caller's push notification device token.
func UpdateFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}

		var req models.FCMTokenRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		if err := database.SetFCMToken(r.Context(), db, claims.UserID, req.Token); err != nil {
			writeDBError(w, err, "Usuário não encontrado")
			return
		}

		logger.Info("📱 FCM token updated", zap.String("user_id", claims.UserID))
		utils.Message(w, http.StatusOK, "Token atualizado com sucesso")
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/middleware"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type LoginResponse struct {
	Mensagem string               `json:"mensagem"`
	Token    string               `json:"token"`
	Usuario  *models.UserResponse `json:"usuario"`
}

func Login(db *sqlx.DB, jwtCfg config.JWTConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Corpo da requisição inválido")
			return
		}

		identifier := strings.TrimSpace(req.Identifier())
		if identifier == "" || req.Senha == "" {
			utils.Error(w, http.StatusBadRequest, "Username e senha são obrigatórios")
			return
		}

		user, err := database.GetUserByLogin(r.Context(), db, identifier)
		if err != nil && !database.IsNotFound(err) {
			writeDBError(w, err, "")
			return
		}
		if user == nil || !helpers.CheckPassword(user.PasswordHash, req.Senha) {
			logger.Warn("🔐 Failed login attempt", zap.String("identifier", identifier))
			utils.Error(w, http.StatusUnauthorized, "Credenciais inválidas")
			return
		}
		if !user.Active {
			logger.Warn("🔐 Login attempt by inactive user", zap.String("username", user.Username))
			utils.Error(w, http.StatusForbidden, "Usuário inativo")
			return
		}

		token, err := middleware.GenerateToken(jwtCfg.Secret, user, time.Duration(jwtCfg.ExpiryHours)*time.Hour)
		if err != nil {
			logger.Error("❌ Failed to create token", zap.Error(err))
			utils.Error(w, http.StatusInternalServerError, msgInternalError)
			return
		}

		if err := database.UpdateLastLogin(r.Context(), db, user.ID); err != nil {
			logger.Warn("Failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
		}

		logger.Info("✅ Login successful", zap.String("username", user.Username), zap.String("role", user.Role()))
		resp := user.ToUserResponse()
		utils.Success(w, LoginResponse{
			Mensagem: "Login realizado com sucesso",
			Token:    token,
			Usuario:  &resp,
		})
	}
}

// Register creates a regular, active, non-admin account.
func Register(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		user, ok := createUser(w, r, db, req, false)
		if !ok {
			return
		}

		logger.Info("✅ User registered", zap.String("username", user.Username))
		resp := user.ToUserResponse()
		utils.JSON(w, http.StatusCreated, map[string]interface{}{
			"mensagem": "Usuário registrado com sucesso",
			"usuario":  resp,
		})
	}
}

// CurrentUser returns the account behind the bearer token.
func CurrentUser(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}

		user, err := database.GetUserByID(r.Context(), db, claims.UserID)
		if err != nil {
			writeDBError(w, err, "Usuário não encontrado")
			return
		}
		utils.Success(w, user.ToUserResponse())
	}
}

// Logout is stateless: tokens expire on their own and the client drops it.
func Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := middleware.GetUserFromContext(r); ok {
			logger.Info("User logged out", zap.String("user_id", claims.UserID))
		}
		utils.Message(w, http.StatusOK, "Logout realizado com sucesso")
	}
}

func createUser(w http.ResponseWriter, r *http.Request, db *sqlx.DB, req models.RegisterRequest, admin bool) (*models.User, bool) {
	hash, err := helpers.HashPassword(req.Senha)
	if err != nil {
		logger.Error("❌ Failed to hash password", zap.Error(err))
		utils.Error(w, http.StatusInternalServerError, msgInternalError)
		return nil, false
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     req.NomeCompleto,
		Active:       true,
		Admin:        admin,
	}
	if err := database.CreateUser(r.Context(), db, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			utils.Error(w, http.StatusBadRequest, "Username ou email já cadastrado")
			return nil, false
		}
		writeDBError(w, err, "")
		return nil, false
	}
	return user, true
}

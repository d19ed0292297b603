package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"
	"tronik-dashboard/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const UserContextKey contextKey = "user"

const RoleAdmin = "admin"

var ErrInvalidToken = errors.New("invalid token")

type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the token carries the admin role.
func (c UserClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// GenerateToken signs an HS256 token for the user.
func GenerateToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// ParseToken validates the signature and expiry and extracts the claims.
func ParseToken(secret, tokenString string) (UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return UserClaims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return UserClaims{}, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return UserClaims{}, ErrInvalidToken
	}

	return UserClaims{UserID: userID, Username: username, Role: role}, nil
}

// Auth validates the Bearer token and adds user claims to context
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Debug("Invalid authorization header format", zap.String("path", r.URL.Path))
				utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
				return
			}

			userClaims, err := ParseToken(secret, strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug("❌ Invalid token", zap.String("path", r.URL.Path), zap.Error(err))
				utils.Error(w, http.StatusUnauthorized, "Token inválido ou expirado")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, userClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole middleware checks if user has required role (must be used after Auth)
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userClaims, ok := GetUserFromContext(r)
			if !ok {
				utils.Error(w, http.StatusUnauthorized, "Autenticação necessária")
				return
			}

			if userClaims.Role != role {
				logger.Warn("❌ Insufficient permissions",
					zap.String("user_id", userClaims.UserID),
					zap.String("required", role),
					zap.String("role", userClaims.Role))
				utils.Error(w, http.StatusForbidden, "Acesso negado: requer privilégios de admin")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) (UserClaims, bool) {
	userClaims, ok := r.Context().Value(UserContextKey).(UserClaims)
	return userClaims, ok
}

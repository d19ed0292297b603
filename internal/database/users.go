package database

import (
	"context"
	"database/sql"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const userSelect = `
	SELECT id, username, email, password_hash, full_name, active, admin, fcm_token, created_at, last_login
	FROM users`

// GetUserByLogin matches the identifier against username or email.
func GetUserByLogin(ctx context.Context, q sqlx.ExtContext, identifier string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, q, &user,
		q.Rebind(userSelect+` WHERE username = ? OR email = ? LIMIT 1`), identifier, identifier)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

func GetUserByID(ctx context.Context, q sqlx.ExtContext, id string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, q.Rebind(userSelect+` WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &user, nil
}

// CreateUser inserts user, returning ErrConflict when the username or email
// is already registered.
func CreateUser(ctx context.Context, q sqlx.ExtContext, user *models.User) error {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		q.Rebind(`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`), user.Username, user.Email)
	if err != nil {
		return errors.Wrap(err, "failed to check existing user")
	}
	if count > 0 {
		return ErrConflict
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now().Unix()

	_, err = q.ExecContext(ctx, q.Rebind(`
		INSERT INTO users (id, username, email, password_hash, full_name, active, admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.Active, user.Admin, user.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

// PromoteUser grants admin rights and reactivates the account.
func PromoteUser(ctx context.Context, q sqlx.ExtContext, id, passwordHash string) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE users SET admin = ?, active = ?, password_hash = ? WHERE id = ?`),
		true, true, passwordHash, id)
	if err != nil {
		return errors.Wrap(err, "failed to promote user")
	}
	return requireRow(result)
}

func UpdateLastLogin(ctx context.Context, q sqlx.ExtContext, id string) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET last_login = ? WHERE id = ?`), time.Now().Unix(), id)
	return errors.Wrap(err, "failed to update last login")
}

func SetFCMToken(ctx context.Context, q sqlx.ExtContext, id, token string) error {
	result, err := q.ExecContext(ctx, q.Rebind(`UPDATE users SET fcm_token = ? WHERE id = ?`), token, id)
	if err != nil {
		return errors.Wrap(err, "failed to save fcm token")
	}
	return requireRow(result)
}

// ActiveAdminEmails returns the addresses alert emails go to.
func ActiveAdminEmails(ctx context.Context, q sqlx.ExtContext) ([]string, error) {
	emails := []string{}
	err := sqlx.SelectContext(ctx, q, &emails,
		q.Rebind(`SELECT email FROM users WHERE admin = ? AND active = ? AND email <> '' ORDER BY email`), true, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list admin emails")
	}
	return emails, nil
}

// AdminFCMTokens returns the device tokens of active admins that registered one.
func AdminFCMTokens(ctx context.Context, q sqlx.ExtContext) ([]string, error) {
	tokens := []string{}
	err := sqlx.SelectContext(ctx, q, &tokens, q.Rebind(`
		SELECT fcm_token FROM users
		WHERE admin = ? AND active = ? AND fcm_token IS NOT NULL AND fcm_token <> ''
	`), true, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list admin fcm tokens")
	}
	return tokens, nil
}

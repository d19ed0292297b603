package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FCMService pushes alert notifications to admin devices
type FCMService struct {
	client *messaging.Client
	db     *sqlx.DB
}

// NewFCMService creates a new FCM service instance from a credentials file
func NewFCMService(ctx context.Context, db *sqlx.DB, credentialsFile string) (*FCMService, error) {
	return newFCMService(ctx, db, option.WithCredentialsFile(credentialsFile))
}

// NewFCMServiceFromBase64 creates a new FCM service instance from base64-encoded credentials
// This is useful for cloud deployments where you can't upload files easily
func NewFCMServiceFromBase64(ctx context.Context, db *sqlx.DB, credentialsBase64 string) (*FCMService, error) {
	credentialsJSON, err := base64.StdEncoding.DecodeString(credentialsBase64)
	if err != nil {
		return nil, fmt.Errorf("error decoding base64 credentials: %w", err)
	}
	return newFCMService(ctx, db, option.WithCredentialsJSON(credentialsJSON))
}

func newFCMService(ctx context.Context, db *sqlx.DB, opt option.ClientOption) (*FCMService, error) {
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client, db: db}, nil
}

// NotifyAlert sends the notification to every active admin with a registered token.
func (s *FCMService) NotifyAlert(ctx context.Context, n *models.Notification) error {
	tokens, err := database.AdminFCMTokens(ctx, s.db)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	data := map[string]string{
		"type":            n.Type,
		"notification_id": n.ID,
	}
	if n.BinID != nil {
		data["lixeira_id"] = *n.BinID
	}
	if n.SensorID != nil {
		data["sensor_id"] = *n.SensorID
	}

	return s.SendMulticast(ctx, tokens, n.Title, n.Message, data)
}

// SendMulticast sends the same message to multiple tokens
func (s *FCMService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					ContentAvailable: true,
					Sound:            "default",
				},
			},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	logger.Info("✅ FCM multicast sent",
		zap.Int("success", response.SuccessCount),
		zap.Int("failures", response.FailureCount))
	return nil
}

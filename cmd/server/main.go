package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/handlers"
	"tronik-dashboard/internal/ingestion"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"
	"tronik-dashboard/internal/websocket"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("🚀 Dashboard-TRONIK server starting", zap.String("environment", cfg.Server.Environment))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("❌ Invalid configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal("❌ Database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("❌ Database migrations failed", zap.Error(err))
	}
	if err := database.SeedLookups(context.Background(), db); err != nil {
		logger.Fatal("❌ Lookup seeding failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Geocoding
	cache := services.NewGeocodeCache(1000, cfg.Geocoding.CacheTTL)
	go cache.RunCleanup(ctx, 10*time.Minute)
	geocoder := services.NewGeocoder(
		services.WithBaseURL(cfg.Geocoding.BaseURL),
		services.WithUserAgent(cfg.Geocoding.UserAgent),
		services.WithDelay(cfg.Geocoding.Delay),
		services.WithCache(cache),
	)

	// WebSocket hub
	hub := websocket.NewHub()
	go hub.Run(ctx)
	logger.Info("✅ WebSocket hub started")

	// Alert channels
	mailer := services.NewMailer(cfg.SMTP)
	if !mailer.Enabled() {
		logger.Warn("⚠️  SMTP not configured, alert emails disabled")
	}
	alerts := services.NewAlertProcessor(db, mailer, hub)

	if fcm := initFCM(ctx, cfg, db); fcm != nil {
		alerts.AddNotifier(fcm)
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Warn("⚠️  Telegram alerts disabled", zap.Error(err))
		} else {
			alerts.AddNotifier(tg)
		}
	}

	var scheduler *services.AlertScheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewAlertScheduler(alerts, cfg.Scheduler.Interval())
		scheduler.Start()
	} else {
		logger.Info("Alert scheduler disabled (AGENDAMENTO_ENABLED=false)")
	}

	// Sensor ingestion
	var subscriber *ingestion.Subscriber
	if cfg.MQTT.Broker != "" {
		processor := ingestion.NewProcessor(db, hub, websocket.EventBinReading)
		subscriber, err = ingestion.NewSubscriber(cfg.MQTT, processor)
		if err == nil {
			err = subscriber.Start(ctx)
		}
		if err != nil {
			logger.Warn("⚠️  MQTT ingestion disabled", zap.Error(err))
			subscriber = nil
		}
	}

	router := handlers.NewRouter(handlers.Deps{
		DB:          db,
		Config:      cfg,
		Geocoder:    geocoder,
		BinGeocoder: services.NewBinGeocoder(db, geocoder),
		Reports:     services.NewReportService(db),
		Alerts:      alerts,
		Scheduler:   scheduler,
		Importer:    services.NewImporter(db, cfg.Dashboard.Location()),
		Labeler:     services.NewBinLabeler(cfg.Server.PublicURL, 256, "M"),
		Hub:         hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if subscriber != nil {
		subscriber.Stop()
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("Alert scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Server shutdown failed", zap.Error(err))
	}
	logger.Info("✅ Server stopped")
}

// initFCM prefers base64 credentials (cloud deployments) over a file path.
// Push notifications are optional; any failure disables them.
func initFCM(ctx context.Context, cfg *config.Config, db *sqlx.DB) *services.FCMService {
	var (
		fcm *services.FCMService
		err error
	)
	switch {
	case cfg.FCM.CredentialsBase64 != "":
		fcm, err = services.NewFCMServiceFromBase64(ctx, db, cfg.FCM.CredentialsBase64)
	case cfg.FCM.CredentialsFile != "":
		fcm, err = services.NewFCMService(ctx, db, cfg.FCM.CredentialsFile)
	default:
		logger.Info("FCM credentials not set, push notifications disabled")
		return nil
	}
	if err != nil {
		logger.Warn("⚠️  Failed to initialize FCM (push notifications disabled)", zap.Error(err))
		return nil
	}
	logger.Info("✅ Firebase Cloud Messaging initialized")
	return fcm
}

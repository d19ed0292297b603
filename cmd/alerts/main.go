// Command alerts runs one alert processing pass, for use from an external cron.
package main

import (
	"context"
	"fmt"
	"os"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"

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

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	ctx := context.Background()
	processor := services.NewAlertProcessor(db, services.NewMailer(cfg.SMTP))
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		if tg, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID); err == nil {
			processor.AddNotifier(tg)
		} else {
			logger.Warn("Telegram alerts disabled", zap.Error(err))
		}
	}

	stats, err := processor.Process(ctx)
	if err != nil {
		logger.Fatal("Alert processing failed", zap.Error(err))
	}

	fmt.Printf("Lixeiras alertadas: %d\n", stats.LixeirasAlertadas)
	fmt.Printf("Sensores alertados: %d\n", stats.SensoresAlertados)
	fmt.Printf("Emails enviados:    %d\n", stats.EmailsEnviados)
	fmt.Printf("Erros:              %d\n", stats.Erros)

	if stats.Erros > 0 {
		logger.Sync()
		os.Exit(1)
	}
}

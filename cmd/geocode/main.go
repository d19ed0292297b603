// Command geocode fills in coordinates for bins through Nominatim.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"

	"go.uber.org/zap"
)

func main() {
	force := flag.Bool("force", false, "re-geocode bins that already have coordinates")
	limit := flag.Int("limit", 0, "maximum number of bins to process (0 = all)")
	delay := flag.Duration("delay", 0, "pause between bins (default: GEOCODING_DELAY)")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pause := cfg.Geocoding.Delay
	if *delay > 0 {
		pause = *delay
	}
	geocoder := services.NewGeocoder(
		services.WithBaseURL(cfg.Geocoding.BaseURL),
		services.WithUserAgent(cfg.Geocoding.UserAgent),
		services.WithDelay(pause),
		services.WithCache(services.NewGeocodeCache(1000, cfg.Geocoding.CacheTTL)),
	)

	started := time.Now()
	stats, err := services.NewBinGeocoder(db, geocoder).GeocodeBins(ctx, services.BatchGeocodeOptions{
		Force: *force,
		Limit: *limit,
		Delay: pause,
	})
	if err != nil {
		logger.Fatal("Geocoding failed", zap.Error(err))
	}

	fmt.Println("\n🗺️  Geocoding summary:")
	fmt.Printf("   Total:       %d\n", stats.Total)
	fmt.Printf("   Processadas: %d\n", stats.Processadas)
	fmt.Printf("   Sucesso:     %d\n", stats.Sucesso)
	fmt.Printf("   Falha:       %d\n", stats.Falha)
	fmt.Printf("   Puladas:     %d\n", stats.Puladas)
	fmt.Printf("   Duração:     %s\n", time.Since(started).Round(time.Second))

	for _, e := range stats.Erros {
		fmt.Printf("   - %s (%s): %s\n", e.Localizacao, e.LixeiraID, e.Erro)
	}
}

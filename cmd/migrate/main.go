package main

import (
	"context"
	"fmt"
	"sort"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"

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

	if cfg.Database.URL == "" && cfg.Database.Driver != "sqlite3" {
		logger.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	logger.Info("Executing schema migrations")
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	if err := database.SeedLookups(ctx, db); err != nil {
		logger.Fatal("Seeding lookup tables failed", zap.Error(err))
	}
	logger.Info("✅ Migration completed successfully!")

	counts, err := database.TableCounts(ctx, db)
	if err != nil {
		logger.Fatal("Failed to count rows", zap.Error(err))
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	fmt.Println("\n📊 Table summary:")
	for _, table := range tables {
		fmt.Printf("   %-16s %d\n", table, counts[table])
	}
}

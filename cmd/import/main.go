// Command import loads a semicolon separated collection spreadsheet export
// into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/services"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "path to the CSV file")
	update := flag.Bool("update", false, "update collections that already exist instead of skipping them")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file coletas.csv [-update]")
		os.Exit(2)
	}

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
	if err := database.SeedLookups(ctx, db); err != nil {
		logger.Fatal("Seeding lookup tables failed", zap.Error(err))
	}

	importer := services.NewImporter(db, cfg.Dashboard.Location())
	stats, err := importer.ImportFile(ctx, *file, *update)
	if err != nil {
		logger.Fatal("Import failed", zap.String("file", *file), zap.Error(err))
	}

	fmt.Println("\n📦 Import summary:")
	fmt.Printf("   Linhas lidas:        %d\n", stats.TotalLinhas)
	fmt.Printf("   Linhas válidas:      %d\n", stats.LinhasValidas)
	fmt.Printf("   Linhas inválidas:    %d\n", stats.LinhasInvalidas)
	fmt.Printf("   Coletas criadas:     %d\n", stats.ColetasCriadas)
	fmt.Printf("   Coletas atualizadas: %d\n", stats.ColetasAtualizadas)
	fmt.Printf("   Coletas duplicadas:  %d\n", stats.ColetasDuplicadas)

	if len(stats.Erros) > 0 {
		fmt.Printf("\n⚠️  %d erro(s):\n", len(stats.Erros))
		for _, e := range stats.Erros {
			fmt.Printf("   - linha %d: %s\n", e.Linha, strings.Join(e.Erros, "; "))
		}
	}
}

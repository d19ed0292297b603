package database

import (
	"context"

	"tronik-dashboard/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	seedMaterialTypes  = []string{"Plástico", "Metal", "Papel", "Vidro", "Orgânico", "Eletrônico", "Outros"}
	seedSensorTypes    = []string{"Ultrassônico", "Temperatura", "Peso", "Infravermelho", "Outros"}
	seedCollectorTypes = []string{"TUBO DE PASTA DENTE", "COLETOR DO CLIENTE", "SEM COLETOR"}
	seedPartners       = []string{
		"INSTITUTO ARAPOTI",
		"ECOGRANA",
		"NEOENERGIA",
		"ESG SUMMIT",
		"COLEGIO RENOVAÇÃO",
		"COLETA SEM PARCEIRO",
	}
)

// SeedLookups inserts the default type tables and partners. Running it again
// is a no-op.
func SeedLookups(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin seed transaction")
	}
	defer tx.Rollback()

	tables := map[LookupTable][]string{
		MaterialTypes:  seedMaterialTypes,
		SensorTypes:    seedSensorTypes,
		CollectorTypes: seedCollectorTypes,
	}
	for table, names := range tables {
		for _, name := range names {
			if _, err := FindOrCreateLookup(ctx, tx, table, name); err != nil {
				return err
			}
		}
	}
	for _, name := range seedPartners {
		if _, err := FindOrCreatePartner(ctx, tx, name); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit seed")
	}

	logger.Info("🌱 Lookup tables seeded",
		zap.Int("material_types", len(seedMaterialTypes)),
		zap.Int("sensor_types", len(seedSensorTypes)),
		zap.Int("collector_types", len(seedCollectorTypes)),
		zap.Int("partners", len(seedPartners)),
	)
	return nil
}

// TableCounts returns the row count of every table, for migration summaries.
func TableCounts(ctx context.Context, db *sqlx.DB) (map[string]int, error) {
	tables := []string{"users", "partners", "material_types", "sensor_types", "collector_types",
		"bins", "sensors", "collections", "notifications"}

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table); err != nil {
			return nil, errors.Wrapf(err, "failed to count %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}

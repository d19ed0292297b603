package database

import (
	"strings"

	"tronik-dashboard/internal/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Connect opens the database and verifies the connection. driver is
// "postgres" in production; "sqlite3" is accepted for local runs and tests.
func Connect(driver, dbURL string) (*sqlx.DB, error) {
	if driver == "" {
		driver = "postgres"
	}

	logger.Info("🔌 Connecting to database",
		zap.String("driver", driver),
		zap.Int("url_length", len(dbURL)),
	)

	dsn := dbURL
	if driver == "sqlite3" {
		dsn = sqliteDSN(dbURL)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if driver == "sqlite3" {
		// One connection keeps in-memory databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	logger.Info("✅ Database connection established", zap.String("driver", driver))
	return db, nil
}

func sqliteDSN(dbURL string) string {
	if dbURL == "" {
		dbURL = ":memory:"
	}
	if strings.Contains(dbURL, "_foreign_keys") {
		return dbURL
	}
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "_foreign_keys=on"
}

// Migrate applies the schema. Every statement is idempotent and valid on
// both PostgreSQL and SQLite.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			admin BOOLEAN NOT NULL DEFAULT FALSE,
			fcm_token TEXT,
			created_at BIGINT NOT NULL,
			last_login BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS partners (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS material_types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS sensor_types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS collector_types (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS bins (
			id TEXT PRIMARY KEY,
			location TEXT NOT NULL,
			fill_level DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (fill_level >= 0 AND fill_level <= 100),
			status TEXT NOT NULL DEFAULT 'OK',
			latitude DOUBLE PRECISION CHECK (latitude IS NULL OR (latitude >= -90 AND latitude <= 90)),
			longitude DOUBLE PRECISION CHECK (longitude IS NULL OR (longitude >= -180 AND longitude <= 180)),
			partner_id TEXT REFERENCES partners(id) ON DELETE SET NULL,
			material_type_id TEXT REFERENCES material_types(id) ON DELETE SET NULL,
			last_collection BIGINT,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sensors (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
			sensor_type_id TEXT REFERENCES sensor_types(id) ON DELETE SET NULL,
			battery DOUBLE PRECISION NOT NULL DEFAULT 100 CHECK (battery >= 0 AND battery <= 100),
			last_ping BIGINT,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
			collected_at BIGINT NOT NULL,
			weight_kg DOUBLE PRECISION CHECK (weight_kg IS NULL OR weight_kg > 0),
			operation_type TEXT,
			km_traveled DOUBLE PRECISION CHECK (km_traveled IS NULL OR km_traveled >= 0),
			fuel_price DOUBLE PRECISION CHECK (fuel_price IS NULL OR fuel_price >= 0),
			profit_per_kg DOUBLE PRECISION,
			mtr_emitted BOOLEAN NOT NULL DEFAULT FALSE,
			partner_id TEXT REFERENCES partners(id) ON DELETE SET NULL,
			collector_type_id TEXT REFERENCES collector_types(id) ON DELETE SET NULL,
			created_at BIGINT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			bin_id TEXT REFERENCES bins(id) ON DELETE CASCADE,
			sensor_id TEXT REFERENCES sensors(id) ON DELETE CASCADE,
			sent BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at BIGINT,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at BIGINT,
			created_at BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_collections_collected_at ON collections(collected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_collections_bin_id ON collections(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_collections_partner_id ON collections(partner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sensors_bin_id ON sensors(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bins_location ON bins(location)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_type_created ON notifications(type, created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return errors.Wrapf(err, "migration %d failed", i+1)
		}
	}

	logger.Debug("Migrations applied", zap.Int("statements", len(migrations)))
	return nil
}

package services

import (
	"context"
	"testing"

	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func createBin(t *testing.T, db *sqlx.DB, bin *models.Bin) *models.Bin {
	t.Helper()
	require.NoError(t, database.CreateBin(context.Background(), db, bin))
	return bin
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

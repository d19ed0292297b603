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

const collectionSelect = `
	SELECT c.id, c.bin_id, c.collected_at, c.weight_kg, c.operation_type, c.km_traveled,
	       c.fuel_price, c.profit_per_kg, c.mtr_emitted, c.partner_id, c.collector_type_id,
	       c.created_at,
	       b.location AS bin_location, p.name AS partner_name, ct.name AS collector_type_name
	FROM collections c
	JOIN bins b ON b.id = c.bin_id
	LEFT JOIN partners p ON p.id = c.partner_id
	LEFT JOIN collector_types ct ON ct.id = c.collector_type_id`

// CollectionFilter selects collections; every set field is ANDed. Start and
// End are inclusive unix-second bounds.
type CollectionFilter struct {
	BinID         string
	PartnerID     string
	OperationType string
	Start         *int64
	End           *int64
	Limit         int
}

// ListCollections returns matching collections, newest first.
func ListCollections(ctx context.Context, q sqlx.ExtContext, filter CollectionFilter) ([]models.Collection, error) {
	query := collectionSelect + ` WHERE 1=1`
	var args []interface{}

	if filter.BinID != "" {
		query += ` AND c.bin_id = ?`
		args = append(args, filter.BinID)
	}
	if filter.PartnerID != "" {
		query += ` AND c.partner_id = ?`
		args = append(args, filter.PartnerID)
	}
	if filter.OperationType != "" {
		query += ` AND c.operation_type = ?`
		args = append(args, filter.OperationType)
	}
	if filter.Start != nil {
		query += ` AND c.collected_at >= ?`
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		query += ` AND c.collected_at <= ?`
		args = append(args, *filter.End)
	}
	query += ` ORDER BY c.collected_at DESC, c.created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	collections := []models.Collection{}
	if err := sqlx.SelectContext(ctx, q, &collections, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list collections")
	}
	return collections, nil
}

func GetCollection(ctx context.Context, q sqlx.ExtContext, id string) (*models.Collection, error) {
	var c models.Collection
	err := sqlx.GetContext(ctx, q, &c, q.Rebind(collectionSelect+` WHERE c.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get collection")
	}
	return &c, nil
}

func CreateCollection(ctx context.Context, q sqlx.ExtContext, c *models.Collection) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().Unix()

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO collections (id, bin_id, collected_at, weight_kg, operation_type, km_traveled,
		                         fuel_price, profit_per_kg, mtr_emitted, partner_id, collector_type_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), c.ID, c.BinID, c.CollectedAt, c.WeightKg, c.OperationType, c.KmTraveled,
		c.FuelPrice, c.ProfitPerKg, c.MTREmitted, c.PartnerID, c.CollectorTypeID, c.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create collection")
	}
	return TouchLastCollection(ctx, q, c.BinID, c.CollectedAt)
}

// UpdateCollection overwrites the mutable fields of an existing collection.
func UpdateCollection(ctx context.Context, q sqlx.ExtContext, c *models.Collection) error {
	result, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE collections
		SET collected_at = ?, weight_kg = ?, operation_type = ?, km_traveled = ?, fuel_price = ?,
		    profit_per_kg = ?, mtr_emitted = ?, partner_id = ?, collector_type_id = ?
		WHERE id = ?
	`), c.CollectedAt, c.WeightKg, c.OperationType, c.KmTraveled, c.FuelPrice,
		c.ProfitPerKg, c.MTREmitted, c.PartnerID, c.CollectorTypeID, c.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update collection")
	}
	return requireRow(result)
}

// FindCollectionByKey looks up the import duplicate key: bin, timestamp and weight.
func FindCollectionByKey(ctx context.Context, q sqlx.ExtContext, binID string, collectedAt int64, weight *float64) (*models.Collection, error) {
	query := `SELECT id FROM collections WHERE bin_id = ? AND collected_at = ?`
	args := []interface{}{binID, collectedAt}
	if weight == nil {
		query += ` AND weight_kg IS NULL`
	} else {
		query += ` AND weight_kg = ?`
		args = append(args, *weight)
	}
	query += ` LIMIT 1`

	var id string
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(query), args...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up collection")
	}
	return &models.Collection{ID: id, BinID: binID, CollectedAt: collectedAt, WeightKg: weight}, nil
}

// CountCollectionsBetween counts collections with start <= collected_at <= end.
func CountCollectionsBetween(ctx context.Context, q sqlx.ExtContext, start, end int64) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count,
		q.Rebind(`SELECT COUNT(*) FROM collections WHERE collected_at >= ? AND collected_at <= ?`), start, end)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count collections")
	}
	return count, nil
}

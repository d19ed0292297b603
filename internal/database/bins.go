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

const binSelect = `
	SELECT b.id, b.location, b.fill_level, b.status, b.latitude, b.longitude,
	       b.partner_id, b.material_type_id, b.last_collection, b.created_at, b.updated_at,
	       p.name AS partner_name, m.name AS material_name
	FROM bins b
	LEFT JOIN partners p ON p.id = b.partner_id
	LEFT JOIN material_types m ON m.id = b.material_type_id`

// BinFilter narrows ListBins. Zero values impose no constraint.
type BinFilter struct {
	Status    string
	PartnerID string
}

func ListBins(ctx context.Context, q sqlx.ExtContext, filter BinFilter) ([]models.Bin, error) {
	query := binSelect + ` WHERE 1=1`
	var args []interface{}

	if filter.Status != "" {
		query += ` AND b.status = ?`
		args = append(args, filter.Status)
	}
	if filter.PartnerID != "" {
		query += ` AND b.partner_id = ?`
		args = append(args, filter.PartnerID)
	}
	query += ` ORDER BY b.location ASC, b.created_at ASC`

	bins := []models.Bin{}
	if err := sqlx.SelectContext(ctx, q, &bins, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list bins")
	}
	return bins, nil
}

func GetBin(ctx context.Context, q sqlx.ExtContext, id string) (*models.Bin, error) {
	var bin models.Bin
	err := sqlx.GetContext(ctx, q, &bin, q.Rebind(binSelect+` WHERE b.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bin")
	}
	return &bin, nil
}

// FindBinByLocation returns the oldest bin with exactly this location label.
func FindBinByLocation(ctx context.Context, q sqlx.ExtContext, location string) (*models.Bin, error) {
	var bin models.Bin
	err := sqlx.GetContext(ctx, q, &bin,
		q.Rebind(binSelect+` WHERE b.location = ? ORDER BY b.created_at ASC LIMIT 1`), location)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find bin by location")
	}
	return &bin, nil
}

func CreateBin(ctx context.Context, q sqlx.ExtContext, bin *models.Bin) error {
	now := time.Now().Unix()
	if bin.ID == "" {
		bin.ID = uuid.New().String()
	}
	if bin.Status == "" {
		bin.Status = models.BinStatusOK
	}
	bin.CreatedAt = now
	bin.UpdatedAt = now

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO bins (id, location, fill_level, status, latitude, longitude,
		                  partner_id, material_type_id, last_collection, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), bin.ID, bin.Location, bin.FillLevel, bin.Status, bin.Latitude, bin.Longitude,
		bin.PartnerID, bin.MaterialTypeID, bin.LastCollection, bin.CreatedAt, bin.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create bin")
	}
	return nil
}

// UpdateBin writes every mutable column of bin.
func UpdateBin(ctx context.Context, q sqlx.ExtContext, bin *models.Bin) error {
	bin.UpdatedAt = time.Now().Unix()

	result, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE bins
		SET location = ?, fill_level = ?, status = ?, latitude = ?, longitude = ?,
		    partner_id = ?, material_type_id = ?, last_collection = ?, updated_at = ?
		WHERE id = ?
	`), bin.Location, bin.FillLevel, bin.Status, bin.Latitude, bin.Longitude,
		bin.PartnerID, bin.MaterialTypeID, bin.LastCollection, bin.UpdatedAt, bin.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update bin")
	}
	return requireRow(result)
}

// DeleteBin removes a bin together with its sensors, collections and
// notifications in one transaction.
func DeleteBin(ctx context.Context, db *sqlx.DB, id string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM notifications WHERE bin_id = ? OR sensor_id IN (SELECT id FROM sensors WHERE bin_id = ?)`,
		`DELETE FROM sensors WHERE bin_id = ?`,
		`DELETE FROM collections WHERE bin_id = ?`,
	}
	for i, stmt := range statements {
		args := []interface{}{id}
		if i == 0 {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), args...); err != nil {
			return errors.Wrap(err, "failed to delete bin dependents")
		}
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM bins WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "failed to delete bin")
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit bin delete")
}

// BinsInAlert returns bins whose fill level is strictly above threshold and
// whose status is not excludedStatus.
func BinsInAlert(ctx context.Context, q sqlx.ExtContext, threshold float64, excludedStatus string) ([]models.Bin, error) {
	bins := []models.Bin{}
	err := sqlx.SelectContext(ctx, q, &bins,
		q.Rebind(binSelect+` WHERE b.fill_level > ? AND b.status <> ? ORDER BY b.fill_level DESC`),
		threshold, excludedStatus)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query bins in alert")
	}
	return bins, nil
}

// BinsForGeocoding returns bins lacking coordinates, or every bin when force is set.
func BinsForGeocoding(ctx context.Context, q sqlx.ExtContext, force bool, limit int) ([]models.Bin, error) {
	query := binSelect
	if !force {
		query += ` WHERE b.latitude IS NULL OR b.longitude IS NULL`
	}
	query += ` ORDER BY b.created_at ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	bins := []models.Bin{}
	if err := sqlx.SelectContext(ctx, q, &bins, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to query bins for geocoding")
	}
	return bins, nil
}

func UpdateBinCoordinates(ctx context.Context, q sqlx.ExtContext, id string, lat, lon float64) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE bins SET latitude = ?, longitude = ?, updated_at = ? WHERE id = ?`),
		lat, lon, time.Now().Unix(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update bin coordinates")
	}
	return requireRow(result)
}

// UpdateBinReading stores a sensor-reported fill level and the status it implies.
func UpdateBinReading(ctx context.Context, q sqlx.ExtContext, id string, level float64, status string) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE bins SET fill_level = ?, status = ?, updated_at = ? WHERE id = ?`),
		level, status, time.Now().Unix(), id)
	if err != nil {
		return errors.Wrap(err, "failed to update bin reading")
	}
	return requireRow(result)
}

// SetBinPartnerIfMissing links a partner to a bin that has none yet.
func SetBinPartnerIfMissing(ctx context.Context, q sqlx.ExtContext, binID, partnerID string) error {
	_, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE bins SET partner_id = ?, updated_at = ? WHERE id = ? AND partner_id IS NULL`),
		partnerID, time.Now().Unix(), binID)
	return errors.Wrap(err, "failed to set bin partner")
}

// TouchLastCollection moves last_collection forward to at, never backward.
func TouchLastCollection(ctx context.Context, q sqlx.ExtContext, binID string, at int64) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE bins SET last_collection = ?
		WHERE id = ? AND (last_collection IS NULL OR last_collection < ?)
	`), at, binID, at)
	return errors.Wrap(err, "failed to update last collection")
}

// BinStats aggregates the dashboard counters over all bins.
func BinStats(ctx context.Context, q sqlx.ExtContext, alertLevel float64) (total, inAlert int, avgLevel float64, err error) {
	var row struct {
		Total   int             `db:"total"`
		InAlert sql.NullInt64   `db:"in_alert"`
		Avg     sql.NullFloat64 `db:"avg_level"`
	}
	err = sqlx.GetContext(ctx, q, &row, q.Rebind(`
		SELECT COUNT(*) AS total,
		       SUM(CASE WHEN fill_level > ? THEN 1 ELSE 0 END) AS in_alert,
		       AVG(fill_level) AS avg_level
		FROM bins
	`), alertLevel)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to compute bin stats")
	}
	return row.Total, int(row.InAlert.Int64), row.Avg.Float64, nil
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

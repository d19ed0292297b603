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

const sensorSelect = `
	SELECT s.id, s.bin_id, s.sensor_type_id, s.battery, s.last_ping, s.created_at,
	       t.name AS sensor_type_name, b.location AS bin_location
	FROM sensors s
	JOIN bins b ON b.id = s.bin_id
	LEFT JOIN sensor_types t ON t.id = s.sensor_type_id`

type SensorFilter struct {
	BinID      string
	MinBattery *float64
}

func ListSensors(ctx context.Context, q sqlx.ExtContext, filter SensorFilter) ([]models.Sensor, error) {
	query := sensorSelect + ` WHERE 1=1`
	var args []interface{}

	if filter.BinID != "" {
		query += ` AND s.bin_id = ?`
		args = append(args, filter.BinID)
	}
	if filter.MinBattery != nil {
		query += ` AND s.battery >= ?`
		args = append(args, *filter.MinBattery)
	}
	query += ` ORDER BY b.location ASC, s.created_at ASC`

	sensors := []models.Sensor{}
	if err := sqlx.SelectContext(ctx, q, &sensors, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list sensors")
	}
	return sensors, nil
}

func GetSensor(ctx context.Context, q sqlx.ExtContext, id string) (*models.Sensor, error) {
	var sensor models.Sensor
	err := sqlx.GetContext(ctx, q, &sensor, q.Rebind(sensorSelect+` WHERE s.id = ?`), id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sensor")
	}
	return &sensor, nil
}

func CreateSensor(ctx context.Context, q sqlx.ExtContext, sensor *models.Sensor) error {
	if sensor.ID == "" {
		sensor.ID = uuid.New().String()
	}
	sensor.CreatedAt = time.Now().Unix()

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO sensors (id, bin_id, sensor_type_id, battery, last_ping, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), sensor.ID, sensor.BinID, sensor.SensorTypeID, sensor.Battery, sensor.LastPing, sensor.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create sensor")
	}
	return nil
}

func UpdateSensor(ctx context.Context, q sqlx.ExtContext, sensor *models.Sensor) error {
	result, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE sensors SET sensor_type_id = ?, battery = ?, last_ping = ? WHERE id = ?
	`), sensor.SensorTypeID, sensor.Battery, sensor.LastPing, sensor.ID)
	if err != nil {
		return errors.Wrap(err, "failed to update sensor")
	}
	return requireRow(result)
}

// UpdateSensorReading records a battery level reported by the device itself.
func UpdateSensorReading(ctx context.Context, q sqlx.ExtContext, id, binID string, battery float64, at int64) error {
	result, err := q.ExecContext(ctx,
		q.Rebind(`UPDATE sensors SET battery = ?, last_ping = ? WHERE id = ? AND bin_id = ?`),
		battery, at, id, binID)
	if err != nil {
		return errors.Wrap(err, "failed to update sensor reading")
	}
	return requireRow(result)
}

func DeleteSensor(ctx context.Context, db *sqlx.DB, id string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM notifications WHERE sensor_id = ?`), id); err != nil {
		return errors.Wrap(err, "failed to delete sensor notifications")
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM sensors WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "failed to delete sensor")
	}
	if err := requireRow(result); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit sensor delete")
}

// SensorsWithLowBattery returns sensors whose battery is strictly below threshold.
func SensorsWithLowBattery(ctx context.Context, q sqlx.ExtContext, threshold float64) ([]models.Sensor, error) {
	sensors := []models.Sensor{}
	err := sqlx.SelectContext(ctx, q, &sensors,
		q.Rebind(sensorSelect+` WHERE s.battery < ? ORDER BY s.battery ASC`), threshold)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query low battery sensors")
	}
	return sensors, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tronik-dashboard/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// LookupTable names one of the simple name-only type tables.
type LookupTable string

const (
	MaterialTypes  LookupTable = "material_types"
	SensorTypes    LookupTable = "sensor_types"
	CollectorTypes LookupTable = "collector_types"
	// Partners is only accepted by LookupExists.
	Partners LookupTable = "partners"
)

// ParseLookupTable maps the URL segment used by /api/tipos/{tipo}.
func ParseLookupTable(kind string) (LookupTable, bool) {
	switch kind {
	case "material":
		return MaterialTypes, true
	case "sensor":
		return SensorTypes, true
	case "coletor":
		return CollectorTypes, true
	}
	return "", false
}

func (t LookupTable) valid() bool {
	return t == MaterialTypes || t == SensorTypes || t == CollectorTypes
}

// FindOrCreateLookup returns the id of the row named name, inserting it when
// missing. The unique index on name makes concurrent callers converge on one row.
func FindOrCreateLookup(ctx context.Context, q sqlx.ExtContext, table LookupTable, name string) (string, error) {
	if !table.valid() {
		return "", fmt.Errorf("unknown lookup table %q", table)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("lookup name is required")
	}

	insert := fmt.Sprintf(`INSERT INTO %s (id, name) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`, table)
	if _, err := q.ExecContext(ctx, q.Rebind(insert), uuid.New().String(), name); err != nil {
		return "", errors.Wrapf(err, "failed to insert into %s", table)
	}

	var id string
	query := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, table)
	if err := sqlx.GetContext(ctx, q, &id, q.Rebind(query), name); err != nil {
		return "", errors.Wrapf(err, "failed to read back %s", table)
	}
	return id, nil
}

// FindOrCreatePartner does the same for partners; a blank name resolves to
// the placeholder partner used for collections without one.
func FindOrCreatePartner(ctx context.Context, q sqlx.ExtContext, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.NoPartnerName
	}

	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO partners (id, name, active, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO NOTHING
	`), uuid.New().String(), name, true, time.Now().Unix())
	if err != nil {
		return "", errors.Wrap(err, "failed to insert partner")
	}

	var id string
	if err := sqlx.GetContext(ctx, q, &id, q.Rebind(`SELECT id FROM partners WHERE name = ?`), name); err != nil {
		return "", errors.Wrap(err, "failed to read back partner")
	}
	return id, nil
}

func ListLookups(ctx context.Context, q sqlx.ExtContext, table LookupTable) ([]models.Lookup, error) {
	if !table.valid() {
		return nil, fmt.Errorf("unknown lookup table %q", table)
	}
	rows := []models.Lookup{}
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name ASC`, table)
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", table)
	}
	return rows, nil
}

func ListPartners(ctx context.Context, q sqlx.ExtContext, activeOnly bool) ([]models.Partner, error) {
	query := `SELECT id, name, active, created_at FROM partners`
	var args []interface{}
	if activeOnly {
		query += ` WHERE active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY name ASC`

	partners := []models.Partner{}
	if err := sqlx.SelectContext(ctx, q, &partners, q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to list partners")
	}
	return partners, nil
}

// LookupExists reports whether id is a row of table.
func LookupExists(ctx context.Context, q sqlx.ExtContext, table LookupTable, id string) (bool, error) {
	if !table.valid() && table != Partners {
		return false, fmt.Errorf("unknown lookup table %q", table)
	}
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, table)
	err := sqlx.GetContext(ctx, q, &count, q.Rebind(query), id)
	if err != nil && err != sql.ErrNoRows {
		return false, errors.Wrapf(err, "failed to check %s", table)
	}
	return count > 0, nil
}

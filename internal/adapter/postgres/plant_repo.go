package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"plantcare/internal/domain"
)

const plantColumns = "id, name, species, last_watered, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlant(row rowScanner) (*domain.Plant, error) {
	var (
		p       domain.Plant
		species sql.NullString
		watered sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.Name, &species, &watered, &p.CreatedAt); err != nil {
		return nil, err
	}
	if species.Valid {
		p.Species = &species.String
	}
	if watered.Valid {
		day := watered.Time.Format(domain.DayLayout)
		p.LastWatered = &day
	}
	return &p, nil
}

// scanOptional maps sql.ErrNoRows to a nil plant.
func scanOptional(row *sql.Row) (*domain.Plant, error) {
	p, err := scanPlant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// ListPlants returns every plant, newest first.
func (d *DB) ListPlants(ctx context.Context) ([]domain.Plant, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+plantColumns+" FROM plants ORDER BY created_at DESC;")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Plant, 0)
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CreatePlant inserts a plant and returns the stored row.
func (d *DB) CreatePlant(ctx context.Context, id, name string, species *string, createdAt time.Time) (*domain.Plant, error) {
	row := d.sql.QueryRowContext(ctx,
		"INSERT INTO plants(id, name, species, created_at) VALUES($1, $2, $3, $4) RETURNING "+plantColumns+";",
		id, name, species, createdAt.UTC(),
	)
	return scanPlant(row)
}

// UpdatePlant overwrites name and species.
func (d *DB) UpdatePlant(ctx context.Context, id, name string, species *string) (*domain.Plant, error) {
	row := d.sql.QueryRowContext(ctx,
		"UPDATE plants SET name=$1, species=$2 WHERE id=$3 RETURNING "+plantColumns+";",
		name, species, id,
	)
	return scanOptional(row)
}

// WaterPlant stamps last_watered with the given calendar day.
func (d *DB) WaterPlant(ctx context.Context, id string, day time.Time) (*domain.Plant, error) {
	row := d.sql.QueryRowContext(ctx,
		"UPDATE plants SET last_watered=$1 WHERE id=$2 RETURNING "+plantColumns+";",
		day.Format(domain.DayLayout), id,
	)
	return scanOptional(row)
}

// DeletePlant removes a plant and reports whether a row existed.
func (d *DB) DeletePlant(ctx context.Context, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM plants WHERE id=$1;", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

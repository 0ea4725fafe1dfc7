package reference

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// PostgresStore reads and writes reference tables in PostgreSQL. The schema
// is created by the migrations, not by the store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over an open pool
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	return &PostgresStore{pool: pool}, nil
}

// ReferenceTable loads the ranges of species in their stored order
func (s *PostgresStore) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT parameter, min_value, max_value, unit
		FROM reference_ranges
		WHERE species = $1
		ORDER BY position
	`, species)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference ranges: %w", err)
	}

	ranges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ReferenceRange, error) {
		var r domain.ReferenceRange
		err := row.Scan(&r.Parameter, &r.Min, &r.Max, &r.Unit)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read reference ranges: %w", err)
	}

	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrSpeciesNotFound, species)
	}
	return &domain.ReferenceTable{Species: species, Ranges: ranges}, nil
}

// SaveReferenceTable upserts the ranges of a species and removes parameters
// no longer present in the table.
func (s *PostgresStore) SaveReferenceTable(ctx context.Context, table *domain.ReferenceTable) error {
	if err := ValidateTable(table); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	params := make([]string, 0, len(table.Ranges))
	batch := &pgx.Batch{}
	for i, r := range table.Ranges {
		params = append(params, r.Parameter)
		batch.Queue(`
			INSERT INTO reference_ranges (species, parameter, position, min_value, max_value, unit, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
			ON CONFLICT (species, parameter) DO UPDATE SET
				position = EXCLUDED.position,
				min_value = EXCLUDED.min_value,
				max_value = EXCLUDED.max_value,
				unit = EXCLUDED.unit,
				updated_at = EXCLUDED.updated_at
		`, table.Species, r.Parameter, i, r.Min, r.Max, r.Unit)
	}
	batch.Queue(`DELETE FROM reference_ranges WHERE species = $1 AND NOT (parameter = ANY($2))`,
		table.Species, params)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save reference table %s: %w", table.Species, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reference table: %w", err)
	}
	return nil
}

// Species lists the species with stored ranges
func (s *PostgresStore) Species(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT species FROM reference_ranges ORDER BY species`)
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan species: %w", err)
	}
	return out, nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

package reference

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// SQLiteStore keeps reference tables in a local SQLite file. It is the
// storage of the single-binary deployment.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers proceed during a sync
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLStore wraps an open database whose schema already exists
func NewSQLStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS reference_ranges (
	species TEXT NOT NULL,
	parameter TEXT NOT NULL,
	position INTEGER NOT NULL,
	min_value REAL NOT NULL,
	max_value REAL NOT NULL,
	unit TEXT NOT NULL DEFAULT '',
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (species, parameter)
);

CREATE INDEX IF NOT EXISTS idx_reference_ranges_species ON reference_ranges(species, position);
`

// ReferenceTable loads the ranges of species in their stored order
func (s *SQLiteStore) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT parameter, min_value, max_value, unit FROM reference_ranges WHERE species = ? ORDER BY position",
		species,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference ranges: %w", err)
	}
	defer rows.Close()

	table := &domain.ReferenceTable{Species: species}
	for rows.Next() {
		var r domain.ReferenceRange
		if err := rows.Scan(&r.Parameter, &r.Min, &r.Max, &r.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan reference range: %w", err)
		}
		table.Ranges = append(table.Ranges, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference ranges: %w", err)
	}

	if table.IsEmpty() {
		return nil, fmt.Errorf("%w: %q", domain.ErrSpeciesNotFound, species)
	}
	return table, nil
}

// SaveReferenceTable replaces every range of the table's species
func (s *SQLiteStore) SaveReferenceTable(ctx context.Context, table *domain.ReferenceTable) error {
	if err := ValidateTable(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reference_ranges WHERE species = ?", table.Species); err != nil {
		return fmt.Errorf("failed to clear reference ranges: %w", err)
	}

	for i, r := range table.Ranges {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO reference_ranges (species, parameter, position, min_value, max_value, unit) VALUES (?, ?, ?, ?, ?, ?)",
			table.Species, r.Parameter, i, r.Min, r.Max, r.Unit,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s/%s: %w", table.Species, r.Parameter, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reference table: %w", err)
	}
	return nil
}

// Species lists the species with stored ranges
func (s *SQLiteStore) Species(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT species FROM reference_ranges ORDER BY species")
	if err != nil {
		return nil, fmt.Errorf("failed to list species: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan species: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

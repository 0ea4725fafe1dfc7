package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// DefaultMigrationsPath is used when the configuration names no directory
const DefaultMigrationsPath = "migrations"

// SchemaVersion is the applied migration state. Version 0 means no migration
// has been applied.
type SchemaVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// MigrationRunner applies the reference schema migrations found in a directory
type MigrationRunner struct {
	m      *migrate.Migrate
	logger *logrus.Logger
}

// migrateLogger routes golang-migrate output through logrus at debug level
type migrateLogger struct {
	logger *logrus.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.WithField("component", "migrate").Debugf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.logger.IsLevelEnabled(logrus.DebugLevel)
}

// NewMigrationRunner opens databaseURL and the migrations directory dir
func NewMigrationRunner(databaseURL, dir string, logger *logrus.Logger) (*MigrationRunner, error) {
	if dir == "" {
		dir = DefaultMigrationsPath
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving migrations directory: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	m.Log = migrateLogger{logger: logger}

	return &MigrationRunner{m: m, logger: logger}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (r *MigrationRunner) Up(ctx context.Context) error {
	return r.run(ctx, "up", r.m.Up)
}

// Down rolls back the most recent migration
func (r *MigrationRunner) Down(ctx context.Context) error {
	return r.run(ctx, "down", func() error { return r.m.Steps(-1) })
}

// run executes step and stops it between migrations once ctx is done
func (r *MigrationRunner) run(ctx context.Context, direction string, step func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.m.GracefulStop <- true
		case <-done:
		}
	}()

	entry := r.logger.WithField("direction", direction)
	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			entry.Info("Reference schema unchanged")
			return nil
		}
		return fmt.Errorf("migrating %s: %w", direction, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	v, err := r.Version()
	if err != nil {
		entry.WithError(err).Warn("Could not read schema version")
		return nil
	}
	entry.WithFields(logrus.Fields{
		"version": v.Version,
		"dirty":   v.Dirty,
	}).Info("Reference schema migrated")
	return nil
}

// Version reports the applied migration state
func (r *MigrationRunner) Version() (SchemaVersion, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaVersion{}, nil
	}
	if err != nil {
		return SchemaVersion{}, err
	}
	return SchemaVersion{Version: version, Dirty: dirty}, nil
}

// Close releases the source and database handles
func (r *MigrationRunner) Close() error {
	sourceErr, dbErr := r.m.Close()
	return errors.Join(sourceErr, dbErr)
}

package reference

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/analisavet/hemogram-server/internal/database"
	"github.com/analisavet/hemogram-server/internal/domain"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("hemogram"),
		postgres.WithUsername("hemogram"),
		postgres.WithPassword("hemogram"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := domain.DatabaseConfig{
		Host:         host,
		Port:         port.Int(),
		Database:     "hemogram",
		Username:     "hemogram",
		Password:     "hemogram",
		SSLMode:      "disable",
		MaxOpenConns: 4,
	}
	logger := quietLogger()

	runner, err := database.NewMigrationRunner(database.URL(cfg), "../../migrations", logger)
	require.NoError(t, err)
	require.NoError(t, runner.Up(ctx))
	defer runner.Close()

	db, err := database.NewConnection(ctx, cfg, logger)
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPostgresStore(db.Pool)
	require.NoError(t, err)

	_, err = store.ReferenceTable(ctx, domain.SpeciesDog)
	assert.ErrorIs(t, err, domain.ErrSpeciesNotFound)

	for _, table := range BuiltinTables() {
		require.NoError(t, store.SaveReferenceTable(ctx, table))
	}

	dog, err := store.ReferenceTable(ctx, domain.SpeciesDog)
	require.NoError(t, err)
	assert.Equal(t, BuiltinTables()[0], dog)

	// a shorter table removes the parameters it no longer lists
	require.NoError(t, store.SaveReferenceTable(ctx, &domain.ReferenceTable{
		Species: domain.SpeciesCat,
		Ranges:  []domain.ReferenceRange{{Parameter: "hematocrito", Min: 25, Max: 45, Unit: "%"}},
	}))
	cat, err := store.ReferenceTable(ctx, domain.SpeciesCat)
	require.NoError(t, err)
	require.Len(t, cat.Ranges, 1)
	assert.Equal(t, 25.0, cat.Ranges[0].Min)

	species, err := store.Species(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.SpeciesDog, domain.SpeciesCat}, species)
	assert.NoError(t, store.Ping(ctx))
}

func TestNewPostgresStore_RequiresPool(t *testing.T) {
	_, err := NewPostgresStore(nil)
	assert.Error(t, err)
}

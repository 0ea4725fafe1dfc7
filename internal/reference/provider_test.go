package reference

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analisavet/hemogram-server/internal/domain"
)

func TestOpen_Static(t *testing.T) {
	p, err := Open(context.Background(), &domain.Config{}, quietLogger())
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, domain.ReferenceSourceStatic, p.Kind)
	assert.Nil(t, p.Store)

	table, err := p.Source.ReferenceTable(context.Background(), domain.SpeciesDog)
	require.NoError(t, err)
	assert.False(t, table.IsEmpty())

	species, err := p.Species(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{domain.SpeciesDog, domain.SpeciesCat}, species)

	assert.Error(t, p.Sync(context.Background(), BuiltinTables()), "static source is read-only")
	assert.Equal(t, "ok", p.Health(context.Background())["status"])
}

func TestOpen_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(equineYAML), 0o644))

	cfg := &domain.Config{Reference: domain.ReferenceConfig{Source: domain.ReferenceSourceYAML, File: path}}
	p, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	_, err = p.Source.ReferenceTable(context.Background(), "Equino")
	assert.NoError(t, err)
}

func TestOpen_SQLiteSyncAndRead(t *testing.T) {
	cfg := &domain.Config{Reference: domain.ReferenceConfig{
		Source:     domain.ReferenceSourceSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ref.db"),
	}}
	ctx := context.Background()

	p, err := Open(ctx, cfg, quietLogger())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Source.ReferenceTable(ctx, domain.SpeciesCat)
	assert.ErrorIs(t, err, domain.ErrSpeciesNotFound)

	require.NoError(t, p.Sync(ctx, BuiltinTables()))

	cat, err := p.Source.ReferenceTable(ctx, domain.SpeciesCat)
	require.NoError(t, err)
	assert.Equal(t, BuiltinTables()[1], cat)

	health := p.Health(ctx)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "closed", health["circuit_breaker"])
}

func TestOpen_Unsupported(t *testing.T) {
	cfg := &domain.Config{Reference: domain.ReferenceConfig{Source: "mongodb"}}
	_, err := Open(context.Background(), cfg, quietLogger())
	assert.True(t, domain.IsValidationError(err))
}

func TestOpen_MissingYAML(t *testing.T) {
	cfg := &domain.Config{Reference: domain.ReferenceConfig{Source: domain.ReferenceSourceYAML, File: "/nonexistent/ref.yaml"}}
	_, err := Open(context.Background(), cfg, quietLogger())
	assert.Error(t, err)
}

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

const equineYAML = `
tabelas:
  - especie: Equino
    faixas:
      - parametro: hemacias
        min: 6.8
        max: 12.9
        unidade: x10⁶/µL
      - parametro: hematocrito
        min: 32
        max: 53
        unidade: "%"
`

func TestParseYAML(t *testing.T) {
	tables, err := ParseYAML([]byte(equineYAML))
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, "Equino", tables[0].Species)
	assert.Equal(t, []domain.ReferenceRange{
		{Parameter: "hemacias", Min: 6.8, Max: 12.9, Unit: "x10⁶/µL"},
		{Parameter: "hematocrito", Min: 32, Max: 53, Unit: "%"},
	}, tables[0].Ranges)
}

func TestParseYAML_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":  "tabelas: [",
		"empty":      "tabelas: []",
		"inverted":   "tabelas:\n  - especie: Cão\n    faixas:\n      - {parametro: vcm, min: 80, max: 60}\n",
		"no species": "tabelas:\n  - faixas:\n      - {parametro: vcm, min: 60, max: 80}\n",
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseYAML([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalYAML_RoundTripsBuiltins(t *testing.T) {
	data, err := MarshalYAML(BuiltinTables()...)
	require.NoError(t, err)

	tables, err := ParseYAML(data)
	require.NoError(t, err)
	assert.Equal(t, BuiltinTables(), tables)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "referencias.yaml")
	require.NoError(t, os.WriteFile(path, []byte(equineYAML), 0o644))

	src, err := LoadYAML(path)
	require.NoError(t, err)

	table, err := src.ReferenceTable(context.Background(), "Equino")
	require.NoError(t, err)
	assert.Len(t, table.Ranges, 2)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/reference"
)

func newTestClassifier() *Classifier {
	logger := testLogger()
	return NewClassifier(NewReferenceResolver(reference.NewStaticSource(), domain.SpeciesDog, logger), logger)
}

func measurements(pairs ...interface{}) *domain.Measurements {
	m := domain.NewMeasurements()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(float64))
	}
	return m
}

func TestClassify_InclusiveBounds(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		value    float64
		expected domain.Status
	}{
		{5.0, domain.StatusNormal},
		{10.0, domain.StatusNormal},
		{4.99, domain.StatusLow},
		{10.01, domain.StatusHigh},
	}

	for _, tt := range tests {
		result, err := c.Classify(context.Background(), measurements(domain.ParamHemacias, tt.value), domain.SpeciesCat)
		require.NoError(t, err)
		entry := result.Entries[domain.ParamHemacias]
		assert.Equal(t, tt.expected, entry.Status, "value %v", tt.value)
		assert.Equal(t, tt.expected != domain.StatusNormal, entry.Alterado)
	}
}

func TestClassify_AbsentParametersExcluded(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(context.Background(), measurements(domain.ParamHematocrito, 45.2), domain.SpeciesDog)
	require.NoError(t, err)

	assert.Len(t, result.Entries, 1)
	_, ok := result.Entries[domain.ParamHemacias]
	assert.False(t, ok)
	assert.Empty(t, result.Altered)
}

func TestClassify_AlteredFollowMeasurementOrder(t *testing.T) {
	c := newTestClassifier()

	m := measurements(
		domain.ParamPlaquetas, 90000.0,
		domain.ParamHematocrito, 30.0,
		domain.ParamLeucocitos, 25000.0,
		domain.ParamHemacias, 6.0,
	)
	result, err := c.Classify(context.Background(), m, domain.SpeciesDog)
	require.NoError(t, err)

	require.Len(t, result.Altered, 3)
	assert.Equal(t, "Plaquetas", result.Altered[0].Parametro)
	assert.Equal(t, "Hematócrito", result.Altered[1].Parametro)
	assert.Equal(t, "Leucócitos", result.Altered[2].Parametro)
	assert.Equal(t, 3, result.AlteredCount())
}

func TestClassify_InterpretationText(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(context.Background(), measurements(domain.ParamHematocrito, 30.0), domain.SpeciesDog)
	require.NoError(t, err)
	require.Len(t, result.Altered, 1)

	entry := result.Altered[0]
	assert.Equal(t, AlterationDecreased, entry.TipoAlteracao)
	assert.Equal(t, "Hematócrito diminuído (30 %; referência 37-55 %), compatível com anemia.", entry.Interpretacao)
	assert.Equal(t, "Monitorar Hematócrito - diminuído", entry.Recomendacao)
}

func TestClassify_InterpretationWithoutHint(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(context.Background(), measurements(domain.ParamHCM, 30.0), domain.SpeciesDog)
	require.NoError(t, err)
	require.Len(t, result.Altered, 1)
	assert.Equal(t, "HCM aumentado (30 pg; referência 19.5-24.5 pg).", result.Altered[0].Interpretacao)
}

func TestClassify_FallbackScenario(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(context.Background(), measurements(domain.ParamHematocrito, 45.2), "Equino")
	require.NoError(t, err)

	assert.Equal(t, domain.SpeciesDog, result.SpeciesUsed)
	assert.True(t, result.FallbackUsed)
	assert.Equal(t, "Equino", result.RequestedSpecies)
	assert.NotEmpty(t, result.Note)
	assert.Equal(t, domain.StatusNormal, result.Entries[domain.ParamHematocrito].Status)
}

func TestClassify_MeasurementWithoutRangeIgnored(t *testing.T) {
	c := newTestClassifier()

	result, err := c.Classify(context.Background(), measurements("glicose", 300.0), domain.SpeciesDog)
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestClassify_AliasKeysUseCanonicalRange(t *testing.T) {
	c := newTestClassifier()

	m := measurements("proteina", 3.0, domain.ParamHematocrito, 10.0, domain.ParamProteinaTotal, 7.0)
	result, err := c.Classify(context.Background(), m, "Equino")
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	protein, ok := result.Entries[domain.ParamProteinaTotal]
	require.True(t, ok)
	assert.Equal(t, 3.0, protein.Value, "first value stored wins")
	assert.Equal(t, domain.StatusLow, protein.Status)
	assert.Equal(t, domain.StatusLow, result.Entries[domain.ParamHematocrito].Status)

	require.Len(t, result.Altered, 2)
	assert.Equal(t, "Proteína Total", result.Altered[0].Parametro)
}

func TestClassify_ReferenceUnavailable(t *testing.T) {
	logger := testLogger()
	empty := reference.NewStaticSource(&domain.ReferenceTable{Species: "Equino", Ranges: []domain.ReferenceRange{{Parameter: "vcm", Max: 1}}})
	c := NewClassifier(NewReferenceResolver(empty, domain.SpeciesDog, logger), logger)

	_, err := c.Classify(context.Background(), measurements(domain.ParamVCM, 70.0), "Gato")
	assert.ErrorIs(t, err, domain.ErrReferenceUnavailable)
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t, "Monitorar Plaquetas - aumentado", Recommendation("Plaquetas", AlterationIncreased))
}

package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/ingest"
	"github.com/analisavet/hemogram-server/internal/reference"
)

const catReport = `Paciente: Mimi
Espécie: Gato   Sexo: F
Hemácias: 4,2
Hematócrito: 40,0
Plaquetas: 900000
`

func newTestService(strict bool) *HemogramService {
	return NewHemogramService(reference.NewStaticSource(), HemogramServiceConfig{StrictSpecies: strict}, testLogger())
}

func TestAnalyze_FromText(t *testing.T) {
	svc := newTestService(false)

	ext := svc.ExtractText(catReport)
	analysis, err := svc.Analyze(context.Background(), ext, "")
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, "Mimi", analysis.Paciente.Nome)
	assert.Equal(t, domain.SpeciesCat, analysis.Classificacao.SpeciesUsed)

	require.Len(t, analysis.Alteracoes, 2)
	assert.Equal(t, domain.Alteration{
		Parametro:     domain.ParamHemacias,
		Valor:         4.2,
		Classificacao: domain.StatusLow,
		Referencia:    "5-10 x10⁶/µL",
	}, analysis.Alteracoes[0])
	assert.Equal(t, domain.ParamPlaquetas, analysis.Alteracoes[1].Parametro)

	require.Len(t, analysis.Diagnostico.Explicacoes, 2)
	assert.Equal(t, "Monitorar Hemácias - diminuído", analysis.Diagnostico.Explicacoes[0].Recomendacao)
	assert.Equal(t, analysis.Diagnostico.Diagnosticos[0], analysis.Diagnostico.Explicacoes[0].Interpretacao)
}

func TestAnalyze_SpeciesOverride(t *testing.T) {
	svc := newTestService(false)

	ext := svc.ExtractText(catReport)
	analysis, err := svc.Analyze(context.Background(), ext, "cão")
	require.NoError(t, err)
	assert.Equal(t, domain.SpeciesDog, analysis.Classificacao.SpeciesUsed)
}

func TestAnalyze_NoMeasurements(t *testing.T) {
	svc := newTestService(false)

	_, err := svc.Analyze(context.Background(), svc.ExtractText("Paciente: Rex"), "Cão")
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestAnalyze_StrictSpecies(t *testing.T) {
	svc := newTestService(true)

	ext := svc.ExtractRows([]domain.Row{{Key: "hematocrito", Value: "40"}, {Key: "especie", Value: "Equino"}})
	_, err := svc.Analyze(context.Background(), ext, "")
	assert.True(t, domain.IsValidationError(err))

	_, err = svc.ReferenceValues(context.Background(), "Equino")
	assert.True(t, domain.IsValidationError(err))

	res, err := svc.ReferenceValues(context.Background(), "GATO")
	require.NoError(t, err)
	assert.Equal(t, domain.SpeciesCat, res.SpeciesUsed)
}

func TestAnalyze_JSONShape(t *testing.T) {
	svc := newTestService(false)

	analysis, err := svc.Analyze(context.Background(), svc.ExtractText("Hematócrito: 45,2"), "Cão")
	require.NoError(t, err)

	data, err := json.Marshal(analysis)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]interface{}{"hematocrito": 45.2}, decoded["valores"])
	assert.Equal(t, []interface{}{}, decoded["alteracoes"])
	assert.Contains(t, decoded, "diagnostico")
}

func TestExtractDocument(t *testing.T) {
	svc := newTestService(false)

	text := svc.ExtractDocument(&ingest.Document{Format: ingest.FormatText, Text: catReport})
	assert.Equal(t, domain.SpeciesCat, text.Patient.Especie)

	rows := svc.ExtractDocument(&ingest.Document{Format: ingest.FormatCSV, Rows: []domain.Row{
		{Key: "Hemácias", Value: "6,5"},
		{Key: "Espécie", Value: "Cão"},
	}})
	v, ok := rows.Measurements.Get(domain.ParamHemacias)
	require.True(t, ok)
	assert.Equal(t, 6.5, v)
	assert.Equal(t, domain.SpeciesDog, rows.Patient.Especie)
}

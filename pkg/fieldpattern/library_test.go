package fieldpattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(t *testing.T, key, text string) (string, bool) {
	t.Helper()
	rule, ok := Default().Rule(key)
	require.True(t, ok, "rule %s", key)
	m := rule.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func TestClinicalPatterns(t *testing.T) {
	tests := []struct {
		key   string
		text  string
		value string
	}{
		{"hemacias", "Hemácias: 6,5", "6,5"},
		{"hemacias", "HEMACIAS 6.5", "6.5"},
		{"hemacias", "Eritrócitos (x10⁶/µL): 7,1", "7,1"},
		{"hemoglobina", "Hemoglobina (g/dL) 15.2", "15.2"},
		{"hematocrito", "Hematócrito: 45,2", "45,2"},
		{"hematocrito", "hematocrito 38", "38"},
		{"vcm", "VCM: 70", "70"},
		{"hcm", "HCM 22,1", "22,1"},
		{"chcm", "CHCM: 33", "33"},
		{"leucocitos", "Leucócitos totais: 12000", "12000"},
		{"segmentados", "Neutrófilos segmentados 8000", "8000"},
		{"linfocitos", "Linfócitos: 2500", "2500"},
		{"monocitos", "Monocitos 400", "400"},
		{"eosinofilos", "Eosinófilos: 300", "300"},
		{"basofilos", "Basófilos 0", "0"},
		{"plaquetas", "Plaquetas: 350000", "350000"},
		{"proteina_total", "Proteína total: 7,2", "7,2"},
		{"proteina_total", "Proteínas plasmáticas totais 6.8", "6.8"},
		{"reticulocitos", "Reticulócitos (%): 0,8", "0,8"},
		{"vcm", "Volume Corpuscular Médio (VCM): 70", "70"},
		{"hcm", "Hemoglobina Corpuscular Média (HCM): 22", "22"},
		{"hcm", "Hemoglobina Corpuscular Média (HCM) (pg): 22,5", "22,5"},
		{"chcm", "Concentração de Hemoglobina Corpuscular Média (CHCM): 33", "33"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.text, func(t *testing.T) {
			got, ok := match(t, tt.key, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestHCMDoesNotMatchInsideCHCM(t *testing.T) {
	_, ok := match(t, "hcm", "CHCM: 33")
	assert.False(t, ok)

	got, ok := match(t, "hcm", "CHCM: 33\nHCM: 21")
	require.True(t, ok)
	assert.Equal(t, "21", got)
}

func TestPatientPatterns(t *testing.T) {
	tests := []struct {
		key   string
		text  string
		value string
	}{
		{"nome", "Nome: Rex", "Rex"},
		{"nome", "Paciente: Mimi", "Mimi"},
		{"nome", "Nome do animal Thor", "Thor"},
		{"tutor", "Tutor: Maria Souza", "Maria"},
		{"tutor", "Proprietário: João", "João"},
		{"raca", "Raça: Poodle", "Poodle"},
		{"idade", "Idade: 3 anos", "3 anos"},
		{"idade", "Idade 8 meses", "8 meses"},
		{"sexo", "Sexo: M", "M"},
		{"sexo", "Sexo: Fêmea", "Fêmea"},
		{"especie", "Espécie: Gato", "Gato"},
		{"especie", "Especie: cão", "cão"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.text, func(t *testing.T) {
			got, ok := match(t, tt.key, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestPatientValuesStayOnTheLabelLine(t *testing.T) {
	_, ok := match(t, "raca", "Raça:\nHemácias 6,5")
	assert.False(t, ok)
}

func TestNomeWithoutColonIsNotALabel(t *testing.T) {
	_, ok := match(t, "nome", "nome completo do exame")
	assert.False(t, ok)
}

func TestSexRejectsLongerWords(t *testing.T) {
	_, ok := match(t, "sexo", "Sexo: masculino")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	lib := Default()

	tests := []struct {
		alias string
		key   string
	}{
		{"hemacias", "hemacias"},
		{"proteina", "proteina_total"},
		{"proteina_total", "proteina_total"},
		{"nome_paciente", "nome"},
		{"nome_do_tutor", "tutor"},
		{"proprietario", "tutor"},
		{"especie", "especie"},
		{"hct", "hematocrito"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			rule, ok := lib.Resolve(tt.alias)
			require.True(t, ok)
			assert.Equal(t, tt.key, rule.Key)
		})
	}

	_, ok := lib.Resolve("glicose")
	assert.False(t, ok)
}

func TestPatternsForReturnsCopy(t *testing.T) {
	lib := Default()
	rules := lib.PatternsFor(Clinical)
	require.NotEmpty(t, rules)
	rules[0].Key = "changed"

	assert.Equal(t, "hemacias", lib.PatternsFor(Clinical)[0].Key)
	assert.Len(t, PatternsFor(Patient), 6)
}

func TestKeysAndLabels(t *testing.T) {
	lib := Default()
	keys := lib.Keys(Clinical)
	assert.Len(t, keys, 15)
	assert.Equal(t, "hemacias", keys[0])
	assert.Equal(t, "Proteína Total", lib.Label("proteina_total"))
	assert.Equal(t, "glicose", lib.Label("glicose"))
	assert.Equal(t, "patient", Patient.String())
}

func TestNewWithCustomDefinitions(t *testing.T) {
	lib := New([]Definition{{Key: "glicose", Label: "Glicose", Match: `glicose`}}, nil)

	rule, ok := lib.Rule("glicose")
	require.True(t, ok)
	m := rule.Pattern.FindStringSubmatch("Glicose (mg/dL): 95")
	require.Len(t, m, 2)
	assert.Equal(t, "95", m[1])
	assert.Empty(t, lib.PatternsFor(Patient))
}

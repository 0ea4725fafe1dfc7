package domain

import "time"

// Explanation pairs an interpretation with its recommendation
type Explanation struct {
	Interpretacao string `json:"interpretacao"`
	Recomendacao  string `json:"recomendacao"`
}

// Diagnosis summarizes the altered parameters of an analysis
type Diagnosis struct {
	Diagnosticos []string      `json:"diagnosticos"`
	Explicacoes  []Explanation `json:"explicacoes"`
}

// Alteration is one out-of-range parameter in report form
type Alteration struct {
	Parametro     string  `json:"parametro"`
	Valor         float64 `json:"valor"`
	Classificacao Status  `json:"classificacao"`
	Referencia    string  `json:"referencia"`
}

// Analysis is the complete answer for one hemogram
type Analysis struct {
	ID             string                `json:"id"`
	Paciente       PatientAttributes     `json:"paciente"`
	Valores        *Measurements         `json:"valores"`
	Diagnostico    Diagnosis             `json:"diagnostico"`
	Alteracoes     []Alteration          `json:"alteracoes"`
	Classificacao  *ClassificationResult `json:"classificacao"`
	ProcessingTime time.Duration         `json:"processing_time"`
	CreatedAt      time.Time             `json:"created_at"`
}

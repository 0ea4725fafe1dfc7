package domain

import (
	"strconv"
	"strings"
)

// Status is the position of a measurement relative to its reference range
type Status string

const (
	StatusLow    Status = "baixo"
	StatusNormal Status = "normal"
	StatusHigh   Status = "alto"
)

// IsValid reports whether s is one of the three known statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusLow, StatusNormal, StatusHigh:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ReferenceRange is the inclusive normal interval of one parameter for one species
type ReferenceRange struct {
	Parameter string  `json:"parametro" yaml:"parametro"`
	Min       float64 `json:"min" yaml:"min"`
	Max       float64 `json:"max" yaml:"max"`
	Unit      string  `json:"unidade" yaml:"unidade"`
}

// Classify places value relative to the inclusive [Min, Max] interval
func (r ReferenceRange) Classify(value float64) Status {
	switch {
	case value < r.Min:
		return StatusLow
	case value > r.Max:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Display renders the range as "min-max unit"
func (r ReferenceRange) Display() string {
	return strings.TrimSpace(formatNumber(r.Min) + "-" + formatNumber(r.Max) + " " + r.Unit)
}

// ReferenceTable is the ordered set of reference ranges of one species.
// Tables are shared between requests and must not be modified once built.
type ReferenceTable struct {
	Species string           `json:"especie" yaml:"especie"`
	Ranges  []ReferenceRange `json:"faixas" yaml:"faixas"`
}

// Lookup returns the range of a parameter
func (t *ReferenceTable) Lookup(parameter string) (ReferenceRange, bool) {
	if t == nil {
		return ReferenceRange{}, false
	}
	for _, r := range t.Ranges {
		if r.Parameter == parameter {
			return r, true
		}
	}
	return ReferenceRange{}, false
}

// IsEmpty reports whether the table holds no ranges
func (t *ReferenceTable) IsEmpty() bool {
	return t == nil || len(t.Ranges) == 0
}

// Formatted renders every range with Display, keyed by parameter
func (t *ReferenceTable) Formatted() map[string]string {
	out := make(map[string]string)
	if t == nil {
		return out
	}
	for _, r := range t.Ranges {
		out[r.Parameter] = r.Display()
	}
	return out
}

// ClassificationEntry is the classification of one measured parameter
type ClassificationEntry struct {
	Parameter  string         `json:"parametro"`
	Value      float64        `json:"valor"`
	Status     Status         `json:"status"`
	Referencia ReferenceRange `json:"referencia"`
	Alterado   bool           `json:"alterado"`
}

// InterpretationEntry describes one altered parameter
type InterpretationEntry struct {
	Parametro     string `json:"parametro"`
	TipoAlteracao string `json:"tipo_alteracao"`
	Interpretacao string `json:"interpretacao"`
	Recomendacao  string `json:"recomendacao"`
}

// ClassificationResult is the outcome of comparing measurements against a
// resolved reference table.
type ClassificationResult struct {
	Entries map[string]ClassificationEntry `json:"parametros"`
	// Altered follows the insertion order of the measurements.
	Altered []InterpretationEntry `json:"interpretacoes_individuais"`

	SpeciesUsed      string `json:"especie_utilizada"`
	RequestedSpecies string `json:"especie_informada"`
	FallbackUsed     bool   `json:"fallback_utilizado"`
	Note             string `json:"nota,omitempty"`
}

// AlteredCount returns the number of entries outside their range
func (r *ClassificationResult) AlteredCount() int {
	return len(r.Altered)
}

// LogFields returns structured logging fields for the result
func (r *ClassificationResult) LogFields() map[string]any {
	return map[string]any{
		"species_used":      r.SpeciesUsed,
		"species_requested": r.RequestedSpecies,
		"fallback_used":     r.FallbackUsed,
		"parameters":        len(r.Entries),
		"altered":           len(r.Altered),
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Clinical parameter keys recognized in hemogram reports
const (
	ParamHemacias      = "hemacias"
	ParamHemoglobina   = "hemoglobina"
	ParamHematocrito   = "hematocrito"
	ParamVCM           = "vcm"
	ParamHCM           = "hcm"
	ParamCHCM          = "chcm"
	ParamLeucocitos    = "leucocitos"
	ParamSegmentados   = "segmentados"
	ParamLinfocitos    = "linfocitos"
	ParamMonocitos     = "monocitos"
	ParamEosinofilos   = "eosinofilos"
	ParamBasofilos     = "basofilos"
	ParamPlaquetas     = "plaquetas"
	ParamProteinaTotal = "proteina_total"
	ParamReticulocitos = "reticulocitos"
)

// Patient attribute keys
const (
	AttrNome    = "nome"
	AttrTutor   = "tutor"
	AttrRaca    = "raca"
	AttrIdade   = "idade"
	AttrSexo    = "sexo"
	AttrEspecie = "especie"
)

// Canonical species and sex labels
const (
	SpeciesDog = "Cão"
	SpeciesCat = "Gato"

	SexMale   = "Macho"
	SexFemale = "Fêmea"
)

// Row is one labeled key/value cell from a tabular source, e.g. one CSV column
// of one record.
type Row struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Measurements is an insertion-ordered map of clinical parameter values.
// The zero value is ready to use. The first value stored for a key wins.
type Measurements struct {
	keys   []string
	values map[string]float64
}

// NewMeasurements creates an empty measurement map
func NewMeasurements() *Measurements {
	return &Measurements{values: make(map[string]float64)}
}

// Set stores value under key unless the key already holds a value or the value
// is negative or not finite. It reports whether the value was stored.
func (m *Measurements) Set(key string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return false
	}
	if m.values == nil {
		m.values = make(map[string]float64)
	}
	if _, exists := m.values[key]; exists {
		return false
	}
	m.keys = append(m.keys, key)
	m.values[key] = value
	return true
}

// Get returns the value stored under key
func (m *Measurements) Get(key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the parameter keys in insertion order
func (m *Measurements) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of stored parameters
func (m *Measurements) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Map returns an unordered copy of the values
func (m *Measurements) Map() map[string]float64 {
	out := make(map[string]float64, m.Len())
	if m == nil {
		return out
	}
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON writes the measurements as a JSON object in insertion order.
func (m *Measurements) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object preserving key order. Values that are not
// numbers are rejected.
func (m *Measurements) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("measurements must be a JSON object")
	}
	*m = Measurements{values: make(map[string]float64)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("measurement %q: %w", key, err)
		}
		f, err := num.Float64()
		if err != nil {
			return fmt.Errorf("measurement %q: %w", key, err)
		}
		m.Set(key, f)
	}
	_, err = dec.Token()
	return err
}

// PatientAttributes holds the normalized patient metadata found in a report.
// Every field is optional.
type PatientAttributes struct {
	Nome    string `json:"nome,omitempty"`
	Tutor   string `json:"tutor,omitempty"`
	Raca    string `json:"raca,omitempty"`
	Idade   string `json:"idade,omitempty"`
	Sexo    string `json:"sexo,omitempty"`
	Especie string `json:"especie,omitempty"`
}

// Get returns the attribute stored under key
func (p *PatientAttributes) Get(key string) string {
	switch key {
	case AttrNome:
		return p.Nome
	case AttrTutor:
		return p.Tutor
	case AttrRaca:
		return p.Raca
	case AttrIdade:
		return p.Idade
	case AttrSexo:
		return p.Sexo
	case AttrEspecie:
		return p.Especie
	}
	return ""
}

// SetOnce stores value under key if the attribute is still empty and value is
// not. It reports whether the value was stored.
func (p *PatientAttributes) SetOnce(key, value string) bool {
	if value == "" || p.Get(key) != "" {
		return false
	}
	switch key {
	case AttrNome:
		p.Nome = value
	case AttrTutor:
		p.Tutor = value
	case AttrRaca:
		p.Raca = value
	case AttrIdade:
		p.Idade = value
	case AttrSexo:
		p.Sexo = value
	case AttrEspecie:
		p.Especie = value
	default:
		return false
	}
	return true
}

// Map returns the non-empty attributes keyed by attribute name
func (p *PatientAttributes) Map() map[string]string {
	out := make(map[string]string)
	for _, key := range []string{AttrNome, AttrTutor, AttrRaca, AttrIdade, AttrSexo, AttrEspecie} {
		if v := p.Get(key); v != "" {
			out[key] = v
		}
	}
	return out
}

// Extraction is the output of one extraction pass over a document or row set.
type Extraction struct {
	Measurements *Measurements     `json:"measurements"`
	Patient      PatientAttributes `json:"patient"`
	// RawPatient keeps the captured attribute text before normalization.
	RawPatient map[string]string `json:"raw_patient,omitempty"`
}

// NewExtraction creates an empty extraction result
func NewExtraction() *Extraction {
	return &Extraction{
		Measurements: NewMeasurements(),
		RawPatient:   make(map[string]string),
	}
}

// Package extractor turns hemogram reports into measurements and patient
// attributes. It reads free text (as produced by PDF text extraction) and
// labeled rows (as produced by spreadsheet exports). Fields that cannot be
// read are left out of the result; extraction itself never fails.
package extractor

import (
	"strings"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/pkg/fieldpattern"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// Extractor applies a field pattern library. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	lib *fieldpattern.Library
}

// New creates an extractor over lib. A nil lib selects the built-in library.
func New(lib *fieldpattern.Library) *Extractor {
	if lib == nil {
		lib = fieldpattern.Default()
	}
	return &Extractor{lib: lib}
}

var defaultExtractor = New(nil)

// FromText extracts from text with the built-in library
func FromText(text string) *domain.Extraction {
	return defaultExtractor.FromText(text)
}

// FromRows extracts from rows with the built-in library
func FromRows(rows []domain.Row) *domain.Extraction {
	return defaultExtractor.FromRows(rows)
}

// setAttribute normalizes raw for key and stores it unless the attribute is
// already set. The raw text is kept alongside the first stored value.
func setAttribute(out *domain.Extraction, key, raw string) bool {
	if strings.TrimSpace(raw) == "" || out.Patient.Get(key) != "" {
		return false
	}
	value, ok := normalizeAttribute(key, raw)
	if !ok || !out.Patient.SetOnce(key, value) {
		return false
	}
	out.RawPatient[key] = raw
	return true
}

func normalizeAttribute(key, raw string) (string, bool) {
	switch key {
	case domain.AttrNome, domain.AttrTutor, domain.AttrRaca:
		v := normalize.FreeText(raw)
		return v, v != ""
	case domain.AttrIdade:
		v := normalize.Age(raw)
		return v, v != ""
	case domain.AttrSexo:
		return normalize.Sex(raw)
	case domain.AttrEspecie:
		// unrecognized species pass through as written
		v, _ := normalize.Species(raw)
		return v, true
	default:
		return "", false
	}
}

package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical species and sex labels
const (
	Dog    = "Cão"
	Cat    = "Gato"
	Male   = "Macho"
	Female = "Fêmea"
)

// speciesTable maps the spellings seen in reports to a canonical species.
var speciesTable = map[string]string{
	"Cão":      Dog,
	"Cao":      Dog,
	"cao":      Dog,
	"cão":      Dog,
	"CÃO":      Dog,
	"CAO":      Dog,
	"canino":   Dog,
	"canina":   Dog,
	"cachorro": Dog,
	"Gato":     Cat,
	"gato":     Cat,
	"GATO":     Cat,
	"felino":   Cat,
	"felina":   Cat,
}

// legacySpecies lists corrupted spellings produced by known historical
// encoding bugs that Canonical cannot repair by itself. It is a compatibility
// shim; new variants belong in Canonical, not here.
var legacySpecies = map[string]string{
	"CÃ£o":     Dog,
	"CÃƒÂ£o":   Dog,
	"cÃ£o":     Dog,
	"C\uFFFDo": Dog,
	"c\uFFFDo": Dog,
	"C?o":      Dog,
	"c?o":      Dog,
}

// Species returns the canonical label for raw and whether it was recognized.
// Lookup runs on the canonical form, first exactly, then lower-cased. An
// unrecognized value is returned unchanged with ok=false, so callers must not
// assume the result is one of Dog or Cat.
func Species(raw string) (string, bool) {
	if v, ok := legacySpecies[raw]; ok {
		return v, true
	}
	s := Canonical(raw)
	if v, ok := legacySpecies[s]; ok {
		return v, true
	}
	if v, ok := speciesTable[s]; ok {
		return v, true
	}
	if v, ok := speciesTable[strings.ToLower(s)]; ok {
		return v, true
	}
	return raw, false
}

// IsKnownSpecies reports whether raw normalizes to a canonical species
func IsKnownSpecies(raw string) bool {
	_, ok := Species(raw)
	return ok
}

// Sex returns "Macho" or "Fêmea" for the recognized spellings and ok=false for
// anything else. Matching is case-insensitive.
func Sex(raw string) (string, bool) {
	switch strings.ToLower(Canonical(raw)) {
	case "m", "macho":
		return Male, true
	case "f", "fêmea", "femea":
		return Female, true
	default:
		return "", false
	}
}

// FreeText trims raw, collapses inner whitespace and converts it to title case.
// It is used for names, guardians and breeds.
func FreeText(raw string) string {
	s := collapseSpaces(Canonical(raw))
	if s == "" {
		return ""
	}
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.BrazilianPortuguese).String(s)
}

// Age trims raw and collapses inner whitespace. Ages are free-form ("3 anos",
// "8 meses") and kept as written.
func Age(raw string) string {
	return collapseSpaces(Canonical(raw))
}

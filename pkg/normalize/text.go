// Package normalize canonicalizes the categorical and free-text attributes that
// appear in hemogram reports: species, sex, names and breeds, and the column
// labels of tabular exports. Inputs arrive in any casing and frequently with
// broken encodings, so every lookup starts from one canonical text form.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxRepairPasses bounds how many layers of double encoding are undone
const maxRepairPasses = 3

// Canonical trims s, undoes UTF-8 text that was decoded as Windows-1252
// (one or more times), and composes it to NFC.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = RepairMojibake(s)
	return norm.NFC.String(s)
}

// RepairMojibake reverses UTF-8 bytes that were decoded as Windows-1252, as in
// "CÃ£o" for "Cão". A pass is applied only when re-encoding produces valid
// UTF-8 that differs from the input, so clean text is returned untouched.
func RepairMojibake(s string) string {
	for i := 0; i < maxRepairPasses; i++ {
		if !strings.ContainsAny(s, "ÃÂÅï") {
			return s
		}
		raw, err := charmap.Windows1252.NewEncoder().String(s)
		if err != nil || raw == s || !utf8.ValidString(raw) {
			return s
		}
		s = raw
	}
	return s
}

// FoldKey turns a column label into a lookup key: canonical, lower-cased,
// stripped of diacritics, with runs of spaces, hyphens and dots replaced by a
// single underscore. "Proteína Total" becomes "proteina_total".
func FoldKey(s string) string {
	s = strings.ToLower(Canonical(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == '/'
	})
	return strings.Join(fields, "_")
}

// collapseSpaces joins the whitespace-separated fields of s with single spaces
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

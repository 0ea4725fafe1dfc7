package extractor

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/pkg/fieldpattern"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// FromText scans text once per rule and keeps the first match of each field.
// Clinical values that do not parse as non-negative numbers are dropped.
func (e *Extractor) FromText(text string) *domain.Extraction {
	out := domain.NewExtraction()
	text = prepareText(text)
	if text == "" {
		return out
	}

	for _, rule := range e.lib.PatternsFor(fieldpattern.Clinical) {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := ParseNumber(m[1]); ok {
			out.Measurements.Set(rule.Key, v)
		}
	}

	for _, rule := range e.lib.PatternsFor(fieldpattern.Patient) {
		m := rule.Pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		setAttribute(out, rule.Key, m[1])
	}

	return out
}

// prepareText repairs mis-decoded lines, lower-cases the text once and
// composes it to NFC so that decomposed accents match the pattern classes.
// Patterns stay case-insensitive for letters ToLower leaves alone.
func prepareText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = normalize.RepairMojibake(strings.TrimRight(line, "\r"))
	}
	return norm.NFC.String(strings.ToLower(strings.Join(lines, "\n")))
}

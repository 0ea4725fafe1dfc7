package extractor

import (
	"strings"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/pkg/fieldpattern"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// FromRows maps labeled values onto fields by folded label. Unknown labels
// are ignored, and empty values are treated as absent rather than zero.
func (e *Extractor) FromRows(rows []domain.Row) *domain.Extraction {
	out := domain.NewExtraction()

	for _, row := range rows {
		value := strings.TrimSpace(row.Value)
		if value == "" {
			continue
		}
		rule, ok := e.lib.Resolve(normalize.FoldKey(row.Key))
		if !ok {
			continue
		}

		switch rule.Kind {
		case fieldpattern.Clinical:
			if v, ok := ParseNumber(value); ok {
				out.Measurements.Set(rule.Key, v)
			}
		case fieldpattern.Patient:
			setAttribute(out, rule.Key, value)
		}
	}

	return out
}

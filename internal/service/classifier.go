package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/pkg/fieldpattern"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// Directions of an altered parameter as shown to the user
const (
	AlterationIncreased = "aumentado"
	AlterationDecreased = "diminuído"
)

// clinicalHint names the usual single-parameter finding for each direction.
// An empty hint means the direction has no specific name.
type clinicalHint struct {
	low  string
	high string
}

var clinicalHints = map[string]clinicalHint{
	domain.ParamHemacias:      {low: "anemia", high: "policitemia"},
	domain.ParamHemoglobina:   {low: "anemia", high: "hemoconcentração"},
	domain.ParamHematocrito:   {low: "anemia", high: "desidratação ou policitemia"},
	domain.ParamVCM:           {low: "microcitose", high: "macrocitose"},
	domain.ParamHCM:           {low: "hipocromia"},
	domain.ParamCHCM:          {low: "hipocromia", high: "hemólise ou lipemia"},
	domain.ParamLeucocitos:    {low: "leucopenia", high: "leucocitose"},
	domain.ParamSegmentados:   {low: "neutropenia", high: "neutrofilia"},
	domain.ParamLinfocitos:    {low: "linfopenia", high: "linfocitose"},
	domain.ParamMonocitos:     {low: "monocitopenia", high: "monocitose"},
	domain.ParamEosinofilos:   {low: "eosinopenia", high: "eosinofilia"},
	domain.ParamBasofilos:     {high: "basofilia"},
	domain.ParamPlaquetas:     {low: "trombocitopenia", high: "trombocitose"},
	domain.ParamProteinaTotal: {low: "hipoproteinemia", high: "hiperproteinemia"},
	domain.ParamReticulocitos: {high: "resposta regenerativa"},
}

// Classifier compares measurements with the reference table of a species
type Classifier struct {
	resolver *ReferenceResolver
	labels   *fieldpattern.Library
	logger   *logrus.Logger
}

// NewClassifier creates a classifier that resolves tables with resolver
func NewClassifier(resolver *ReferenceResolver, logger *logrus.Logger) *Classifier {
	return &Classifier{
		resolver: resolver,
		labels:   fieldpattern.Default(),
		logger:   logger,
	}
}

// Classify grades every measured parameter that has a reference range.
// Parameters without a measurement are left out, as are measurements without
// a range. Altered parameters are listed in measurement order. Aliases such
// as "proteina" are graded under their canonical key.
func (c *Classifier) Classify(ctx context.Context, measurements *domain.Measurements, speciesLabel string) (*domain.ClassificationResult, error) {
	measurements = c.canonicalKeys(measurements)

	res, err := c.resolver.Resolve(ctx, speciesLabel)
	if err != nil {
		return nil, err
	}

	result := &domain.ClassificationResult{
		Entries:          make(map[string]domain.ClassificationEntry),
		Altered:          []domain.InterpretationEntry{},
		SpeciesUsed:      res.SpeciesUsed,
		RequestedSpecies: res.RequestedSpecies,
		FallbackUsed:     res.FallbackUsed,
		Note:             res.Note,
	}

	for _, r := range res.Table.Ranges {
		value, ok := measurements.Get(r.Parameter)
		if !ok {
			continue
		}
		status := r.Classify(value)
		result.Entries[r.Parameter] = domain.ClassificationEntry{
			Parameter:  r.Parameter,
			Value:      value,
			Status:     status,
			Referencia: r,
			Alterado:   status != domain.StatusNormal,
		}
	}

	for _, key := range measurements.Keys() {
		entry, ok := result.Entries[key]
		if !ok || !entry.Alterado {
			continue
		}
		result.Altered = append(result.Altered, c.interpret(entry))
	}

	c.logger.WithFields(logrus.Fields(result.LogFields())).Info("Hemogram classified")
	return result, nil
}

// canonicalKeys renames clinical aliases to their canonical key. The first
// value stored under a canonical key wins.
func (c *Classifier) canonicalKeys(m *domain.Measurements) *domain.Measurements {
	out := domain.NewMeasurements()
	for _, key := range m.Keys() {
		value, _ := m.Get(key)
		if rule, ok := c.labels.Resolve(normalize.FoldKey(key)); ok && rule.Kind == fieldpattern.Clinical {
			key = rule.Key
		}
		out.Set(key, value)
	}
	return out
}

func (c *Classifier) interpret(entry domain.ClassificationEntry) domain.InterpretationEntry {
	label := c.labels.Label(entry.Parameter)
	direction, hint := AlterationIncreased, clinicalHints[entry.Parameter].high
	if entry.Status == domain.StatusLow {
		direction, hint = AlterationDecreased, clinicalHints[entry.Parameter].low
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s %s (%s; referência %s)", label, direction,
		strings.TrimSpace(formatValue(entry.Value)+" "+entry.Referencia.Unit), entry.Referencia.Display())
	if hint != "" {
		fmt.Fprintf(&text, ", compatível com %s", hint)
	}
	text.WriteString(".")

	return domain.InterpretationEntry{
		Parametro:     label,
		TipoAlteracao: direction,
		Interpretacao: text.String(),
		Recomendacao:  Recommendation(label, direction),
	}
}

// Recommendation renders the follow-up line of an altered parameter
func Recommendation(parameter, alteration string) string {
	return fmt.Sprintf("Monitorar %s - %s", parameter, alteration)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/service"
	"github.com/analisavet/hemogram-server/pkg/fieldpattern"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// MetadataExtractHemogramText describes the extract_hemogram_text tool.
var MetadataExtractHemogramText = &mcp.Tool{
	Name: "extract_hemogram_text",
	Description: "Extract clinical values and patient data from the text of a veterinary " +
		"hemogram report (Portuguese labels). Decimal commas and mis-encoded accents are accepted. " +
		"Returns the measurements found, in report order, and the normalized patient attributes.",
}

// MetadataExtractHemogramRows describes the extract_hemogram_rows tool.
var MetadataExtractHemogramRows = &mcp.Tool{
	Name: "extract_hemogram_rows",
	Description: "Extract clinical values and patient data from labeled values, such as the " +
		"header and cells of a spreadsheet export. Unknown labels and empty values are ignored.",
}

// MetadataClassifyHemogram describes the classify_hemogram tool.
var MetadataClassifyHemogram = &mcp.Tool{
	Name: "classify_hemogram",
	Description: "Classify hemogram measurements as baixo, normal or alto against the reference " +
		"ranges of a species (Cão or Gato). Unrecognized species fall back to Cão and the result " +
		"says so. Altered parameters come with an interpretation and a recommendation.",
}

// MetadataGetReferenceValues describes the get_reference_values tool.
var MetadataGetReferenceValues = &mcp.Tool{
	Name:        "get_reference_values",
	Description: "Return the reference ranges of a species, formatted as \"min-max unit\" per parameter.",
}

// ExtractTextInput is the input of extract_hemogram_text
type ExtractTextInput struct {
	Text string `json:"text" jsonschema:"full text of the hemogram report"`
}

// ExtractRowsInput is the input of extract_hemogram_rows
type ExtractRowsInput struct {
	Rows []domain.Row `json:"rows" jsonschema:"labeled values, one per cell"`
}

// ExtractionOutput is the output of both extraction tools
type ExtractionOutput struct {
	Measurements map[string]float64 `json:"measurements"`
	// Order lists the measurement keys in the order they were found
	Order      []string                 `json:"order"`
	Patient    domain.PatientAttributes `json:"patient"`
	RawPatient map[string]string        `json:"raw_patient,omitempty"`
}

// ClassifyInput is the input of classify_hemogram
type ClassifyInput struct {
	Measurements map[string]float64 `json:"measurements" jsonschema:"values keyed by parameter, e.g. hematocrito"`
	Species      string             `json:"species,omitempty" jsonschema:"species label, e.g. Cão or Gato; defaults to Cão"`
}

// ClassifyOutput is the output of classify_hemogram
type ClassifyOutput struct {
	SpeciesUsed      string                       `json:"species_used"`
	RequestedSpecies string                       `json:"requested_species"`
	FallbackUsed     bool                         `json:"fallback_used"`
	Note             string                       `json:"note,omitempty"`
	Parameters       []domain.ClassificationEntry `json:"parameters"`
	Interpretations  []domain.InterpretationEntry `json:"interpretations"`
}

// GetReferenceValuesInput is the input of get_reference_values
type GetReferenceValuesInput struct {
	Species string `json:"species" jsonschema:"species label, e.g. Cão or Gato"`
}

// GetReferenceValuesOutput is the output of get_reference_values
type GetReferenceValuesOutput struct {
	SpeciesUsed  string                  `json:"species_used"`
	FallbackUsed bool                    `json:"fallback_used"`
	Note         string                  `json:"note,omitempty"`
	Values       map[string]string       `json:"values"`
	Ranges       []domain.ReferenceRange `json:"ranges"`
}

type toolHandlers struct {
	service *service.HemogramService
	logger  *logrus.Logger
}

// ExtractHemogramText runs text extraction
func (h *toolHandlers) ExtractHemogramText(ctx context.Context, _ *mcp.CallToolRequest, input ExtractTextInput) (*mcp.CallToolResult, ExtractionOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, ExtractionOutput{}, fmt.Errorf("text is required")
	}
	h.logTool(ctx, MetadataExtractHemogramText.Name)
	return nil, toExtractionOutput(h.service.ExtractText(input.Text)), nil
}

// ExtractHemogramRows runs row extraction
func (h *toolHandlers) ExtractHemogramRows(ctx context.Context, _ *mcp.CallToolRequest, input ExtractRowsInput) (*mcp.CallToolResult, ExtractionOutput, error) {
	if len(input.Rows) == 0 {
		return nil, ExtractionOutput{}, fmt.Errorf("rows are required")
	}
	h.logTool(ctx, MetadataExtractHemogramRows.Name)
	return nil, toExtractionOutput(h.service.ExtractRows(input.Rows)), nil
}

// ClassifyHemogram grades measurements against a species table
func (h *toolHandlers) ClassifyHemogram(ctx context.Context, _ *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
	if len(input.Measurements) == 0 {
		return nil, ClassifyOutput{}, fmt.Errorf("measurements are required")
	}
	h.logTool(ctx, MetadataClassifyHemogram.Name)

	measurements := orderedMeasurements(input.Measurements)
	result, err := h.service.Classify(ctx, measurements, input.Species)
	if err != nil {
		return nil, ClassifyOutput{}, toolError(err)
	}

	out := ClassifyOutput{
		SpeciesUsed:      result.SpeciesUsed,
		RequestedSpecies: result.RequestedSpecies,
		FallbackUsed:     result.FallbackUsed,
		Note:             result.Note,
		Parameters:       make([]domain.ClassificationEntry, 0, len(result.Entries)),
		Interpretations:  append([]domain.InterpretationEntry{}, result.Altered...),
	}
	for _, key := range measurements.Keys() {
		if entry, ok := result.Entries[key]; ok {
			out.Parameters = append(out.Parameters, entry)
		}
	}
	return nil, out, nil
}

// GetReferenceValues resolves the table of a species
func (h *toolHandlers) GetReferenceValues(ctx context.Context, _ *mcp.CallToolRequest, input GetReferenceValuesInput) (*mcp.CallToolResult, GetReferenceValuesOutput, error) {
	if strings.TrimSpace(input.Species) == "" {
		return nil, GetReferenceValuesOutput{}, fmt.Errorf("species is required")
	}
	h.logTool(ctx, MetadataGetReferenceValues.Name)

	res, err := h.service.ReferenceValues(ctx, input.Species)
	if err != nil {
		return nil, GetReferenceValuesOutput{}, toolError(err)
	}
	return nil, GetReferenceValuesOutput{
		SpeciesUsed:  res.SpeciesUsed,
		FallbackUsed: res.FallbackUsed,
		Note:         res.Note,
		Values:       res.Table.Formatted(),
		Ranges:       append([]domain.ReferenceRange{}, res.Table.Ranges...),
	}, nil
}

func (h *toolHandlers) logTool(ctx context.Context, name string) {
	h.logger.WithField("tool", name).Info("Tool invoked")
}

func toExtractionOutput(ext *domain.Extraction) ExtractionOutput {
	return ExtractionOutput{
		Measurements: ext.Measurements.Map(),
		Order:        append([]string{}, ext.Measurements.Keys()...),
		Patient:      ext.Patient,
		RawPatient:   ext.RawPatient,
	}
}

// orderedMeasurements arranges map input in report order: known parameters
// first, in their usual sequence, then any others alphabetically. Aliases
// such as "proteina" are stored under their canonical key unless the input
// also carries that key.
func orderedMeasurements(values map[string]float64) *domain.Measurements {
	lib := fieldpattern.Default()

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	canonical := make(map[string]float64, len(values))
	for _, key := range keys {
		name := key
		if rule, ok := lib.Resolve(normalize.FoldKey(key)); ok && rule.Kind == fieldpattern.Clinical {
			name = rule.Key
		}
		if _, taken := canonical[name]; taken && name != key {
			continue
		}
		canonical[name] = values[key]
	}

	m := domain.NewMeasurements()
	for _, key := range lib.Keys(fieldpattern.Clinical) {
		if v, ok := canonical[key]; ok {
			m.Set(key, v)
		}
	}
	rest := make([]string, 0, len(canonical))
	for key := range canonical {
		if _, ok := m.Get(key); !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		m.Set(key, canonical[key])
	}
	return m
}

// toolError keeps validation messages and hides internal failures
func toolError(err error) error {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fmt.Errorf("%s: %v", validationErr.Message, validationErr.Value)
	case errors.Is(err, domain.ErrReferenceUnavailable):
		return fmt.Errorf("reference ranges unavailable")
	default:
		return err
	}
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding resource: %w", err)
	}
	return string(data), nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/extractor"
	"github.com/analisavet/hemogram-server/internal/ingest"
)

// HemogramService runs extraction and classification for the HTTP, MCP and
// command line front ends.
type HemogramService struct {
	extractor     *extractor.Extractor
	classifier    *Classifier
	resolver      *ReferenceResolver
	strictSpecies bool
	logger        *logrus.Logger
}

// HemogramServiceConfig holds the options of a HemogramService
type HemogramServiceConfig struct {
	DefaultSpecies string
	// StrictSpecies rejects unrecognized species instead of falling back
	StrictSpecies bool
}

// NewHemogramService wires the engine over a reference source
func NewHemogramService(source domain.ReferenceSource, config HemogramServiceConfig, logger *logrus.Logger) *HemogramService {
	resolver := NewReferenceResolver(source, config.DefaultSpecies, logger)
	return &HemogramService{
		extractor:     extractor.New(nil),
		classifier:    NewClassifier(resolver, logger),
		resolver:      resolver,
		strictSpecies: config.StrictSpecies,
		logger:        logger,
	}
}

// ExtractText extracts measurements and patient data from report text
func (s *HemogramService) ExtractText(text string) *domain.Extraction {
	ext := s.extractor.FromText(text)
	s.logExtraction("text", ext)
	return ext
}

// ExtractRows extracts measurements and patient data from labeled values
func (s *HemogramService) ExtractRows(rows []domain.Row) *domain.Extraction {
	ext := s.extractor.FromRows(rows)
	s.logExtraction("rows", ext)
	return ext
}

// ExtractDocument extracts from an ingested file, by rows for tabular
// formats and by text otherwise
func (s *HemogramService) ExtractDocument(doc *ingest.Document) *domain.Extraction {
	if doc.Rows != nil {
		return s.ExtractRows(doc.Rows)
	}
	return s.ExtractText(doc.Text)
}

// Classify grades measurements against the table of speciesLabel
func (s *HemogramService) Classify(ctx context.Context, measurements *domain.Measurements, speciesLabel string) (*domain.ClassificationResult, error) {
	result, err := s.classifier.Classify(ctx, measurements, speciesLabel)
	if err != nil {
		return nil, err
	}
	if s.strictSpecies && result.FallbackUsed {
		return nil, domain.NewValidationError(domain.AttrEspecie, "species not recognized", speciesLabel)
	}
	return result, nil
}

// ReferenceValues resolves the reference table of speciesLabel
func (s *HemogramService) ReferenceValues(ctx context.Context, speciesLabel string) (*Resolution, error) {
	res, err := s.resolver.Resolve(ctx, speciesLabel)
	if err != nil {
		return nil, err
	}
	if s.strictSpecies && res.FallbackUsed {
		return nil, domain.NewValidationError(domain.AttrEspecie, "species not recognized", speciesLabel)
	}
	return res, nil
}

// Analyze classifies an extraction. speciesOverride, when not blank, takes
// precedence over the species found in the document.
func (s *HemogramService) Analyze(ctx context.Context, ext *domain.Extraction, speciesOverride string) (*domain.Analysis, error) {
	start := time.Now()
	if ext.Measurements.Len() == 0 {
		return nil, domain.ErrEmptyDocument
	}

	species := ext.Patient.Especie
	if strings.TrimSpace(speciesOverride) != "" {
		species = speciesOverride
	}

	result, err := s.Classify(ctx, ext.Measurements, species)
	if err != nil {
		return nil, err
	}

	analysis := &domain.Analysis{
		ID:            uuid.New().String(),
		Paciente:      ext.Patient,
		Valores:       ext.Measurements,
		Diagnostico:   diagnosisOf(result),
		Alteracoes:    alterationsOf(ext.Measurements, result),
		Classificacao: result,
		CreatedAt:     time.Now().UTC(),
	}
	analysis.ProcessingTime = time.Since(start)

	s.logger.WithFields(logrus.Fields{
		"analysis_id":     analysis.ID,
		"species_used":    result.SpeciesUsed,
		"fallback_used":   result.FallbackUsed,
		"altered":         result.AlteredCount(),
		"processing_time": analysis.ProcessingTime,
	}).Info("Hemogram analysis completed")

	return analysis, nil
}

func diagnosisOf(result *domain.ClassificationResult) domain.Diagnosis {
	d := domain.Diagnosis{
		Diagnosticos: make([]string, 0, len(result.Altered)),
		Explicacoes:  make([]domain.Explanation, 0, len(result.Altered)),
	}
	for _, a := range result.Altered {
		d.Diagnosticos = append(d.Diagnosticos, a.Interpretacao)
		d.Explicacoes = append(d.Explicacoes, domain.Explanation{
			Interpretacao: a.Interpretacao,
			Recomendacao:  a.Recomendacao,
		})
	}
	return d
}

func alterationsOf(m *domain.Measurements, result *domain.ClassificationResult) []domain.Alteration {
	out := []domain.Alteration{}
	for _, key := range m.Keys() {
		entry, ok := result.Entries[key]
		if !ok || !entry.Alterado {
			continue
		}
		out = append(out, domain.Alteration{
			Parametro:     key,
			Valor:         entry.Value,
			Classificacao: entry.Status,
			Referencia:    entry.Referencia.Display(),
		})
	}
	return out
}

func (s *HemogramService) logExtraction(mode string, ext *domain.Extraction) {
	s.logger.WithFields(logrus.Fields{
		"mode":         mode,
		"measurements": ext.Measurements.Len(),
		"attributes":   len(ext.Patient.Map()),
		"species":      ext.Patient.Especie,
	}).Debug("Hemogram extracted")
}

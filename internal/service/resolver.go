package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/pkg/normalize"
)

// Resolution is the reference table chosen for a requested species
type Resolution struct {
	Table            *domain.ReferenceTable
	RequestedSpecies string
	SpeciesUsed      string
	FallbackUsed     bool
	Note             string
}

// ReferenceResolver maps a species label, as written in a report or request,
// to a reference table. Unknown species resolve to the default species with
// FallbackUsed set.
type ReferenceResolver struct {
	source         domain.ReferenceSource
	defaultSpecies string
	logger         *logrus.Logger
}

// NewReferenceResolver creates a resolver over source. An empty
// defaultSpecies selects "Cão".
func NewReferenceResolver(source domain.ReferenceSource, defaultSpecies string, logger *logrus.Logger) *ReferenceResolver {
	if defaultSpecies == "" {
		defaultSpecies = domain.SpeciesDog
	}
	return &ReferenceResolver{
		source:         source,
		defaultSpecies: defaultSpecies,
		logger:         logger,
	}
}

// DefaultSpecies returns the fallback species
func (r *ReferenceResolver) DefaultSpecies() string {
	return r.defaultSpecies
}

// Resolve finds the table for raw. It tries the normalized label, then the
// lower-cased raw label, then the default species. Only a missing or empty
// default table is an error, reported as domain.ErrReferenceUnavailable.
func (r *ReferenceResolver) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	label, _ := normalize.Species(raw)

	candidates := []string{label}
	if lower := strings.ToLower(raw); lower != label {
		candidates = append(candidates, lower)
	}

	for _, species := range candidates {
		if strings.TrimSpace(species) == "" {
			continue
		}
		table, err := r.lookup(ctx, species)
		if err == nil {
			return &Resolution{
				Table:            table,
				RequestedSpecies: raw,
				SpeciesUsed:      table.Species,
			}, nil
		}
		if !errors.Is(err, domain.ErrSpeciesNotFound) {
			r.logger.WithError(err).WithField("species", species).Warn("Reference lookup failed, trying default species")
		}
	}

	table, err := r.lookup(ctx, r.defaultSpecies)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"requested_species": raw,
			"default_species":   r.defaultSpecies,
		}).Error("Default reference table unavailable")
		return nil, fmt.Errorf("%w: default species %q: %v", domain.ErrReferenceUnavailable, r.defaultSpecies, err)
	}

	r.logger.WithFields(logrus.Fields{
		"requested_species": raw,
		"species_used":      table.Species,
	}).Info("Species not recognized, using default reference table")

	return &Resolution{
		Table:            table,
		RequestedSpecies: raw,
		SpeciesUsed:      table.Species,
		FallbackUsed:     true,
		Note:             fallbackNote(raw, table.Species),
	}, nil
}

func (r *ReferenceResolver) lookup(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	table, err := r.source.ReferenceTable(ctx, species)
	if err != nil {
		return nil, err
	}
	if table.IsEmpty() {
		return nil, fmt.Errorf("%w: empty table for %q", domain.ErrSpeciesNotFound, species)
	}
	return table, nil
}

func fallbackNote(raw, used string) string {
	if strings.TrimSpace(raw) == "" {
		return fmt.Sprintf("Espécie não informada. Usando valores padrão para %s.", used)
	}
	return fmt.Sprintf("Espécie não reconhecida: \"%s\". Usando valores padrão para %s.", raw, used)
}

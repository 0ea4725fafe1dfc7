// Package reference provides species reference ranges from the built-in
// tables, YAML files, SQLite or PostgreSQL, with caching and circuit
// breaking layered on top of any source.
package reference

import (
	"context"
	"fmt"
	"sort"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// Units shared by both species
const (
	unitMillionsPerUL = "x10⁶/µL"
	unitGramsPerDL    = "g/dL"
	unitPercent       = "%"
	unitFemtoliters   = "fL"
	unitPicograms     = "pg"
	unitCellsPerUL    = "/µL"
)

// BuiltinTables returns fresh copies of the canine and feline tables
func BuiltinTables() []*domain.ReferenceTable {
	return []*domain.ReferenceTable{
		{
			Species: domain.SpeciesDog,
			Ranges: []domain.ReferenceRange{
				{Parameter: domain.ParamHemacias, Min: 5.5, Max: 8.5, Unit: unitMillionsPerUL},
				{Parameter: domain.ParamHemoglobina, Min: 12, Max: 18, Unit: unitGramsPerDL},
				{Parameter: domain.ParamHematocrito, Min: 37, Max: 55, Unit: unitPercent},
				{Parameter: domain.ParamVCM, Min: 60, Max: 77, Unit: unitFemtoliters},
				{Parameter: domain.ParamHCM, Min: 19.5, Max: 24.5, Unit: unitPicograms},
				{Parameter: domain.ParamCHCM, Min: 32, Max: 36, Unit: unitGramsPerDL},
				{Parameter: domain.ParamLeucocitos, Min: 6000, Max: 17000, Unit: unitCellsPerUL},
				{Parameter: domain.ParamSegmentados, Min: 3000, Max: 11500, Unit: unitCellsPerUL},
				{Parameter: domain.ParamLinfocitos, Min: 1000, Max: 4800, Unit: unitCellsPerUL},
				{Parameter: domain.ParamMonocitos, Min: 150, Max: 1350, Unit: unitCellsPerUL},
				{Parameter: domain.ParamEosinofilos, Min: 100, Max: 1250, Unit: unitCellsPerUL},
				{Parameter: domain.ParamBasofilos, Min: 0, Max: 100, Unit: unitCellsPerUL},
				{Parameter: domain.ParamPlaquetas, Min: 200000, Max: 500000, Unit: unitCellsPerUL},
				{Parameter: domain.ParamProteinaTotal, Min: 6.0, Max: 8.0, Unit: unitGramsPerDL},
				{Parameter: domain.ParamReticulocitos, Min: 0, Max: 1.5, Unit: unitPercent},
			},
		},
		{
			Species: domain.SpeciesCat,
			Ranges: []domain.ReferenceRange{
				{Parameter: domain.ParamHemacias, Min: 5, Max: 10, Unit: unitMillionsPerUL},
				{Parameter: domain.ParamHemoglobina, Min: 8, Max: 15, Unit: unitGramsPerDL},
				{Parameter: domain.ParamHematocrito, Min: 24, Max: 45, Unit: unitPercent},
				{Parameter: domain.ParamVCM, Min: 39, Max: 55, Unit: unitFemtoliters},
				{Parameter: domain.ParamHCM, Min: 12.5, Max: 17.5, Unit: unitPicograms},
				{Parameter: domain.ParamCHCM, Min: 30, Max: 36, Unit: unitGramsPerDL},
				{Parameter: domain.ParamLeucocitos, Min: 5500, Max: 19500, Unit: unitCellsPerUL},
				{Parameter: domain.ParamSegmentados, Min: 2500, Max: 12500, Unit: unitCellsPerUL},
				{Parameter: domain.ParamLinfocitos, Min: 1500, Max: 7000, Unit: unitCellsPerUL},
				{Parameter: domain.ParamMonocitos, Min: 0, Max: 850, Unit: unitCellsPerUL},
				{Parameter: domain.ParamEosinofilos, Min: 0, Max: 1500, Unit: unitCellsPerUL},
				{Parameter: domain.ParamBasofilos, Min: 0, Max: 100, Unit: unitCellsPerUL},
				{Parameter: domain.ParamPlaquetas, Min: 300000, Max: 800000, Unit: unitCellsPerUL},
				{Parameter: domain.ParamProteinaTotal, Min: 6.0, Max: 8.0, Unit: unitGramsPerDL},
				{Parameter: domain.ParamReticulocitos, Min: 0, Max: 1.0, Unit: unitPercent},
			},
		},
	}
}

// StaticSource serves tables held in memory. Lookups are exact on the
// species label; normalization is the resolver's job.
type StaticSource struct {
	tables map[string]*domain.ReferenceTable
}

// NewStaticSource creates a source over tables. With no tables it serves the
// built-in ones.
func NewStaticSource(tables ...*domain.ReferenceTable) *StaticSource {
	if len(tables) == 0 {
		tables = BuiltinTables()
	}
	s := &StaticSource{tables: make(map[string]*domain.ReferenceTable, len(tables))}
	for _, t := range tables {
		if t == nil || t.Species == "" {
			continue
		}
		s.tables[t.Species] = cloneTable(t)
	}
	return s
}

// ReferenceTable returns a copy of the table for species
func (s *StaticSource) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	t, ok := s.tables[species]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSpeciesNotFound, species)
	}
	return cloneTable(t), nil
}

// Species lists the species with a table, sorted
func (s *StaticSource) Species(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func cloneTable(t *domain.ReferenceTable) *domain.ReferenceTable {
	ranges := make([]domain.ReferenceRange, len(t.Ranges))
	copy(ranges, t.Ranges)
	return &domain.ReferenceTable{Species: t.Species, Ranges: ranges}
}

package reference

import (
	"fmt"
	"math"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// referenceFile is the on-disk layout of a reference table file:
//
//	tabelas:
//	  - especie: Cão
//	    faixas:
//	      - {parametro: hemacias, min: 5.5, max: 8.5, unidade: x10⁶/µL}
type referenceFile struct {
	Tables []*domain.ReferenceTable `yaml:"tabelas"`
}

// LoadYAML reads reference tables from a YAML file
func LoadYAML(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file: %w", err)
	}
	tables, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewStaticSource(tables...), nil
}

// ParseYAML decodes and validates reference tables
func ParseYAML(data []byte) ([]*domain.ReferenceTable, error) {
	var file referenceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("invalid reference yaml: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, fmt.Errorf("no reference tables defined")
	}
	for _, t := range file.Tables {
		if err := ValidateTable(t); err != nil {
			return nil, err
		}
	}
	return file.Tables, nil
}

// MarshalYAML encodes tables in the layout read by ParseYAML
func MarshalYAML(tables ...*domain.ReferenceTable) ([]byte, error) {
	return yaml.Marshal(referenceFile{Tables: tables})
}

// ValidateTable checks that a table names its species and that every range
// is well formed and appears once.
func ValidateTable(t *domain.ReferenceTable) error {
	if t == nil || t.Species == "" {
		return domain.NewValidationError("especie", "species is required", nil)
	}
	seen := make(map[string]bool, len(t.Ranges))
	for _, r := range t.Ranges {
		switch {
		case r.Parameter == "":
			return domain.NewValidationError("parametro", "parameter is required", t.Species)
		case seen[r.Parameter]:
			return domain.NewValidationError("parametro", "duplicate parameter", r.Parameter)
		case math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min < 0 || r.Min > r.Max:
			return domain.NewValidationError("faixas", fmt.Sprintf("invalid range %v-%v", r.Min, r.Max), r.Parameter)
		}
		seen[r.Parameter] = true
	}
	return nil
}

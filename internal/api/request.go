package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/analisavet/hemogram-server/internal/domain"
)

// excludedFields are form fields sent along with a hemogram that carry no
// clinical or patient data
var excludedFields = map[string]bool{
	"finalidade_exame": true,
}

// decodeHemogramObject reads a flat JSON object mixing hemogram values and
// patient fields into labeled rows, in document order. Values may be numbers
// or strings; null values are skipped. The especie key is required.
func decodeHemogramObject(r io.Reader) ([]domain.Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, bodyError(err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, domain.NewValidationError("body", "Dados do hemograma inválidos ou incompletos.", nil)
	}

	var (
		rows       []domain.Row
		hasSpecies bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, bodyError(err)
		}
		key, _ := tok.(string)

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, bodyError(err)
		}
		if key == domain.AttrEspecie {
			hasSpecies = true
		}
		if excludedFields[key] {
			continue
		}

		var value string
		switch v := raw.(type) {
		case nil:
			continue
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, domain.NewValidationError(key, "invalid number", v.String())
			}
			value = strconv.FormatFloat(f, 'f', -1, 64)
		case string:
			value = v
		case bool:
			value = strconv.FormatBool(v)
		default:
			return nil, domain.NewValidationError(key, "expected a number or a string", nil)
		}
		rows = append(rows, domain.Row{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, bodyError(err)
	}

	if !hasSpecies {
		return nil, domain.NewValidationError(domain.AttrEspecie, "Dados do hemograma inválidos ou incompletos.", "")
	}
	return rows, nil
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err), nil)
}

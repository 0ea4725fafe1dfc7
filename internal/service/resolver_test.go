package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/analisavet/hemogram-server/internal/domain"
	"github.com/analisavet/hemogram-server/internal/reference"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mockReferenceSource struct {
	mock.Mock
}

func (m *mockReferenceSource) ReferenceTable(ctx context.Context, species string) (*domain.ReferenceTable, error) {
	args := m.Called(ctx, species)
	table, _ := args.Get(0).(*domain.ReferenceTable)
	return table, args.Error(1)
}

func notFound(species string) error {
	return fmt.Errorf("%w: %q", domain.ErrSpeciesNotFound, species)
}

func TestResolve_KnownSpeciesVariants(t *testing.T) {
	resolver := NewReferenceResolver(reference.NewStaticSource(), "", testLogger())

	tests := []struct {
		input    string
		expected string
	}{
		{"Cão", domain.SpeciesDog},
		{"cao", domain.SpeciesDog},
		{"CÃO", domain.SpeciesDog},
		{"CÃ£o", domain.SpeciesDog},
		{"CÃƒÂ£o", domain.SpeciesDog},
		{"Gato", domain.SpeciesCat},
		{"GATO", domain.SpeciesCat},
		{"felino", domain.SpeciesCat},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, err := resolver.Resolve(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.SpeciesUsed)
			assert.False(t, res.FallbackUsed)
			assert.Empty(t, res.Note)
			assert.Equal(t, tt.input, res.RequestedSpecies)
		})
	}
}

func TestResolve_UnknownSpeciesFallsBack(t *testing.T) {
	resolver := NewReferenceResolver(reference.NewStaticSource(), domain.SpeciesDog, testLogger())

	res, err := resolver.Resolve(context.Background(), "Equino")
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, domain.SpeciesDog, res.SpeciesUsed)
	assert.Equal(t, "Equino", res.RequestedSpecies)
	assert.Contains(t, res.Note, "Equino")
	assert.Contains(t, res.Note, domain.SpeciesDog)
}

func TestResolve_EmptySpeciesFallsBack(t *testing.T) {
	resolver := NewReferenceResolver(reference.NewStaticSource(), "", testLogger())

	res, err := resolver.Resolve(context.Background(), "  ")
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Contains(t, res.Note, "não informada")
}

func TestResolve_TriesLowerCasedRawLabel(t *testing.T) {
	source := new(mockReferenceSource)
	source.On("ReferenceTable", mock.Anything, "Equino").Return(nil, notFound("Equino"))
	source.On("ReferenceTable", mock.Anything, "equino").Return(&domain.ReferenceTable{
		Species: "equino",
		Ranges:  []domain.ReferenceRange{{Parameter: domain.ParamHemacias, Min: 6.8, Max: 12.9}},
	}, nil)

	resolver := NewReferenceResolver(source, "", testLogger())
	res, err := resolver.Resolve(context.Background(), "Equino")
	require.NoError(t, err)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, "equino", res.SpeciesUsed)
	source.AssertNotCalled(t, "ReferenceTable", mock.Anything, domain.SpeciesDog)
}

func TestResolve_MissingDefaultIsFatal(t *testing.T) {
	source := new(mockReferenceSource)
	source.On("ReferenceTable", mock.Anything, mock.Anything).Return(nil, notFound("any"))

	resolver := NewReferenceResolver(source, "", testLogger())
	_, err := resolver.Resolve(context.Background(), "Equino")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrReferenceUnavailable)
	assert.NotErrorIs(t, err, domain.ErrSpeciesNotFound)
}

func TestResolve_EmptyDefaultIsFatal(t *testing.T) {
	source := new(mockReferenceSource)
	source.On("ReferenceTable", mock.Anything, "Equino").Return(nil, notFound("Equino"))
	source.On("ReferenceTable", mock.Anything, "equino").Return(nil, notFound("equino"))
	source.On("ReferenceTable", mock.Anything, domain.SpeciesDog).Return(&domain.ReferenceTable{Species: domain.SpeciesDog}, nil)

	resolver := NewReferenceResolver(source, "", testLogger())
	_, err := resolver.Resolve(context.Background(), "Equino")
	assert.ErrorIs(t, err, domain.ErrReferenceUnavailable)
}

func TestResolve_SourceErrorOnDefaultIsFatal(t *testing.T) {
	source := new(mockReferenceSource)
	source.On("ReferenceTable", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	resolver := NewReferenceResolver(source, "", testLogger())
	_, err := resolver.Resolve(context.Background(), "Gato")
	assert.ErrorIs(t, err, domain.ErrReferenceUnavailable)
}

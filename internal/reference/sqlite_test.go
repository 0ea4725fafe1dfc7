package reference

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analisavet/hemogram-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	for _, table := range BuiltinTables() {
		require.NoError(t, store.SaveReferenceTable(ctx, table))
	}

	dog, err := store.ReferenceTable(ctx, domain.SpeciesDog)
	require.NoError(t, err)
	assert.Equal(t, BuiltinTables()[0], dog, "ranges come back in stored order")

	species, err := store.Species(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.SpeciesDog, domain.SpeciesCat}, species)
}

func TestSQLiteStore_SaveReplacesSpecies(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReferenceTable(ctx, BuiltinTables()[1]))
	require.NoError(t, store.SaveReferenceTable(ctx, &domain.ReferenceTable{
		Species: domain.SpeciesCat,
		Ranges:  []domain.ReferenceRange{{Parameter: "hemacias", Min: 5, Max: 11, Unit: "x10⁶/µL"}},
	}))

	cat, err := store.ReferenceTable(ctx, domain.SpeciesCat)
	require.NoError(t, err)
	require.Len(t, cat.Ranges, 1)
	assert.Equal(t, 11.0, cat.Ranges[0].Max)
}

func TestSQLiteStore_UnknownSpecies(t *testing.T) {
	store := createTestStore(t)

	_, err := store.ReferenceTable(context.Background(), "Equino")
	assert.ErrorIs(t, err, domain.ErrSpeciesNotFound)
}

func TestSQLiteStore_RejectsInvalidTable(t *testing.T) {
	store := createTestStore(t)

	err := store.SaveReferenceTable(context.Background(), &domain.ReferenceTable{
		Species: "Cão",
		Ranges:  []domain.ReferenceRange{{Parameter: "vcm", Min: 90, Max: 10}},
	})
	assert.True(t, domain.IsValidationError(err))
}

func TestSQLStore_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT parameter, min_value, max_value, unit FROM reference_ranges WHERE species = ?")).
		WithArgs("Cão").
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewSQLStore(db).ReferenceTable(context.Background(), "Cão")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSpeciesNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"parameter", "min_value", "max_value", "unit"}).
		AddRow("hemacias", 5.5, 8.5, "x10⁶/µL").
		AddRow("hematocrito", 37.0, 55.0, "%")
	mock.ExpectQuery("SELECT parameter").WithArgs("Cão").WillReturnRows(rows)

	table, err := NewSQLStore(db).ReferenceTable(context.Background(), "Cão")
	require.NoError(t, err)
	assert.Equal(t, "Cão", table.Species)
	assert.Equal(t, []string{"hemacias", "hematocrito"}, []string{table.Ranges[0].Parameter, table.Ranges[1].Parameter})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SaveRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reference_ranges").WithArgs("Cão").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO reference_ranges").WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = NewSQLStore(db).SaveReferenceTable(context.Background(), &domain.ReferenceTable{
		Species: "Cão",
		Ranges:  []domain.ReferenceRange{{Parameter: "vcm", Min: 60, Max: 77, Unit: "fL"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cão/vcm")
	assert.NoError(t, mock.ExpectationsWereMet())
}

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabe12/bizdir/internal/domain/category"
)

func TestSeedCategoriesCountsInsertedRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(pgxmock.AnyArg(), "Real Estate", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO categories").
		WithArgs(pgxmock.AnyArg(), "Telecommunications", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	added, err := SeedCategories(context.Background(), mock, []string{"Real Estate", "Telecommunications"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCategoriesStopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO categories").
		WithArgs(pgxmock.AnyArg(), "Real Estate", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err = SeedCategories(context.Background(), mock, []string{"Real Estate", "Telecommunications"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultCategories(t *testing.T) {
	assert.Len(t, category.Defaults, 15)
}

package catalog

import (
	"context"
	"testing"

	"foodgram/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetTags", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "tags" ORDER BY name`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).
				AddRow("0b8d7e5e-2f3c-4d0a-9b1e-6a2c3d4e5f60", "Breakfast", "breakfast").
				AddRow("1c9e8f6f-3a4d-4e1b-8c2f-7b3d4e5f6a71", "Dinner", "dinner"))

		tags, err := repo.GetTags(ctx)
		require.NoError(t, err)
		assert.Len(t, tags, 2)
		assert.Equal(t, "breakfast", tags[0].Slug)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetTagByID not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "tags" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}))

		_, err := repo.GetTagByID(ctx, "0b8d7e5e-2f3c-4d0a-9b1e-6a2c3d4e5f60")
		assert.ErrorIs(t, err, domain.ErrTagNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SearchIngredients escapes the prefix", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "ingredients" WHERE name ILIKE \$1 ORDER BY name`).
			WithArgs(`100\%%`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}).
				AddRow("2da09a7a-4b5e-4f2c-9d3a-8c4e5f6a7b82", "100% juice", "ml"))

		ingredients, err := repo.SearchIngredients(ctx, "100%")
		require.NoError(t, err)
		require.Len(t, ingredients, 1)
		assert.Equal(t, "ml", ingredients[0].MeasurementUnit)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetIngredientByID not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCatalogRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "ingredients" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "measurement_unit"}))

		_, err := repo.GetIngredientByID(ctx, "2da09a7a-4b5e-4f2c-9d3a-8c4e5f6a7b82")
		assert.ErrorIs(t, err, domain.ErrIngredientNotFound)
	})
}

func TestCatalogServiceRejectsMalformedID(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCatalogService(NewCatalogRepository(db))

	_, err := svc.GetTag(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	_, err = svc.GetIngredient(context.Background(), "17")
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

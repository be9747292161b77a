package shoppinglist

import (
	"context"
	"testing"

	"foodgram/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var userID = uuid.MustParse("a0000000-0000-4000-8000-000000000002")

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

func TestShoppingListQuery(t *testing.T) {
	query, args, err := shoppingListQuery(userID)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT i.id AS ingredient_id, i.name, i.measurement_unit, SUM(ri.amount) AS total_amount "+
			"FROM shopping_carts sc "+
			"JOIN recipe_ingredients ri ON ri.recipe_id = sc.recipe_id "+
			"JOIN ingredients i ON i.id = ri.ingredient_id "+
			"WHERE sc.user_id = ? "+
			"GROUP BY i.id, i.name, i.measurement_unit "+
			"ORDER BY i.name, i.measurement_unit",
		query)
	assert.Equal(t, []any{userID.String()}, args)
}

func TestGetShoppingList(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewShoppingListService(NewShoppingListRepository(db))

	// salt appears in two saved recipes (10 and 15), sugar in one
	mock.ExpectQuery(`SELECT i.id AS ingredient_id, .* FROM shopping_carts sc .* WHERE sc.user_id = \$1 GROUP BY`).
		WithArgs(userID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"ingredient_id", "name", "measurement_unit", "total_amount"}).
			AddRow("c0000000-0000-4000-8000-000000000001", "Salt", "g", 25).
			AddRow("c0000000-0000-4000-8000-000000000002", "Sugar", "g", 5))

	body, err := svc.DownloadShoppingList(context.Background(), userID.String())
	require.NoError(t, err)
	assert.Equal(t, "Salt (g) — 25\nSugar (g) — 5", string(body))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyShoppingList(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewShoppingListService(NewShoppingListRepository(db))

	mock.ExpectQuery(`FROM shopping_carts sc`).
		WillReturnRows(sqlmock.NewRows([]string{"ingredient_id", "name", "measurement_unit", "total_amount"}))

	body, err := svc.DownloadShoppingList(context.Background(), userID.String())
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestDownloadRequiresUser(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewShoppingListService(NewShoppingListRepository(db))

	_, err := svc.DownloadShoppingList(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "", Render(nil))
	assert.Equal(t, "Flour (kg) — 3", Render([]domain.ShoppingListItem{{Name: "Flour", MeasurementUnit: "kg", TotalAmount: 3}}))
}

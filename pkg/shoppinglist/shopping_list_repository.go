package shoppinglist

import (
	"context"

	"foodgram/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ShoppingListRepository interface {
		GetShoppingList(ctx context.Context, userID uuid.UUID) ([]domain.ShoppingListItem, error)
	}

	shoppingListRepository struct {
		db *gorm.DB
	}
)

func NewShoppingListRepository(db *gorm.DB) ShoppingListRepository {
	return &shoppingListRepository{db: db}
}

// shoppingListQuery sums every ingredient line of every recipe in the user's
// cart. Placeholders stay as "?" so gorm can bind them for the dialect.
func shoppingListQuery(userID uuid.UUID) (string, []any, error) {
	return sq.Select(
		"i.id AS ingredient_id",
		"i.name",
		"i.measurement_unit",
		"SUM(ri.amount) AS total_amount",
	).
		From("shopping_carts sc").
		Join("recipe_ingredients ri ON ri.recipe_id = sc.recipe_id").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Where(sq.Eq{"sc.user_id": userID.String()}).
		GroupBy("i.id", "i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit").
		ToSql()
}

func (r *shoppingListRepository) GetShoppingList(ctx context.Context, userID uuid.UUID) ([]domain.ShoppingListItem, error) {
	query, args, err := shoppingListQuery(userID)
	if err != nil {
		return nil, err
	}

	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

package shoppinglist

import (
	"context"
	"fmt"
	"strings"

	"foodgram/domain"
	"foodgram/internal/metrics"

	"github.com/google/uuid"
)

type (
	ShoppingListService interface {
		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
		DownloadShoppingList(ctx context.Context, userID string) ([]byte, error)
	}

	shoppingListService struct {
		shoppingListRepository ShoppingListRepository
	}
)

func NewShoppingListService(shoppingListRepository ShoppingListRepository) ShoppingListService {
	return &shoppingListService{shoppingListRepository: shoppingListRepository}
}

func (s *shoppingListService) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrAuthenticationRequired
	}
	return s.shoppingListRepository.GetShoppingList(ctx, id)
}

// DownloadShoppingList renders the text attachment. An empty cart gives an
// empty body.
func (s *shoppingListService) DownloadShoppingList(ctx context.Context, userID string) ([]byte, error) {
	items, err := s.GetShoppingList(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordShoppingListDownload(len(items))
	return []byte(Render(items)), nil
}

func Render(items []domain.ShoppingListItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.TotalAmount))
	}
	return strings.Join(lines, "\n")
}

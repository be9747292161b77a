package handlers

import (
	"fmt"

	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/pkg/shoppinglist"

	"github.com/gofiber/fiber/v2"
)

type (
	ShoppingListHandler interface {
		DownloadShoppingCart(c *fiber.Ctx) error
	}

	shoppingListHandler struct {
		shoppingListService shoppinglist.ShoppingListService
	}
)

func NewShoppingListHandler(shoppingListService shoppinglist.ShoppingListService) ShoppingListHandler {
	return &shoppingListHandler{shoppingListService: shoppingListService}
}

func (h *shoppingListHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	body, err := h.shoppingListService.DownloadShoppingList(c.Context(), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedDownloadShoppingCart, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", domain.ShoppingCartFileName))
	return c.Status(fiber.StatusOK).Send(body)
}

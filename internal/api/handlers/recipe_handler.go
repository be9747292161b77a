package handlers

import (
	"strings"

	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/internal/utils"
	"foodgram/pkg/recipe"

	"github.com/gofiber/fiber/v2"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipeDetail(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		AddFavorite(c *fiber.Ctx) error
		RemoveFavorite(c *fiber.Ctx) error
		AddToShoppingCart(c *fiber.Ctx) error
		RemoveFromShoppingCart(c *fiber.Ctx) error
		GetShortLink(c *fiber.Ctx) error
		RedirectShortLink(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService) RecipeHandler {
	return &recipeHandler{recipeService: recipeService}
}

func queryFlag(c *fiber.Ctx, key string) bool {
	value := c.Query(key)
	return value == "1" || strings.EqualFold(value, "true")
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	page, limit := presenters.PageParams(c, utils.GetConfigInt("PAGE_SIZE", domain.DefaultPageSize))

	filter := domain.RecipeFilter{
		AuthorID:         c.Query("author"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
		Page:             page,
		Limit:            limit,
	}
	for _, slug := range c.Context().QueryArgs().PeekMulti("tags") {
		filter.Tags = append(filter.Tags, string(slug))
	}

	res, count, err := h.recipeService.GetRecipes(c.Context(), filter, middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, presenters.Paginate(c, count, page, limit, res), fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipeDetail(c *fiber.Ctx) error {
	res, err := h.recipeService.GetRecipe(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req := new(domain.RecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), *req, middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	req := new(domain.RecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.Context(), c.Params("id"), *req, middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	if err := h.recipeService.DeleteRecipe(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedDeleteRecipe, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *recipeHandler) AddFavorite(c *fiber.Ctx) error {
	res, err := h.recipeService.AddFavorite(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedAddFavorite, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddFavorite)
}

func (h *recipeHandler) RemoveFavorite(c *fiber.Ctx) error {
	if err := h.recipeService.RemoveFavorite(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedRemoveFavorite, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *recipeHandler) AddToShoppingCart(c *fiber.Ctx) error {
	res, err := h.recipeService.AddToShoppingCart(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedAddShoppingCart, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddShoppingCart)
}

func (h *recipeHandler) RemoveFromShoppingCart(c *fiber.Ctx) error {
	if err := h.recipeService.RemoveFromShoppingCart(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedRemoveShoppingCart, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *recipeHandler) GetShortLink(c *fiber.Ctx) error {
	res, err := h.recipeService.GetShortLink(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetShortLink, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetShortLink)
}

func (h *recipeHandler) RedirectShortLink(c *fiber.Ctx) error {
	target, err := h.recipeService.ResolveShortLink(c.Context(), c.Params("code"))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetShortLink, err)
	}
	return c.Redirect(target, fiber.StatusFound)
}

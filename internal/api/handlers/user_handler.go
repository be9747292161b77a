package handlers

import (
	"foodgram/domain"
	"foodgram/internal/api/presenters"
	"foodgram/internal/middleware"
	"foodgram/internal/utils"
	"foodgram/pkg/user"

	"github.com/gofiber/fiber/v2"
)

type (
	UserHandler interface {
		GetUsers(c *fiber.Ctx) error
		GetUser(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
		UpdateAvatar(c *fiber.Ctx) error
		DeleteAvatar(c *fiber.Ctx) error
		Subscribe(c *fiber.Ctx) error
		Unsubscribe(c *fiber.Ctx) error
		GetSubscriptions(c *fiber.Ctx) error
	}

	userHandler struct {
		userService user.UserService
	}
)

func NewUserHandler(userService user.UserService) UserHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) GetUsers(c *fiber.Ctx) error {
	page, limit := presenters.PageParams(c, utils.GetConfigInt("PAGE_SIZE", domain.DefaultPageSize))

	res, count, err := h.userService.GetUsers(c.Context(), page, limit, middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetUsers, err)
	}
	return presenters.SuccessResponse(c, presenters.Paginate(c, count, page, limit, res), fiber.StatusOK, domain.MessageSuccessGetUsers)
}

func (h *userHandler) GetUser(c *fiber.Ctx) error {
	res, err := h.userService.GetUser(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetUser, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	res, err := h.userService.Me(c.Context(), middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetUser, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) UpdateAvatar(c *fiber.Ctx) error {
	req := new(domain.AvatarRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.userService.UpdateAvatar(c.Context(), *req, middleware.UserID(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedUpdateAvatar, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateAvatar)
}

func (h *userHandler) DeleteAvatar(c *fiber.Ctx) error {
	if err := h.userService.DeleteAvatar(c.Context(), middleware.UserID(c)); err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedDeleteAvatar, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// recipesLimit caps the short recipe list; anything but a positive integer
// means no cap.
func recipesLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("recipes_limit", 0)
	if limit < 0 {
		return 0
	}
	return limit
}

func (h *userHandler) Subscribe(c *fiber.Ctx) error {
	res, err := h.userService.Subscribe(c.Context(), c.Params("id"), middleware.UserID(c), recipesLimit(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedSubscribe, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSubscribe)
}

func (h *userHandler) Unsubscribe(c *fiber.Ctx) error {
	if err := h.userService.Unsubscribe(c.Context(), c.Params("id"), middleware.UserID(c)); err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedUnsubscribe, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *userHandler) GetSubscriptions(c *fiber.Ctx) error {
	page, limit := presenters.PageParams(c, utils.GetConfigInt("PAGE_SIZE", domain.DefaultPageSize))

	res, count, err := h.userService.GetSubscriptions(c.Context(), middleware.UserID(c), page, limit, recipesLimit(c))
	if err != nil {
		return presenters.DomainErrorResponse(c, domain.MessageFailedGetSubscriptions, err)
	}
	return presenters.SuccessResponse(c, presenters.Paginate(c, count, page, limit, res), fiber.StatusOK, domain.MessageSuccessGetSubscriptions)
}

package presenters

import (
	"net/url"
	"strconv"

	"foodgram/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

type Response struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, data any, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	res := Response{
		Status:  false,
		Message: message,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return c.Status(statusCode).JSON(res)
}

// DomainErrorResponse picks the status from the error kind. Errors without a
// kind are logged and answered with a generic 500.
func DomainErrorResponse(c *fiber.Ctx, message string, err error) error {
	kind := domain.KindOf(err)
	if kind == domain.KindValidation {
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Status:  false,
			Message: message,
			Error:   "validation failed",
			Errors:  validationFields(err),
		})
	}

	status := StatusFor(kind)
	if status == fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
		return ErrorResponse(c, status, message, domain.ErrInternal)
	}
	return ErrorResponse(c, status, message, err)
}

func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict:
		return fiber.StatusBadRequest
	case domain.KindAuthenticationRequired:
		return fiber.StatusUnauthorized
	case domain.KindAuthorizationDenied:
		return fiber.StatusForbidden
	case domain.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func validationFields(err error) map[string][]string {
	verr, ok := domain.AsValidationError(err)
	if !ok {
		return nil
	}
	return verr.Fields
}

// Paginate wraps one page of results with absolute next/previous links that
// keep the rest of the query string.
func Paginate(c *fiber.Ctx, count int64, page, limit int, results any) domain.PaginatedResponse {
	res := domain.PaginatedResponse{
		Count:   count,
		Results: results,
	}
	if int64(page)*int64(limit) < count {
		next := pageURL(c, page+1)
		res.Next = &next
	}
	if page > 1 {
		previous := pageURL(c, page-1)
		res.Previous = &previous
	}
	return res
}

func pageURL(c *fiber.Ctx, page int) string {
	u, err := url.Parse(c.BaseURL() + c.OriginalURL())
	if err != nil {
		return ""
	}
	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()
	return u.String()
}

// PageParams reads page and limit from the query string.
func PageParams(c *fiber.Ctx, defaultLimit int) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/bulk"
)

// RenderError maps an error from the authorization core onto the response
// contract: taxonomy errors become their status code and reason, anything
// else becomes an opaque 500. Raw storage errors never pass through.
func RenderError(c *fiber.Ctx, err error) error {
	var denied *authz.DeniedError

	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": authz.ErrUnauthenticated.Error()})
	case errors.As(err, &denied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": denied.Error()})
	case errors.Is(err, authz.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, authz.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, bulk.ErrEmptyBatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

// RenderBulkError maps a bulk validation error, reporting counts but
// never the ids of the failing rows.
func RenderBulkError(c *fiber.Ctx, err error) error {
	var (
		unauthorized *bulk.UnauthorizedError
		completed    *bulk.CompletedError
	)

	switch {
	case errors.As(err, &unauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":              "batch rejected",
			"unauthorized_count": unauthorized.Count,
		})
	case errors.As(err, &completed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":                   "batch rejected",
			"already_completed_count": completed.Count,
		})
	default:
		return RenderError(c, err)
	}
}

// Pagination reads page and pageSize query parameters with defaults.
func Pagination(c *fiber.Ctx) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

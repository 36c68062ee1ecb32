package admin

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin stats endpoint.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Stats returns platform aggregates. The caller's email claim must match the
// configured admin address.
func (h *Handler) Stats(c *fiber.Ctx) error {
	email, _ := c.Locals("email").(string)

	stats, err := h.service.Stats(c.UserContext(), email)
	if err != nil {
		if errors.Is(err, ErrForbidden) {
			return fiber.NewError(http.StatusForbidden, "admin access required")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(stats)
}

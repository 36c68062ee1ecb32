package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/auth"
)

// RegisterAuthRoutes wires the OAuth login redirect and callback.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler) {
	group := r.Group("/auth")
	group.Get("/login", h.Login)
	group.Get("/callback", h.Callback)
}

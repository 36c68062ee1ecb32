package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/paylink"
)

// RegisterPaymentLinkRoutes wires link creation and wallet payment. The public
// resolve endpoint is registered separately on the unauthenticated group.
func RegisterPaymentLinkRoutes(r fiber.Router, h *paylink.Handler) {
	r.Post("/payments", h.Create)
	r.Post("/pay/:reference/wallet", h.PayWithWallet)
}

package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/funding"
)

// RegisterFundingRoutes wires the wallet read and funding endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, depositLimiter fiber.Handler) {
	group := r.Group("/wallet")
	group.Get("/balance", h.Balance)
	group.Get("/transactions", h.Transactions)
	if depositLimiter != nil {
		group.Post("/deposit", depositLimiter, h.Deposit)
	} else {
		group.Post("/deposit", h.Deposit)
	}
	group.Post("/withdraw", h.Withdraw)
}

// RegisterWebhookRoute wires the gateway callback. Stays public: the caller
// authenticates with the signature header, not a session token.
func RegisterWebhookRoute(r fiber.Router, h *funding.Handler) {
	r.Post("/payments/webhook", h.Webhook)
}

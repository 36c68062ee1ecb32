package paylink

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/validate"
)

// Handler exposes payment link endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=280"`
}

// Create issues a payment link owned by the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)

	link, err := h.service.Create(c.UserContext(), userID, req.Amount, req.Description)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(link)
}

// Resolve returns the public view of an active link so a payer page can render it.
func (h *Handler) Resolve(c *fiber.Ctx) error {
	link, err := h.service.Resolve(c.UserContext(), c.Params("reference"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "payment link not found")
		case errors.Is(err, ErrInactive), errors.Is(err, ErrExpired):
			return fiber.NewError(http.StatusGone, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"reference":   link.Reference,
		"amount":      link.Amount,
		"description": link.Description,
		"expires_at":  link.ExpiresAt,
	})
}

// PayWithWallet debits the authenticated payer's wallet for the link amount.
func (h *Handler) PayWithWallet(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	tx, err := h.service.PayWithWallet(c.UserContext(), userID, c.Params("reference"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "payment link not found")
		case errors.Is(err, ErrInactive), errors.Is(err, ErrExpired):
			return fiber.NewError(http.StatusGone, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "insufficient funds")
		case errors.Is(err, ledger.ErrDuplicateReference):
			return fiber.NewError(http.StatusConflict, "payment already processed")
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": tx.ID,
		"reference":      tx.Reference,
		"amount":         tx.Amount,
		"status":         tx.Status,
	})
}

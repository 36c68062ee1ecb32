package funding

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paiecash/wallet-api/internal/gateway"
	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/validate"
)

// SignatureHeader carries the webhook payload signature.
const SignatureHeader = "Gateway-Signature"

// Handler exposes the wallet funding endpoints.
type Handler struct {
	service    *Service
	reconciler *Reconciler
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service, reconciler *Reconciler) *Handler {
	return &Handler{service: service, reconciler: reconciler}
}

// Deposit initiates a gateway checkout for the authenticated user.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	intent, err := h.service.InitiateDeposit(c.UserContext(), DepositInput{
		UserID: userID,
		Amount: req.Amount,
		Method: Method(req.Method),
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ErrUnknownMethod):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fiber.NewError(http.StatusInternalServerError, "wallet missing for user")
		case errors.Is(err, gateway.ErrUnavailable):
			return fiber.NewError(http.StatusBadGateway, "payment gateway unavailable")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(DepositResponse{
		Reference:   intent.Reference,
		SessionID:   intent.SessionID,
		RedirectURL: intent.RedirectURL,
		Amount:      intent.Amount,
		Fee:         intent.Fee,
	})
}

// Withdraw debits the authenticated user's wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.service.Withdraw(c.UserContext(), WithdrawInput{UserID: userID, Amount: req.Amount})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, "solde insuffisant")
		case errors.Is(err, ledger.ErrInvalidAmount):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrWalletNotFound):
			return fiber.NewError(http.StatusInternalServerError, "wallet missing for user")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(WithdrawResponse{Reference: receipt.Reference, Balance: receipt.Balance})
}

// Balance returns the wallet balance for the authenticated user.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	wallet, err := h.service.Balance(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			// Defensive: absence should not occur once signup provisioned it.
			return c.Status(http.StatusOK).JSON(BalanceResponse{Balance: 0, Currency: "XAF"})
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(BalanceResponse{Balance: wallet.Balance, Currency: wallet.Currency})
}

// Transactions lists the authenticated user's history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	limit := c.QueryInt("limit", 50)
	history, err := h.service.Transactions(c.UserContext(), userID, limit)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]TransactionResponse, 0, len(history))
	for _, tx := range history {
		out = append(out, TransactionResponse{
			ID:          tx.ID,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Description: tx.Description,
			Status:      tx.Status,
			Reference:   tx.Reference,
			Metadata:    tx.Metadata,
			CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Webhook receives asynchronous gateway events. Once the payload is
// authenticated the endpoint always acknowledges, including for duplicates,
// so the gateway stops retrying; only signature failures and aborted atomic
// units return an error status.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()
	sig := c.Get(SignatureHeader)

	outcome, err := h.reconciler.HandleEvent(c.UserContext(), payload, sig)
	if err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return fiber.NewError(http.StatusBadRequest, "invalid signature")
		}
		return fiber.NewError(http.StatusInternalServerError, "processing error")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"received":  true,
		"processed": outcome.EventType,
	})
}

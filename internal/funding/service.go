package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/paiecash/wallet-api/internal/config"
	"github.com/paiecash/wallet-api/internal/gateway"
	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/notification"
)

// Metadata keys recorded on transactions.
const (
	metaMethod         = "method"
	metaFee            = "fee"
	metaOriginalAmount = "original_amount"
	metaSessionID      = "gateway_session_id"
	metaEventID        = "gateway_event_id"
	metaSettledAmount  = "gateway_amount_paid"
	metaCompletedAt    = "completed_at"
	metaFailureReason  = "failure_reason"
)

// Service coordinates deposits and withdrawals between the ledger and the
// payment gateway.
type Service struct {
	ledger    ledger.Ledger
	gw        gateway.Gateway
	notifier  notification.Notifier
	converter Converter
	cfg       config.Config
	logger    *slog.Logger
}

// NewService builds the funding service. A nil gateway falls back to the
// static stub, mirroring how the app runs without processor credentials.
func NewService(l ledger.Ledger, gw gateway.Gateway, notifier notification.Notifier, cfg config.Config, logger *slog.Logger) *Service {
	if gw == nil {
		gw = gateway.StaticGateway{}
	}
	return &Service{
		ledger:    l,
		gw:        gw,
		notifier:  notifier,
		converter: Converter{Rate: cfg.Gateway.SettlementRate},
		cfg:       cfg,
		logger:    logger,
	}
}

// DepositInput captures a deposit initiation request.
type DepositInput struct {
	UserID string
	Amount int64
	Method Method
}

// DepositIntent is what the caller needs to send the user off to checkout.
type DepositIntent struct {
	Reference   string
	SessionID   string
	RedirectURL string
	Amount      int64
	Fee         int64
}

// InitiateDeposit creates a checkout session with the gateway and records the
// matching PENDING transaction. The gateway call happens first: if it fails
// nothing is persisted, so no orphaned pending row can exist without a
// session to settle it.
func (s *Service) InitiateDeposit(ctx context.Context, input DepositInput) (DepositIntent, error) {
	if input.Amount <= 0 {
		return DepositIntent{}, ledger.ErrInvalidAmount
	}
	if !input.Method.Valid() {
		return DepositIntent{}, ErrUnknownMethod
	}

	wallet, err := s.ledger.WalletForUser(ctx, input.UserID)
	if err != nil {
		return DepositIntent{}, err
	}

	fee := input.Method.Fee(input.Amount)

	// Reference collisions are practically unreachable with random 128-bit
	// identifiers; one retry with a fresh reference covers the theoretical case.
	for attempt := 0; attempt < 2; attempt++ {
		reference := uuid.NewString()

		session, err := s.gw.CreateSession(ctx, gateway.SessionRequest{
			Amount:     s.converter.ToSettlementMinor(input.Amount),
			Currency:   s.cfg.Gateway.SettlementCurrency,
			SuccessURL: s.cfg.Gateway.SuccessURL,
			CancelURL:  s.cfg.Gateway.CancelURL,
			Metadata: gateway.SessionMetadata{
				UserID:         input.UserID,
				WalletID:       wallet.ID,
				Reference:      reference,
				Kind:           gateway.KindDeposit,
				OriginalAmount: input.Amount,
			},
		})
		if err != nil {
			return DepositIntent{}, err
		}

		_, err = s.ledger.RecordPending(ctx, ledger.PendingInput{
			UserID:      input.UserID,
			WalletID:    wallet.ID,
			Type:        ledger.TypeDeposit,
			Amount:      input.Amount,
			Description: "Dépôt wallet",
			Reference:   reference,
			Metadata: ledger.Metadata{
				metaMethod:         string(input.Method),
				metaFee:            strconv.FormatInt(fee, 10),
				metaOriginalAmount: strconv.FormatInt(input.Amount, 10),
				metaSessionID:      session.ID,
			},
		})
		if err != nil {
			if errors.Is(err, ledger.ErrDuplicateReference) {
				continue
			}
			return DepositIntent{}, err
		}

		return DepositIntent{
			Reference:   reference,
			SessionID:   session.ID,
			RedirectURL: session.RedirectURL,
			Amount:      input.Amount,
			Fee:         fee,
		}, nil
	}

	return DepositIntent{}, fmt.Errorf("record pending deposit: %w", ledger.ErrDuplicateReference)
}

// WithdrawInput captures a withdrawal request.
type WithdrawInput struct {
	UserID string
	Amount int64
}

// WithdrawReceipt reports the outcome of a completed withdrawal.
type WithdrawReceipt struct {
	Reference   string
	Transaction ledger.Transaction
	Balance     int64
}

// Withdraw debits the wallet and records the COMPLETED transaction in one
// atomic unit. The ledger's conditional decrement makes the balance check and
// the debit indivisible with respect to concurrent withdrawals.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (WithdrawReceipt, error) {
	if input.Amount <= 0 {
		return WithdrawReceipt{}, ledger.ErrInvalidAmount
	}

	// Cheap pre-check for a clear error on the common path; the ledger
	// re-checks inside the atomic unit.
	wallet, err := s.ledger.WalletForUser(ctx, input.UserID)
	if err != nil {
		return WithdrawReceipt{}, err
	}
	if wallet.Balance < input.Amount {
		return WithdrawReceipt{}, ledger.ErrInsufficientFunds
	}

	reference := uuid.NewString()
	tx, updated, err := s.ledger.Withdraw(ctx, input.UserID, input.Amount, "Retrait wallet", reference, ledger.Metadata{
		metaMethod: "wallet",
	})
	if err != nil {
		return WithdrawReceipt{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindWithdrawal,
			UserID:    input.UserID,
			Amount:    input.Amount,
			Reference: reference,
		}); err != nil {
			s.logger.Warn("withdrawal notification failed", "reference", reference, "error", err)
		}
	}

	return WithdrawReceipt{Reference: reference, Transaction: tx, Balance: updated.Balance}, nil
}

// Balance returns the user's wallet balance and currency.
func (s *Service) Balance(ctx context.Context, userID string) (ledger.Wallet, error) {
	return s.ledger.WalletForUser(ctx, userID)
}

// Transactions lists the user's history, newest first.
func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]ledger.Transaction, error) {
	return s.ledger.Transactions(ctx, userID, limit)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

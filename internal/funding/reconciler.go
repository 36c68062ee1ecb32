package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/paiecash/wallet-api/internal/gateway"
	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/notification"
)

// Reconciler consumes gateway webhook deliveries and applies their balance
// effect exactly once. Duplicate deliveries are harmless: the pending lookup
// and the completion happen in the same atomic unit, so a replay finds no
// PENDING row and no-ops.
type Reconciler struct {
	ledger    ledger.Ledger
	secret    string
	tolerance time.Duration
	notifier  notification.Notifier
	logger    *slog.Logger
}

// NewReconciler builds a webhook reconciler with the shared webhook secret.
func NewReconciler(l ledger.Ledger, secret string, notifier notification.Notifier, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		ledger:    l,
		secret:    secret,
		tolerance: gateway.DefaultTolerance,
		notifier:  notifier,
		logger:    logger,
	}
}

// Outcome summarises what a webhook delivery did.
type Outcome struct {
	EventID   string
	EventType string
	Reference string
	// Applied is true when this delivery changed ledger state. False means
	// the event was ignored or was a duplicate of an already-settled one.
	Applied bool
}

// HandleEvent authenticates and processes one webhook delivery. A returned
// error means the gateway should retry: either the signature failed or the
// atomic unit aborted. An authenticated event that needs no work returns a
// nil error so the gateway stops redelivering it.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (Outcome, error) {
	event, err := gateway.ConstructEvent(payload, sigHeader, r.secret, r.tolerance)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{EventID: event.ID, EventType: event.Type}

	switch event.Type {
	case gateway.EventCheckoutCompleted:
		return r.settle(ctx, event, outcome)
	case gateway.EventPaymentFailed:
		return r.void(ctx, event, outcome)
	default:
		// Unknown or uninteresting event kinds are acknowledged and skipped.
		return outcome, nil
	}
}

func (r *Reconciler) settle(ctx context.Context, event gateway.Event, outcome Outcome) (Outcome, error) {
	meta := event.Session.Metadata
	outcome.Reference = meta.Reference

	if meta.Kind != gateway.KindDeposit || meta.Reference == "" {
		return outcome, nil
	}

	// Credit the original domestic amount; the settlement figure went through
	// a currency conversion whose rounding must not reach the ledger. The
	// stored transaction amount is the fallback when metadata is incomplete.
	credit := meta.OriginalAmount

	extra := ledger.Metadata{
		metaEventID:       event.ID,
		metaSettledAmount: strconv.FormatInt(event.Session.AmountTotal, 10),
		metaCompletedAt:   nowRFC3339(),
	}
	if event.Session.ID != "" {
		extra[metaSessionID] = event.Session.ID
	}

	var (
		tx      ledger.Transaction
		applied bool
		err     error
	)
	if credit > 0 {
		tx, applied, err = r.ledger.SettleDeposit(ctx, meta.Reference, credit, extra)
	} else {
		tx, applied, err = r.settleWithStoredAmount(ctx, meta.Reference, extra)
	}
	if err != nil {
		return outcome, fmt.Errorf("settle deposit %s: %w", meta.Reference, err)
	}
	if !applied {
		r.logger.Info("webhook already reconciled", "reference", meta.Reference, "event_id", event.ID)
		return outcome, nil
	}

	outcome.Applied = true
	r.logger.Info("deposit settled",
		"reference", meta.Reference,
		"amount", tx.Amount,
		"gateway_amount", event.Session.AmountTotal,
		"event_id", event.ID)

	if r.notifier != nil {
		if err := r.notifier.Send(ctx, notification.Message{
			Kind:      notification.KindDeposit,
			UserID:    tx.UserID,
			Amount:    tx.Amount,
			Reference: tx.Reference,
		}); err != nil {
			r.logger.Warn("deposit notification failed", "reference", tx.Reference, "error", err)
		}
	}
	return outcome, nil
}

// settleWithStoredAmount handles events whose metadata lost the original
// amount: the amount recorded at initiation is the authority.
func (r *Reconciler) settleWithStoredAmount(ctx context.Context, reference string, extra ledger.Metadata) (ledger.Transaction, bool, error) {
	pending, err := r.ledger.PendingByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return ledger.Transaction{}, false, nil
		}
		return ledger.Transaction{}, false, err
	}
	if pending.Amount <= 0 {
		return ledger.Transaction{}, false, nil
	}
	return r.ledger.SettleDeposit(ctx, reference, pending.Amount, extra)
}

func (r *Reconciler) void(ctx context.Context, event gateway.Event, outcome Outcome) (Outcome, error) {
	meta := event.Session.Metadata
	outcome.Reference = meta.Reference
	if meta.Reference == "" {
		return outcome, nil
	}

	_, applied, err := r.ledger.FailPending(ctx, meta.Reference, ledger.Metadata{
		metaEventID:       event.ID,
		metaFailureReason: event.Type,
	})
	if err != nil {
		return outcome, fmt.Errorf("fail pending %s: %w", meta.Reference, err)
	}
	outcome.Applied = applied
	if applied {
		r.logger.Info("pending deposit failed", "reference", meta.Reference, "event_id", event.ID)
	}
	return outcome, nil
}

package notification

import (
	"context"
	"log/slog"
)

// Notification kinds emitted by the wallet flows.
const (
	KindDeposit    = "deposit_completed"
	KindWithdrawal = "withdrawal_completed"
	KindPayment    = "payment_received"
)

// Message describes a transaction notification. Delivery is best-effort and
// out of the ledger's atomic unit: a failed send never rolls back a posting.
type Message struct {
	Kind      string
	UserID    string
	Email     string
	Amount    int64
	Reference string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// EmailLookup resolves a user id to a recipient address.
type EmailLookup func(ctx context.Context, userID string) (string, error)

type resolvingNotifier struct {
	next   Notifier
	lookup EmailLookup
}

// WithEmailLookup fills in Message.Email from the user id before delivery, so
// callers close to the ledger do not need to know about recipients.
func WithEmailLookup(next Notifier, lookup EmailLookup) Notifier {
	return &resolvingNotifier{next: next, lookup: lookup}
}

func (n *resolvingNotifier) Send(ctx context.Context, message Message) error {
	if message.Email == "" && message.UserID != "" && n.lookup != nil {
		email, err := n.lookup(ctx, message.UserID)
		if err == nil {
			message.Email = email
		}
	}
	return n.next.Send(ctx, message)
}

// LoggerNotifier writes notifications to the structured logger. Used in
// development and tests, and as the fallback when SMTP is not configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		"kind", message.Kind,
		"user_id", message.UserID,
		"amount", message.Amount,
		"reference", message.Reference)
	return nil
}

package gateway

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable indicates the payment processor could not be reached or
	// rejected the session request. Transient; nothing is persisted.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidSignature indicates a webhook payload failed authentication.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Event types emitted by the processor. Only EventCheckoutCompleted credits a
// wallet; EventPaymentFailed voids the pending transaction; anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventPaymentFailed     = "checkout.session.payment_failed"
)

// Session kinds carried in the metadata.
const (
	KindDeposit = "deposit"
	KindPayment = "payment"
)

// SessionMetadata is the fixed payload that round-trips opaquely through the
// processor: attached when the session is created, echoed back on the webhook,
// and used there as the join key to the pending transaction.
type SessionMetadata struct {
	UserID         string `json:"userId"`
	WalletID       string `json:"walletId"`
	Reference      string `json:"reference"`
	Kind           string `json:"type"`
	OriginalAmount int64  `json:"originalAmount,string"`
}

// SessionRequest describes a checkout session to create. Amount is in the
// processor's settlement currency minor units.
type SessionRequest struct {
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
	Metadata   SessionMetadata
}

// Session is the processor's handle for an initiated payment.
type Session struct {
	ID          string
	RedirectURL string
}

// Gateway abstracts the card payment processor.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
}

// EventSession is the checkout session object embedded in a webhook event.
type EventSession struct {
	ID          string          `json:"id"`
	AmountTotal int64           `json:"amount_total"`
	Currency    string          `json:"currency"`
	Metadata    SessionMetadata `json:"metadata"`
}

// Event is an authenticated webhook delivery.
type Event struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Session EventSession `json:"data"`
}

package paylink

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no link matches the reference.
	ErrNotFound = errors.New("payment link not found")
	// ErrInactive indicates the link was deactivated or already paid.
	ErrInactive = errors.New("payment link inactive")
	// ErrExpired indicates the link's validity window has passed.
	ErrExpired = errors.New("payment link expired")
	// ErrInvalidAmount indicates a non-positive link amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// PaymentLink is a shareable request for a fixed amount. The reference doubles
// as the public URL segment and the ledger reference when paid by wallet.
type PaymentLink struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	Reference   string    `json:"reference"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the link is past its validity window at now.
func (p PaymentLink) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

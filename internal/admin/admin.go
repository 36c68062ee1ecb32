package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/paiecash/wallet-api/internal/ledger"
)

// ErrForbidden indicates the caller is not the configured administrator.
var ErrForbidden = errors.New("admin access required")

// Service exposes platform aggregates to the configured admin account.
type Service struct {
	ledger     ledger.Ledger
	adminEmail string
}

func NewService(l ledger.Ledger, adminEmail string) *Service {
	return &Service{ledger: l, adminEmail: strings.ToLower(strings.TrimSpace(adminEmail))}
}

// Authorize checks the caller's email against the configured admin address.
func (s *Service) Authorize(email string) error {
	if s.adminEmail == "" || !strings.EqualFold(strings.TrimSpace(email), s.adminEmail) {
		return ErrForbidden
	}
	return nil
}

// Stats returns platform totals for the admin dashboard.
func (s *Service) Stats(ctx context.Context, callerEmail string) (ledger.Stats, error) {
	if err := s.Authorize(callerEmail); err != nil {
		return ledger.Stats{}, err
	}
	return s.ledger.Stats(ctx)
}

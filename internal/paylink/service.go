package paylink

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/notification"
)

// DefaultTTL bounds links when no validity window is configured.
const DefaultTTL = 24 * time.Hour

// Service manages payment link lifecycle and wallet-funded payments.
type Service struct {
	repo     Repository
	ledger   ledger.Ledger
	notifier notification.Notifier
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, l ledger.Ledger, notifier notification.Notifier, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, ledger: l, notifier: notifier, ttl: ttl, logger: logger, now: time.Now}
}

// Create issues a new active link owned by creatorID.
func (s *Service) Create(ctx context.Context, creatorID string, amount int64, description string) (PaymentLink, error) {
	if amount <= 0 {
		return PaymentLink{}, ErrInvalidAmount
	}
	now := s.now().UTC()
	link := PaymentLink{
		ID:          uuid.NewString(),
		CreatorID:   creatorID,
		Reference:   uuid.NewString(),
		Amount:      amount,
		Description: description,
		Active:      true,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, link); err != nil {
		return PaymentLink{}, err
	}
	return link, nil
}

// Resolve returns the link for a reference, rejecting inactive or expired ones.
func (s *Service) Resolve(ctx context.Context, reference string) (PaymentLink, error) {
	link, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return PaymentLink{}, err
	}
	if !link.Active {
		return PaymentLink{}, ErrInactive
	}
	if link.Expired(s.now().UTC()) {
		return PaymentLink{}, ErrExpired
	}
	return link, nil
}

// Deactivate turns a link off so it can no longer be resolved or paid.
func (s *Service) Deactivate(ctx context.Context, reference string) error {
	if _, err := s.repo.FindByReference(ctx, reference); err != nil {
		return err
	}
	_, err := s.repo.Deactivate(ctx, reference)
	return err
}

// PayWithWallet settles an active link from the payer's wallet. The link
// reference doubles as the ledger reference, so a retried payment hits the
// duplicate guard instead of debiting twice.
func (s *Service) PayWithWallet(ctx context.Context, userID, reference string) (ledger.Transaction, error) {
	link, err := s.Resolve(ctx, reference)
	if err != nil {
		return ledger.Transaction{}, err
	}

	meta := ledger.Metadata{
		"method":       "wallet",
		"payment_link": link.ID,
		"creator_id":   link.CreatorID,
	}
	description := link.Description
	if description == "" {
		description = "Paiement par lien"
	}
	tx, _, err := s.ledger.Withdraw(ctx, userID, link.Amount, description, link.Reference, meta)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if _, err := s.repo.Deactivate(ctx, reference); err != nil {
		// The debit stands; a stuck-active link only risks a duplicate-reference
		// rejection on the next attempt.
		s.logger.Error("deactivate paid link", slog.String("reference", reference), slog.Any("error", err))
	}

	if s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifier.Send(notifyCtx, notification.Message{
			Kind:      notification.KindPayment,
			UserID:    link.CreatorID,
			Amount:    link.Amount,
			Reference: link.Reference,
		}); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("payment notification failed", slog.String("reference", reference), slog.Any("error", err))
		}
	}

	return tx, nil
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiecash/wallet-api/internal/ledger"
)

// Service manages the local mirror of externally-authenticated users and
// provisions their wallet.
type Service struct {
	repo     Repository
	ledger   ledger.Ledger
	currency string
}

// NewService creates a new identity service.
func NewService(repo Repository, l ledger.Ledger, currency string) *Service {
	return &Service{repo: repo, ledger: l, currency: currency}
}

// Provision creates the user and wallet on first login, or refreshes the
// mutable profile fields on later logins. Wallet creation is idempotent, so
// a crash between the user insert and the wallet insert heals on the next
// login and the one-wallet-per-user invariant holds throughout.
func (s *Service) Provision(ctx context.Context, claims Claims) (User, ledger.Wallet, error) {
	if claims.Subject == "" {
		return User{}, ledger.Wallet{}, errors.New("claims without subject")
	}

	now := time.Now().UTC()
	user, err := s.repo.FindBySubject(ctx, claims.Subject)
	switch {
	case err == nil:
		user.Email = claims.Email
		user.Name = claims.Name
		user.UserType = claims.UserType
		if claims.Metadata != nil {
			user.Metadata = claims.Metadata
		}
		user.LastLogin = now
		if err := s.repo.UpdateProfile(ctx, user); err != nil {
			return User{}, ledger.Wallet{}, fmt.Errorf("refresh profile: %w", err)
		}
	case errors.Is(err, ErrNotFound):
		user = User{
			ID:        uuid.NewString(),
			Subject:   claims.Subject,
			Email:     claims.Email,
			Name:      claims.Name,
			UserType:  claims.UserType,
			Metadata:  claims.Metadata,
			CreatedAt: now,
			LastLogin: now,
		}
		if user.UserType == "" {
			user.UserType = "player"
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return User{}, ledger.Wallet{}, fmt.Errorf("create user: %w", err)
		}
	default:
		return User{}, ledger.Wallet{}, err
	}

	wallet, err := s.ledger.EnsureWallet(ctx, user.ID, s.currency)
	if err != nil {
		return User{}, ledger.Wallet{}, fmt.Errorf("ensure wallet: %w", err)
	}
	return user, wallet, nil
}

// Get fetches a user by internal identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

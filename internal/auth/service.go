package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paiecash/wallet-api/internal/config"
	"github.com/paiecash/wallet-api/internal/identity"
)

// ErrInvalidCode indicates a callback with a missing or rejected authorization code.
var ErrInvalidCode = errors.New("invalid authorization code")

// Provider abstracts the OAuth client so tests can stub the external IdP.
type Provider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	UserInfo(ctx context.Context, accessToken string) (identity.Claims, error)
}

// Service drives the login flow: redirect to the provider, then on callback
// exchange the code, provision the local user and issue an API session token.
type Service struct {
	provider Provider
	ids      *identity.Service
	tokens   *TokenIssuer
}

func NewService(cfg config.Config, provider Provider, ids *identity.Service) *Service {
	if provider == nil {
		provider = NewOAuthClient(cfg.OAuth)
	}
	return &Service{
		provider: provider,
		ids:      ids,
		tokens:   NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
	}
}

// Session is the result of a completed login.
type Session struct {
	User        identity.User `json:"user"`
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
}

// LoginURL returns the provider authorization URL with a fresh state value.
func (s *Service) LoginURL() (url, state string) {
	state = uuid.NewString()
	return s.provider.AuthURL(state), state
}

// Complete finishes the authorization-code flow. The user is created on first
// login, with a wallet provisioned alongside.
func (s *Service) Complete(ctx context.Context, code string) (Session, error) {
	if code == "" {
		return Session{}, ErrInvalidCode
	}
	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return Session{}, err
		}
		return Session{}, ErrInvalidCode
	}
	claims, err := s.provider.UserInfo(ctx, accessToken)
	if err != nil {
		return Session{}, err
	}
	user, _, err := s.ids.Provision(ctx, claims)
	if err != nil {
		return Session{}, err
	}
	signed, expires, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{
		User:        user,
		AccessToken: signed,
		ExpiresIn:   int64(time.Until(expires).Seconds()),
	}, nil
}

// Tokens exposes the issuer so middleware can verify requests with the same key.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paiecash/wallet-api/internal/config"
	"github.com/paiecash/wallet-api/internal/identity"
	"github.com/paiecash/wallet-api/internal/ledger"
)

type stubProvider struct {
	claims   identity.Claims
	exchange error
}

func (p *stubProvider) AuthURL(state string) string {
	return "https://idp.example.test/api/auth/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (string, error) {
	if p.exchange != nil {
		return "", p.exchange
	}
	return "provider-token", nil
}

func (p *stubProvider) UserInfo(ctx context.Context, accessToken string) (identity.Claims, error) {
	return p.claims, nil
}

func newAuthFixture(t *testing.T, provider Provider) (*Service, *identity.Service, ledger.Ledger) {
	t.Helper()
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		Currency:       "XAF",
	}
	led := ledger.NewInMemory()
	ids := identity.NewService(identity.NewMemoryRepository(), led, cfg.Currency)
	return NewService(cfg, provider, ids), ids, led
}

func TestService_CompleteProvisionsUserAndIssuesToken(t *testing.T) {
	provider := &stubProvider{claims: identity.Claims{Subject: "idp|42", Email: "ana@example.test", Name: "Ana"}}
	svc, _, led := newAuthFixture(t, provider)

	session, err := svc.Complete(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if session.User.Email != "ana@example.test" {
		t.Fatalf("unexpected user email %q", session.User.Email)
	}
	if session.AccessToken == "" || session.ExpiresIn <= 0 {
		t.Fatalf("expected signed session, got %+v", session)
	}

	claims, err := svc.Tokens().Verify(session.AccessToken)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != session.User.ID {
		t.Fatalf("token subject = %q, want %q", claims.Subject, session.User.ID)
	}

	if _, err := led.WalletForUser(context.Background(), session.User.ID); err != nil {
		t.Fatalf("expected wallet provisioned on first login: %v", err)
	}
}

func TestService_CompleteIsStableAcrossLogins(t *testing.T) {
	provider := &stubProvider{claims: identity.Claims{Subject: "idp|42", Email: "ana@example.test"}}
	svc, _, _ := newAuthFixture(t, provider)

	first, err := svc.Complete(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	second, err := svc.Complete(context.Background(), "code-2")
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Fatalf("expected stable user id, got %q then %q", first.User.ID, second.User.ID)
	}
}

func TestService_CompleteRejectsEmptyCode(t *testing.T) {
	svc, _, _ := newAuthFixture(t, &stubProvider{claims: identity.Claims{Subject: "idp|42"}})
	if _, err := svc.Complete(context.Background(), ""); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestService_CompleteSurfacesProviderOutage(t *testing.T) {
	provider := &stubProvider{exchange: ErrProviderUnavailable}
	svc, _, _ := newAuthFixture(t, provider)
	if _, err := svc.Complete(context.Background(), "code-1"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestTokenIssuer_RejectsTamperedAndExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	signed, _, err := issuer.Issue("user-1", "ana@example.test")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", time.Hour).Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken with wrong key, got %v", err)
	}

	expired := NewTokenIssuer("secret-a", -time.Minute)
	signedExpired, _, err := expired.Issue("user-1", "")
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}
	if _, err := expired.Verify(signedExpired); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

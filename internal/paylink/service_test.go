package paylink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paiecash/wallet-api/internal/ledger"
	"github.com/paiecash/wallet-api/internal/logging"
)

func newLinkFixture(t *testing.T) (*Service, ledger.Ledger) {
	t.Helper()
	led := ledger.NewInMemory()
	svc := NewService(NewMemoryRepository(), led, nil, time.Hour, logging.Discard())
	return svc, led
}

func seedWallet(t *testing.T, led ledger.Ledger, userID string, balance int64) {
	t.Helper()
	if _, err := led.EnsureWallet(context.Background(), userID, "XAF"); err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	ledger.SeedBalance(led, userID, balance)
}

func TestService_CreateAndResolve(t *testing.T) {
	svc, _ := newLinkFixture(t)

	link, err := svc.Create(context.Background(), "merchant-1", 2500, "Abonnement")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if link.Reference == "" || !link.Active {
		t.Fatalf("expected active link with reference, got %+v", link)
	}

	got, err := svc.Resolve(context.Background(), link.Reference)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Amount != 2500 || got.CreatorID != "merchant-1" {
		t.Fatalf("unexpected link %+v", got)
	}

	if _, err := svc.Create(context.Background(), "merchant-1", 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestService_ResolveRejectsExpired(t *testing.T) {
	svc, _ := newLinkFixture(t)

	link, err := svc.Create(context.Background(), "merchant-1", 1000, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Resolve(context.Background(), link.Reference); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestService_ResolveUnknownReference(t *testing.T) {
	svc, _ := newLinkFixture(t)
	if _, err := svc.Resolve(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_PayWithWalletDebitsAndDeactivates(t *testing.T) {
	svc, led := newLinkFixture(t)
	seedWallet(t, led, "payer-1", 5000)

	link, err := svc.Create(context.Background(), "merchant-1", 2000, "Panier")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tx, err := svc.PayWithWallet(context.Background(), "payer-1", link.Reference)
	if err != nil {
		t.Fatalf("PayWithWallet: %v", err)
	}
	if tx.Amount != -2000 || tx.Status != ledger.StatusCompleted {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	w, err := led.WalletForUser(context.Background(), "payer-1")
	if err != nil {
		t.Fatalf("WalletForUser: %v", err)
	}
	if w.Balance != 3000 {
		t.Fatalf("balance = %d, want 3000", w.Balance)
	}

	if _, err := svc.PayWithWallet(context.Background(), "payer-1", link.Reference); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive on second payment, got %v", err)
	}
}

func TestService_PayWithWalletInsufficientFunds(t *testing.T) {
	svc, led := newLinkFixture(t)
	seedWallet(t, led, "payer-1", 500)

	link, err := svc.Create(context.Background(), "merchant-1", 2000, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.PayWithWallet(context.Background(), "payer-1", link.Reference); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// The failed attempt must leave the link payable.
	if _, err := svc.Resolve(context.Background(), link.Reference); err != nil {
		t.Fatalf("link no longer payable after failed attempt: %v", err)
	}
}

func TestService_Deactivate(t *testing.T) {
	svc, _ := newLinkFixture(t)

	link, err := svc.Create(context.Background(), "merchant-1", 1000, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Deactivate(context.Background(), link.Reference); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.Resolve(context.Background(), link.Reference); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

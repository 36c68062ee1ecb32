package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/paiecash/wallet-api/internal/ledger"
)

func TestService_StatsRequiresAdminEmail(t *testing.T) {
	led := ledger.NewInMemory()
	svc := NewService(led, "admin@paiecash.test")

	if _, err := svc.Stats(context.Background(), "someone@example.test"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Stats(context.Background(), ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for empty email, got %v", err)
	}
	if _, err := svc.Stats(context.Background(), "Admin@PaieCash.Test"); err != nil {
		t.Fatalf("expected case-insensitive match, got %v", err)
	}
}

func TestService_StatsAggregatesLedger(t *testing.T) {
	led := ledger.NewInMemory()
	svc := NewService(led, "admin@paiecash.test")

	if _, err := led.EnsureWallet(context.Background(), "user-1", "XAF"); err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	ledger.SeedBalance(led, "user-1", 4200)

	stats, err := svc.Stats(context.Background(), "admin@paiecash.test")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Wallets != 1 || stats.TotalBalance != 4200 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestService_EmptyAdminConfigDeniesEveryone(t *testing.T) {
	svc := NewService(ledger.NewInMemory(), "")
	if err := svc.Authorize("admin@paiecash.test"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

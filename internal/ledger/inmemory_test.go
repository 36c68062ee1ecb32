package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestInMemoryLedger_EnsureWalletIdempotent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()

	first, err := l.EnsureWallet(ctx, userID, "XAF")
	if err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if first.Balance != 0 {
		t.Fatalf("expected zero initial balance, got %d", first.Balance)
	}

	second, err := l.EnsureWallet(ctx, userID, "EUR")
	if err != nil {
		t.Fatalf("ensure wallet again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same wallet, got %s and %s", first.ID, second.ID)
	}
	if second.Currency != "XAF" {
		t.Fatalf("currency must stay fixed at creation, got %s", second.Currency)
	}
}

func TestInMemoryLedger_SettleDepositCreditsOnce(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	ref := uuid.NewString()
	if _, err := l.RecordPending(ctx, PendingInput{
		UserID:    userID,
		WalletID:  w.ID,
		Type:      TypeDeposit,
		Amount:    1_000,
		Reference: ref,
		Metadata:  Metadata{"method": "stripe"},
	}); err != nil {
		t.Fatalf("record pending: %v", err)
	}

	tx, settled, err := l.SettleDeposit(ctx, ref, 1_000, Metadata{"gateway_event_id": "evt_1"})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !settled {
		t.Fatal("expected settlement to apply")
	}
	if tx.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", tx.Status)
	}
	if tx.Metadata["method"] != "stripe" || tx.Metadata["gateway_event_id"] != "evt_1" {
		t.Fatalf("metadata not merged: %v", tx.Metadata)
	}

	// Replay must be a no-op with no second credit.
	_, settledAgain, err := l.SettleDeposit(ctx, ref, 1_000, nil)
	if err != nil {
		t.Fatalf("replay settle: %v", err)
	}
	if settledAgain {
		t.Fatal("replayed settlement must no-op")
	}

	updated, _ := l.WalletForUser(ctx, userID)
	if updated.Balance != 1_000 {
		t.Fatalf("expected balance 1000, got %d", updated.Balance)
	}
	assertBalanceMatchesLog(t, l, userID, updated.Balance)
}

func TestInMemoryLedger_ConcurrentSettlesCreditOnce(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	ref := uuid.NewString()
	if _, err := l.RecordPending(ctx, PendingInput{
		UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: 2_500, Reference: ref,
	}); err != nil {
		t.Fatalf("record pending: %v", err)
	}

	const deliveries = 8
	var wg sync.WaitGroup
	applied := make(chan bool, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := l.SettleDeposit(ctx, ref, 2_500, nil)
			if err != nil {
				t.Errorf("settle: %v", err)
				return
			}
			applied <- ok
		}()
	}
	wg.Wait()
	close(applied)

	var credits int
	for ok := range applied {
		if ok {
			credits++
		}
	}
	if credits != 1 {
		t.Fatalf("expected exactly one credit, got %d", credits)
	}

	wallet, _ := l.WalletForUser(ctx, userID)
	if wallet.Balance != 2_500 {
		t.Fatalf("expected balance 2500, got %d", wallet.Balance)
	}
}

func TestInMemoryLedger_WithdrawChecksFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	l.EnsureWallet(ctx, userID, "XAF")
	SeedBalance(l, userID, 300)

	if _, _, err := l.Withdraw(ctx, userID, 500, "retrait", uuid.NewString(), nil); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	wallet, _ := l.WalletForUser(ctx, userID)
	if wallet.Balance != 300 {
		t.Fatalf("failed withdrawal must not touch balance, got %d", wallet.Balance)
	}
	history, _ := l.Transactions(ctx, userID, 10)
	if len(history) != 0 {
		t.Fatalf("failed withdrawal must not append to the log, got %d rows", len(history))
	}

	SeedBalance(l, userID, 1_000)
	tx, wallet, err := l.Withdraw(ctx, userID, 500, "retrait", uuid.NewString(), nil)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if wallet.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", wallet.Balance)
	}
	if tx.Amount != -500 || tx.Status != StatusCompleted {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestInMemoryLedger_ConcurrentWithdrawalsNeverOverdraft(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	// Fund through the front door so the invariant check covers everything.
	ref := uuid.NewString()
	l.RecordPending(ctx, PendingInput{UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: 1_000, Reference: ref})
	l.SettleDeposit(ctx, ref, 1_000, nil)

	const workers = 10
	const amount = int64(300)

	var wg sync.WaitGroup
	var okCount int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := l.Withdraw(ctx, userID, amount, "retrait", fmt.Sprintf("ref-%d", i), nil)
			switch {
			case err == nil:
				mu.Lock()
				okCount++
				mu.Unlock()
			case errors.Is(err, ErrInsufficientFunds):
			default:
				t.Errorf("withdraw %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	wallet, _ := l.WalletForUser(ctx, userID)
	if wallet.Balance < 0 {
		t.Fatalf("balance went negative: %d", wallet.Balance)
	}
	if okCount*amount > 1_000 {
		t.Fatalf("successful withdrawals exceed funded amount: %d", okCount*amount)
	}
	if wallet.Balance != 1_000-okCount*amount {
		t.Fatalf("balance %d does not match %d successful withdrawals", wallet.Balance, okCount)
	}
}

func TestInMemoryLedger_DuplicateReference(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	ref := uuid.NewString()
	if _, err := l.RecordPending(ctx, PendingInput{UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: 100, Reference: ref}); err != nil {
		t.Fatalf("record pending: %v", err)
	}
	if _, err := l.RecordPending(ctx, PendingInput{UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: 100, Reference: ref}); !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference, got %v", err)
	}
}

func TestInMemoryLedger_FailPendingLeavesBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	ref := uuid.NewString()
	l.RecordPending(ctx, PendingInput{UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: 750, Reference: ref})

	tx, failed, err := l.FailPending(ctx, ref, Metadata{"reason": "card_declined"})
	if err != nil {
		t.Fatalf("fail pending: %v", err)
	}
	if !failed || tx.Status != StatusFailed {
		t.Fatalf("expected FAILED transition, got %+v", tx)
	}

	wallet, _ := l.WalletForUser(ctx, userID)
	if wallet.Balance != 0 {
		t.Fatalf("failing a pending deposit must not credit, got %d", wallet.Balance)
	}

	// A failed transaction can never be settled afterwards.
	if _, settled, _ := l.SettleDeposit(ctx, ref, 750, nil); settled {
		t.Fatal("settling a FAILED transaction must no-op")
	}
}

func TestInMemoryLedger_TransactionsOrdering(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	userID := uuid.NewString()
	w, _ := l.EnsureWallet(ctx, userID, "XAF")

	for i := 0; i < 3; i++ {
		ref := uuid.NewString()
		l.RecordPending(ctx, PendingInput{UserID: userID, WalletID: w.ID, Type: TypeDeposit, Amount: int64(100 * (i + 1)), Reference: ref})
		l.SettleDeposit(ctx, ref, int64(100*(i+1)), nil)
	}

	history, err := l.Transactions(ctx, userID, 2)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(history))
	}
	if !history[0].CreatedAt.After(history[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
	if history[0].Amount != 300 {
		t.Fatalf("expected latest deposit first, got %d", history[0].Amount)
	}
}

// assertBalanceMatchesLog checks the core invariant: the wallet balance equals
// the signed sum of its COMPLETED transactions.
func assertBalanceMatchesLog(t *testing.T, l Ledger, userID string, want int64) {
	t.Helper()
	history, err := l.Transactions(context.Background(), userID, 1000)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	var sum int64
	for _, tx := range history {
		if tx.Status == StatusCompleted {
			sum += tx.Amount
		}
	}
	if sum != want {
		t.Fatalf("completed sum %d != expected %d", sum, want)
	}
}

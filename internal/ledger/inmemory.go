package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu           sync.Mutex
	walletsByUID map[string]*Wallet
	transactions map[string]*Transaction // by transaction id
	byReference  map[string]string       // reference -> transaction id
	seq          int64
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and gateway-less development. One mutex plays the role the database
// transaction plays in the Postgres backend.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		walletsByUID: make(map[string]*Wallet),
		transactions: make(map[string]*Transaction),
		byReference:  make(map[string]string),
	}
}

func (l *inMemoryLedger) EnsureWallet(_ context.Context, userID, currency string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.walletsByUID[userID]; ok {
		return *w, nil
	}
	w := &Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   0,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}
	l.walletsByUID[userID] = w
	return *w, nil
}

func (l *inMemoryLedger) WalletForUser(_ context.Context, userID string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.walletsByUID[userID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return *w, nil
}

func (l *inMemoryLedger) RecordPending(_ context.Context, input PendingInput) (Transaction, error) {
	if input.Amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if input.Type == TypeDeposit && input.Amount < 0 {
		return Transaction{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byReference[input.Reference]; exists {
		return Transaction{}, ErrDuplicateReference
	}

	l.seq++
	tx := &Transaction{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		WalletID:    input.WalletID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Status:      StatusPending,
		Reference:   input.Reference,
		Metadata:    input.Metadata.clone(),
		CreatedAt:   time.Now().UTC().Add(time.Duration(l.seq)), // stable ordering
	}
	l.transactions[tx.ID] = tx
	l.byReference[tx.Reference] = tx.ID
	return *tx, nil
}

func (l *inMemoryLedger) PendingByReference(_ context.Context, reference string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tx := l.pendingByReference(reference, "")
	if tx == nil {
		return Transaction{}, ErrTransactionNotFound
	}
	return *tx, nil
}

func (l *inMemoryLedger) SettleDeposit(_ context.Context, reference string, credit int64, extra Metadata) (Transaction, bool, error) {
	if credit <= 0 {
		return Transaction{}, false, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.pendingByReference(reference, TypeDeposit)
	if tx == nil {
		return Transaction{}, false, nil
	}

	wallet := l.walletByID(tx.WalletID)
	if wallet == nil {
		return Transaction{}, false, ErrWalletNotFound
	}

	wallet.Balance += credit
	tx.Amount = credit
	tx.Status = StatusCompleted
	tx.Metadata = tx.Metadata.merge(extra)
	return *tx, true, nil
}

func (l *inMemoryLedger) FailPending(_ context.Context, reference string, extra Metadata) (Transaction, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := l.pendingByReference(reference, "")
	if tx == nil {
		return Transaction{}, false, nil
	}
	tx.Status = StatusFailed
	tx.Metadata = tx.Metadata.merge(extra)
	return *tx, true, nil
}

func (l *inMemoryLedger) Withdraw(_ context.Context, userID string, amount int64, description, reference string, meta Metadata) (Transaction, Wallet, error) {
	if amount <= 0 {
		return Transaction{}, Wallet{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wallet, ok := l.walletsByUID[userID]
	if !ok {
		return Transaction{}, Wallet{}, ErrWalletNotFound
	}
	if wallet.Balance < amount {
		return Transaction{}, Wallet{}, ErrInsufficientFunds
	}
	if _, exists := l.byReference[reference]; exists {
		return Transaction{}, Wallet{}, ErrDuplicateReference
	}

	wallet.Balance -= amount
	l.seq++
	tx := &Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		WalletID:    wallet.ID,
		Type:        TypeWithdrawal,
		Amount:      -amount,
		Description: description,
		Status:      StatusCompleted,
		Reference:   reference,
		Metadata:    meta.clone(),
		CreatedAt:   time.Now().UTC().Add(time.Duration(l.seq)),
	}
	l.transactions[tx.ID] = tx
	l.byReference[reference] = tx.ID
	return *tx, *wallet, nil
}

func (l *inMemoryLedger) Transactions(_ context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Transaction
	for _, tx := range l.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *inMemoryLedger) Stats(_ context.Context) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{
		Wallets:      int64(len(l.walletsByUID)),
		Users:        int64(len(l.walletsByUID)),
		Transactions: int64(len(l.transactions)),
	}
	for _, w := range l.walletsByUID {
		s.TotalBalance += w.Balance
	}
	var all []Transaction
	for _, tx := range l.transactions {
		all = append(all, *tx)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > 10 {
		all = all[:10]
	}
	s.Recent = all
	return s, nil
}

// callers must hold l.mu
func (l *inMemoryLedger) pendingByReference(reference, txType string) *Transaction {
	id, ok := l.byReference[reference]
	if !ok {
		return nil
	}
	tx := l.transactions[id]
	if tx == nil || tx.Status != StatusPending {
		return nil
	}
	if txType != "" && tx.Type != txType {
		return nil
	}
	return tx
}

// callers must hold l.mu
func (l *inMemoryLedger) walletByID(id string) *Wallet {
	for _, w := range l.walletsByUID {
		if w.ID == id {
			return w
		}
	}
	return nil
}

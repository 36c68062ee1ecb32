package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidAmount occurs when a posting carries a zero or wrongly-signed amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds occurs when a debit would drive the wallet balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound indicates the user has no wallet row. Wallets are
	// provisioned at signup, so hitting this is a data-integrity fault.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrDuplicateReference indicates the transaction reference already exists.
	// References are random 128-bit identifiers, so callers should retry with
	// a fresh one.
	ErrDuplicateReference = errors.New("duplicate transaction reference")

	// ErrTransactionNotFound indicates no transaction matches the lookup.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Transaction types.
const (
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
)

// Transaction statuses. PENDING rows only ever move to COMPLETED or FAILED.
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Metadata is the opaque key/value bag carried on a transaction. Settlement
// merges new keys in without discarding what was recorded at initiation.
type Metadata map[string]string

// Wallet is the single stored-value account each user owns.
type Wallet struct {
	ID        string
	UserID    string
	Balance   int64
	Currency  string
	CreatedAt time.Time
}

// Transaction is one balance-affecting event. Amounts are signed ledger minor
// units: positive for deposits, negative for withdrawals.
type Transaction struct {
	ID          string
	UserID      string
	WalletID    string
	Type        string
	Amount      int64
	Description string
	Status      string
	Reference   string
	Metadata    Metadata
	CreatedAt   time.Time
}

// PendingInput captures the data recorded when a deposit is initiated.
type PendingInput struct {
	UserID      string
	WalletID    string
	Type        string
	Amount      int64
	Description string
	Reference   string
	Metadata    Metadata
}

// Stats aggregates platform-wide figures for the admin surface.
type Stats struct {
	Users        int64
	Wallets      int64
	Transactions int64
	TotalBalance int64
	Recent       []Transaction
}

// Ledger is the contract implemented by the transactional backends. Every
// method that mutates a balance together with the transaction log does so in
// one atomic unit: partial application is never observable.
type Ledger interface {
	// EnsureWallet provisions the user's wallet with a zero balance if it does
	// not exist yet, and returns it either way. The currency is fixed at
	// creation.
	EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error)

	// WalletForUser returns the wallet owned by userID.
	WalletForUser(ctx context.Context, userID string) (Wallet, error)

	// RecordPending appends a PENDING transaction awaiting settlement.
	RecordPending(ctx context.Context, input PendingInput) (Transaction, error)

	// PendingByReference returns the PENDING transaction with the given
	// reference, or ErrTransactionNotFound. Filtering on status keeps
	// reconciliation naturally idempotent: an already-settled reference looks
	// like no work to do.
	PendingByReference(ctx context.Context, reference string) (Transaction, error)

	// SettleDeposit atomically finds the PENDING deposit with the given
	// reference, credits its wallet by credit, and marks it COMPLETED merging
	// extra into the stored metadata. The second return is false when no
	// pending row matches, which makes replayed settlements a harmless no-op.
	SettleDeposit(ctx context.Context, reference string, credit int64, extra Metadata) (Transaction, bool, error)

	// FailPending marks the PENDING transaction with the given reference as
	// FAILED without touching any balance. Returns false when nothing matched.
	FailPending(ctx context.Context, reference string, extra Metadata) (Transaction, bool, error)

	// Withdraw atomically debits the user's wallet and appends a COMPLETED
	// transaction with a negative amount. The debit is conditional on the
	// balance covering it, so concurrent withdrawals cannot overdraft.
	Withdraw(ctx context.Context, userID string, amount int64, description, reference string, meta Metadata) (Transaction, Wallet, error)

	// Transactions lists the user's history, most recent first.
	Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error)

	// Stats aggregates platform totals and the most recent transactions.
	Stats(ctx context.Context) (Stats, error)
}

func (m Metadata) clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// merge overlays extra on top of m, keeping keys extra does not supply.
func (m Metadata) merge(extra Metadata) Metadata {
	out := m.clone()
	for k, v := range extra {
		out[k] = v
	}
	return out
}

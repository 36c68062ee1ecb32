package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists wallets and transactions in PostgreSQL. Balance
// mutations and their log rows are applied inside a single transaction with
// row-level locking, so the wallet balance always equals the sum of its
// COMPLETED transaction amounts.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed ledger.
func NewPostgres(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const transactionColumns = `id, user_id, wallet_id, type, amount, description, status, reference, metadata, created_at`

// EnsureWallet provisions the wallet row for userID if absent. The unique
// constraint on user_id enforces exactly one wallet per user even when two
// signups race.
func (l *PostgresLedger) EnsureWallet(ctx context.Context, userID, currency string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse user id: %w", err)
	}
	_, err = l.db.Exec(ctx, `INSERT INTO wallets (id, user_id, balance, currency, created_at)
        VALUES ($1, $2, 0, $3, $4)
        ON CONFLICT (user_id) DO NOTHING`, uuid.New(), uid, currency, time.Now().UTC())
	if err != nil {
		return Wallet{}, err
	}
	return l.WalletForUser(ctx, userID)
}

// WalletForUser fetches the wallet owned by userID.
func (l *PostgresLedger) WalletForUser(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse user id: %w", err)
	}
	row := l.db.QueryRow(ctx, `SELECT id, user_id, balance, currency, created_at
        FROM wallets WHERE user_id = $1`, uid)
	return scanWallet(row)
}

// RecordPending appends a PENDING transaction row.
func (l *PostgresLedger) RecordPending(ctx context.Context, input PendingInput) (Transaction, error) {
	if input.Amount == 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if input.Type == TypeDeposit && input.Amount < 0 {
		return Transaction{}, ErrInvalidAmount
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		WalletID:    input.WalletID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Status:      StatusPending,
		Reference:   input.Reference,
		Metadata:    input.Metadata.clone(),
		CreatedAt:   time.Now().UTC(),
	}

	meta, err := json.Marshal(tx.Metadata)
	if err != nil {
		return Transaction{}, fmt.Errorf("encode metadata: %w", err)
	}

	_, err = l.db.Exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.UserID, tx.WalletID, tx.Type, tx.Amount, tx.Description, tx.Status, tx.Reference, meta, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Transaction{}, ErrDuplicateReference
		}
		return Transaction{}, err
	}
	return tx, nil
}

// PendingByReference fetches the PENDING transaction carrying reference.
func (l *PostgresLedger) PendingByReference(ctx context.Context, reference string) (Transaction, error) {
	row := l.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE reference = $1 AND status = $2`, reference, StatusPending)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, ErrTransactionNotFound
		}
		return Transaction{}, err
	}
	return tx, nil
}

// SettleDeposit credits the wallet and completes the pending transaction in
// one database transaction. The FOR UPDATE lock on the pending row serialises
// duplicate webhook deliveries: whichever commits first flips the status, the
// loser finds no PENDING row and no-ops.
func (l *PostgresLedger) SettleDeposit(ctx context.Context, reference string, credit int64, extra Metadata) (Transaction, bool, error) {
	if credit <= 0 {
		return Transaction{}, false, ErrInvalidAmount
	}

	dbtx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, false, err
	}
	defer dbtx.Rollback(ctx) // nolint:errcheck

	row := dbtx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE reference = $1 AND status = $2 AND type = $3
        FOR UPDATE`, reference, StatusPending, TypeDeposit)
	pending, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already settled or unknown reference: idempotent no-op.
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}

	if _, err := dbtx.Exec(ctx, `UPDATE wallets SET balance = balance + $1 WHERE id = $2`, credit, pending.WalletID); err != nil {
		return Transaction{}, false, err
	}

	merged := pending.Metadata.merge(extra)
	meta, err := json.Marshal(merged)
	if err != nil {
		return Transaction{}, false, fmt.Errorf("encode metadata: %w", err)
	}
	// The credited figure becomes the transaction amount so the wallet balance
	// stays equal to the sum of its COMPLETED amounts.
	if _, err := dbtx.Exec(ctx, `UPDATE transactions SET status = $1, amount = $2, metadata = $3 WHERE id = $4`,
		StatusCompleted, credit, meta, pending.ID); err != nil {
		return Transaction{}, false, err
	}

	if err := dbtx.Commit(ctx); err != nil {
		return Transaction{}, false, err
	}

	pending.Status = StatusCompleted
	pending.Amount = credit
	pending.Metadata = merged
	return pending, true, nil
}

// FailPending flips a PENDING transaction to FAILED. No balance effect.
func (l *PostgresLedger) FailPending(ctx context.Context, reference string, extra Metadata) (Transaction, bool, error) {
	dbtx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, false, err
	}
	defer dbtx.Rollback(ctx) // nolint:errcheck

	row := dbtx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE reference = $1 AND status = $2
        FOR UPDATE`, reference, StatusPending)
	pending, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, err
	}

	merged := pending.Metadata.merge(extra)
	meta, err := json.Marshal(merged)
	if err != nil {
		return Transaction{}, false, fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := dbtx.Exec(ctx, `UPDATE transactions SET status = $1, metadata = $2 WHERE id = $3`,
		StatusFailed, meta, pending.ID); err != nil {
		return Transaction{}, false, err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return Transaction{}, false, err
	}

	pending.Status = StatusFailed
	pending.Metadata = merged
	return pending, true, nil
}

// Withdraw performs a conditional decrement so the balance check and the debit
// are one statement: a concurrent withdrawal cannot slip between them.
func (l *PostgresLedger) Withdraw(ctx context.Context, userID string, amount int64, description, reference string, meta Metadata) (Transaction, Wallet, error) {
	if amount <= 0 {
		return Transaction{}, Wallet{}, ErrInvalidAmount
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Transaction{}, Wallet{}, fmt.Errorf("parse user id: %w", err)
	}

	dbtx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Wallet{}, err
	}
	defer dbtx.Rollback(ctx) // nolint:errcheck

	row := dbtx.QueryRow(ctx, `UPDATE wallets SET balance = balance - $1
        WHERE user_id = $2 AND balance >= $1
        RETURNING id, user_id, balance, currency, created_at`, amount, uid)
	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing wallet from an uncovered debit.
			if _, lookupErr := l.WalletForUser(ctx, userID); lookupErr != nil {
				return Transaction{}, Wallet{}, lookupErr
			}
			return Transaction{}, Wallet{}, ErrInsufficientFunds
		}
		return Transaction{}, Wallet{}, err
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		WalletID:    wallet.ID,
		Type:        TypeWithdrawal,
		Amount:      -amount,
		Description: description,
		Status:      StatusCompleted,
		Reference:   reference,
		Metadata:    meta.clone(),
		CreatedAt:   time.Now().UTC(),
	}
	encoded, err := json.Marshal(tx.Metadata)
	if err != nil {
		return Transaction{}, Wallet{}, fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := dbtx.Exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.UserID, tx.WalletID, tx.Type, tx.Amount, tx.Description, tx.Status, tx.Reference, encoded, tx.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Transaction{}, Wallet{}, ErrDuplicateReference
		}
		return Transaction{}, Wallet{}, err
	}

	if err := dbtx.Commit(ctx); err != nil {
		return Transaction{}, Wallet{}, err
	}
	return tx, wallet, nil
}

// Transactions lists the user's history ordered by creation time descending.
func (l *PostgresLedger) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Stats aggregates platform totals for the admin surface.
func (l *PostgresLedger) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	row := l.db.QueryRow(ctx, `SELECT
        (SELECT COUNT(*) FROM users),
        (SELECT COUNT(*) FROM wallets),
        (SELECT COUNT(*) FROM transactions),
        (SELECT COALESCE(SUM(balance), 0) FROM wallets)`)
	if err := row.Scan(&s.Users, &s.Wallets, &s.Transactions, &s.TotalBalance); err != nil {
		return Stats{}, err
	}

	rows, err := l.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions
        ORDER BY created_at DESC LIMIT 10`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return Stats{}, err
		}
		s.Recent = append(s.Recent, tx)
	}
	return s, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id, uid   uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &uid, &w.Balance, &w.Currency, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = uid.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		tx            Transaction
		id, uid, wid  uuid.UUID
		rawMeta       []byte
		createdAt     time.Time
	)
	if err := row.Scan(&id, &uid, &wid, &tx.Type, &tx.Amount, &tx.Description, &tx.Status, &tx.Reference, &rawMeta, &createdAt); err != nil {
		return Transaction{}, err
	}
	tx.ID = id.String()
	tx.UserID = uid.String()
	tx.WalletID = wid.String()
	tx.CreatedAt = createdAt.UTC()
	tx.Metadata = Metadata{}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &tx.Metadata); err != nil {
			return Transaction{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return tx, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

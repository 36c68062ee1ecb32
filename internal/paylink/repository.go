package paylink

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists payment links.
type Repository interface {
	Create(ctx context.Context, link PaymentLink) error
	FindByReference(ctx context.Context, reference string) (PaymentLink, error)
	// Deactivate flips the link inactive and reports whether it was active.
	Deactivate(ctx context.Context, reference string) (bool, error)
}

const linkColumns = "id, creator_id, reference, amount, description, active, expires_at, created_at"

// PostgresRepository stores payment links in the payment_links table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, link PaymentLink) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO payment_links (`+linkColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		link.ID, link.CreatorID, link.Reference, link.Amount, link.Description, link.Active, link.ExpiresAt, link.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) FindByReference(ctx context.Context, reference string) (PaymentLink, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+linkColumns+` FROM payment_links WHERE reference = $1`, reference)

	var link PaymentLink
	err := row.Scan(&link.ID, &link.CreatorID, &link.Reference, &link.Amount, &link.Description, &link.Active, &link.ExpiresAt, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentLink{}, ErrNotFound
		}
		return PaymentLink{}, err
	}
	return link, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, reference string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE payment_links SET active = FALSE WHERE reference = $1 AND active`, reference)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

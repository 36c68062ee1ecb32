package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindBySubject(ctx context.Context, subject string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdateProfile(ctx context.Context, user User) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, subject, email, name, user_type, metadata, created_at, last_login`

// Create inserts a new user.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(user.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, user.Subject, user.Email, user.Name, user.UserType, meta, user.CreatedAt.UTC(), user.LastLogin.UTC())
	return err
}

// FindBySubject fetches a user by the identity provider's subject id.
func (r *PostgresRepository) FindBySubject(ctx context.Context, subject string) (User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE subject = $1`, subject)
	return scanUser(row)
}

// FindByID fetches a user by internal identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// UpdateProfile refreshes the mutable profile fields and login timestamp.
// The subject id is immutable and is not part of the update.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(user.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET email = $1, name = $2, user_type = $3, metadata = $4, last_login = $5
        WHERE id = $6`, user.Email, user.Name, user.UserType, meta, user.LastLogin.UTC(), userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		rawMeta   []byte
		createdAt time.Time
		lastLogin time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Subject, &user.Email, &user.Name, &user.UserType, &rawMeta, &createdAt, &lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	user.LastLogin = lastLogin.UTC()
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &user.Metadata); err != nil {
			return User{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return user, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// DB is the subset of pgxpool.Pool the repositories use. Transactions
// satisfy it too, so a repository can run inside one when needed.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// User is one account row. Email and PasswordHash are nil for guests
// and OAuth-only accounts.
type User struct {
	ID           uuid.UUID
	Email        *string
	PasswordHash *string
	DisplayName  string
	UserType     string
	Metadata     []byte
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// CreateUserParams carries the fields of a new account. A zero ID lets
// the repository assign one.
type CreateUserParams struct {
	ID           uuid.UUID
	Email        *string
	PasswordHash *string
	DisplayName  string
	UserType     string
	Metadata     []byte
}

// PromoteGuestParams upgrades a guest row to a registered account.
type PromoteGuestParams struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

// UserRepository exposes the account operations auth flows need.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a user repository over a pgx pool.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, email, password_hash, display_name, user_type, metadata, created_at, last_login_at`

// CreateUser inserts a new account row and returns it.
func (r *UserRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}
	if params.Metadata == nil {
		params.Metadata = []byte(`{}`)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO users (user_id, email, password_hash, display_name, user_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		params.ID, params.Email, params.PasswordHash, params.DisplayName, params.UserType, params.Metadata)
	return scanUser(row)
}

// GetByEmail fetches the account registered under an email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches an account by id.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PromoteGuest atomically turns a guest row into a registered account.
// The row must still be a guest; a concurrent promotion loses.
func (r *UserRepository) PromoteGuest(ctx context.Context, params PromoteGuestParams) (User, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, user_type = 'registered'
		WHERE user_id = $1 AND user_type = 'guest'
		RETURNING `+userColumns,
		params.UserID, params.Email, params.PasswordHash)
	return scanUser(row)
}

// UpdateLogin stamps the account's last login time.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET last_login_at = now() WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("update login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the account's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE user_id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.UserType, &u.Metadata, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

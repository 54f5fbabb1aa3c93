package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores admin users in Postgres.
type Repository struct {
	db DB
}

// NewRepository creates an admin user repository.
func NewRepository(db DB) *Repository {
	if db == nil {
		panic("admin: db required")
	}
	return &Repository{db: db}
}

// Create inserts a new admin account with a bcrypt password hash.
func (r *Repository) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("admin: hash password: %w", err)
	}

	id := uuid.NewString()
	query := `
		INSERT INTO admin_users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Email, string(hash), req.Name, req.Role).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("admin: insert user failed: %w", err)
	}

	return &User{
		ID:        id,
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: createdAt,
	}, nil
}

// Delete removes an admin account by id.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("admin: delete user failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all admin accounts, newest first.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, email, name, role, created_at
		FROM admin_users
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("admin: list users failed: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("admin: scan user failed: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("admin: list rows failed: %w", err)
	}
	return users, nil
}

// Authenticate verifies credentials and returns the matching account.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at
		FROM admin_users
		WHERE email = $1
	`
	var u User
	var hash string
	err := r.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &hash, &u.Name, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("admin: lookup user failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
)

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	CountAdmins(ctx context.Context) (int, error)
}

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// uniqueViolation is the Postgres error code for a broken unique index.
const uniqueViolation = "23505"

// Create inserts u and fills in its id. Username/email conflicts are
// decided by the case-insensitive unique indexes, not by a pre-check.
func (s *PostgresUserStore) Create(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO users (username, full_name, email, role, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := s.db.QueryRowContext(ctx, q,
		u.Username, u.FullName, u.Email, string(u.Role), u.PasswordHash, u.PasswordSalt, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, "email") {
				return ErrEmailTaken
			}
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

func (s *PostgresUserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
		SELECT id, username, full_name, email, role, password_hash, password_salt, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`
	return s.scanUser(s.db.QueryRowContext(ctx, q, username))
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
		SELECT id, username, full_name, email, role, password_hash, password_salt, created_at
		FROM users
		WHERE id = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, q, id))
}

func (s *PostgresUserStore) CountAdmins(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE role = $1`
	var n int
	if err := s.db.QueryRowContext(ctx, q, string(RoleAdmin)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresUserStore) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Email, &role,
		&u.PasswordHash, &u.PasswordSalt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Role = Role(role)
	return u, nil
}

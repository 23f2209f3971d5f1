// Package auth provides user accounts, credential verification and JWT
// issuance. The trading core never sees any of this - it receives an
// already-authenticated user id from the request context.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundfolio/fundfolio/internal/domain"
)

const usersColumns = `id, name, email, password, created_at`

// UserRepository handles user database operations
type UserRepository struct {
	usersDB *sql.DB
	log     zerolog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(usersDB *sql.DB, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		usersDB: usersDB,
		log:     log.With().Str("repo", "user").Logger(),
	}
}

// Create inserts a new user.
// Returns domain.ErrEmailTaken when the email is already registered.
func (r *UserRepository) Create(user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	query := `INSERT INTO users (id, name, email, password, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.usersDB.Exec(query,
		user.ID,
		user.Name,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.CreatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info().Str("user_id", user.ID).Msg("User created")
	return nil
}

// GetByEmail retrieves a user by email.
// Returns domain.ErrUserNotFound when no such user exists.
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE email = ?"

	row := r.usersDB.QueryRow(query, normalizeEmail(email))
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by id.
// Returns domain.ErrUserNotFound when no such user exists.
func (r *UserRepository) GetByID(id string) (*domain.User, error) {
	query := "SELECT " + usersColumns + " FROM users WHERE id = ?"

	row := r.usersDB.QueryRow(query, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user      domain.User
		createdAt int64
	)

	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

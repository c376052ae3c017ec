package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatherworks/coordinator/internal/models"
)

// ErrInvalidCredentials is returned when authentication fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *UserStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new user with a hashed password. An empty password leaves
// the account passwordless (magic-link only).
func (s *UserStore) Create(ctx context.Context, email, password, name string) (*models.User, error) {
	var passwordHash string
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		passwordHash = string(hashed)
	}

	user := &models.User{
		ID:            uuid.New().String(),
		Email:         email,
		Name:          name,
		BillingStatus: models.BillingFree,
		CreatedAt:     time.Now(),
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, billing_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn().ExecContext(ctx, query,
		user.ID, user.Email, user.Name, passwordHash,
		string(user.BillingStatus), user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateKey
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var billingStatus string

	err := row.Scan(&u.ID, &u.Email, &u.Name, &billingStatus, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.BillingStatus = models.BillingStatus(billingStatus)
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, billing_status, created_at FROM users WHERE email = $1`
	return scanUser(s.conn().QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, billing_status, created_at FROM users WHERE id = $1`
	return scanUser(s.conn().QueryRowContext(ctx, query, id))
}

// Authenticate verifies credentials and returns the user.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	query := `SELECT id, email, name, password_hash, billing_status, created_at FROM users WHERE email = $1`

	var u models.User
	var passwordHash, billingStatus string
	err := s.conn().QueryRowContext(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &passwordHash, &billingStatus, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// Passwordless accounts cannot authenticate this way.
	if passwordHash == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u.BillingStatus = models.BillingStatus(billingStatus)
	return &u, nil
}

// SetBillingStatus updates the user's billing status.
func (s *UserStore) SetBillingStatus(ctx context.Context, id string, status models.BillingStatus) error {
	query := `UPDATE users SET billing_status = $1 WHERE id = $2`
	res, err := s.conn().ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/pkg/apperrors"
)

// Auth handles authentication operations
type Auth struct {
	pool *pgxpool.Pool
}

// NewAuth creates a new Auth instance
func NewAuth(pool *pgxpool.Pool) *Auth {
	return &Auth{pool: pool}
}

// RegisterUser creates a new user account
func (a *Auth) RegisterUser(ctx context.Context, email, password, name string) (*models.User, error) {
	// Check if user already exists
	var existingID string
	err := a.pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existingID)
	if err == nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("user with email %s already exists", email))
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := uuid.New().String()
	_, err = a.pool.Exec(ctx,
		"INSERT INTO users (id, email, password_hash, name, created_at, updated_at) VALUES ($1, $2, $3, $4, now(), now())",
		userID, email, passwordHash, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return a.GetUserByID(ctx, userID)
}

// GetUserByID retrieves a user by ID
func (a *Auth) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := a.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at, updated_at FROM users WHERE id = $1",
		id,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (a *Auth) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := a.pool.QueryRow(ctx,
		"SELECT id, email, password_hash, name, created_at, updated_at FROM users WHERE email = $1",
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// LoginUser authenticates a user and creates a session
func (a *Auth) LoginUser(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := a.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, "", apperrors.Unauthorized("invalid email or password")
	}

	sessionToken, err := GenerateSessionToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	sessionID := uuid.New().String()
	_, err = a.pool.Exec(ctx,
		"INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES ($1, $2, $3, $4, now())",
		sessionID, user.ID, sessionToken, CalculateExpiry())
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	return user, sessionToken, nil
}

// ValidateSession checks a session token and returns the session's user
func (a *Auth) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	var userID string
	var expiresAt time.Time
	err := a.pool.QueryRow(ctx,
		"SELECT user_id, expires_at FROM sessions WHERE token = $1",
		token,
	).Scan(&userID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Unauthorized("invalid session")
		}
		return nil, fmt.Errorf("failed to validate session: %w", err)
	}

	if time.Now().After(expiresAt) {
		return nil, apperrors.Unauthorized("session expired")
	}

	return a.GetUserByID(ctx, userID)
}

// Logout deletes a session
func (a *Auth) Logout(ctx context.Context, token string) error {
	if _, err := a.pool.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions
func (a *Auth) CleanupExpiredSessions(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at < now()"); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

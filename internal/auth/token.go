package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridbase/gridbase/internal/models"
)

const tokenDuration = 90 * 24 * time.Hour

// APIToken is a long-lived token for programmatic API access. The JWT itself
// is only shown once at creation; the record tracks the token id for revocation.
type APIToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenService issues and validates JWT API tokens
type TokenService struct {
	pool   *pgxpool.Pool
	secret []byte
	auth   *Auth
}

// NewTokenService creates a TokenService. secret signs the issued JWTs.
func NewTokenService(pool *pgxpool.Pool, secret string, auth *Auth) *TokenService {
	return &TokenService{pool: pool, secret: []byte(secret), auth: auth}
}

// CreateToken issues a new API token for a user. Returns the signed JWT and
// the stored record.
func (s *TokenService) CreateToken(ctx context.Context, userID, name string) (string, *APIToken, error) {
	tokenID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(tokenDuration)

	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "gridbase",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		"INSERT INTO api_tokens (id, user_id, name, expires_at, created_at) VALUES ($1, $2, $3, $4, now())",
		tokenID, userID, name, expiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to store token: %w", err)
	}

	return signed, &APIToken{
		ID:        tokenID,
		UserID:    userID,
		Name:      name,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateToken parses a JWT API token, checks it against the revocation
// table and returns the token's user.
func (s *TokenService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	// A revoked token's record is gone.
	var userID string
	err = s.pool.QueryRow(ctx, "SELECT user_id FROM api_tokens WHERE id = $1", claims.ID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("token revoked")
		}
		return nil, fmt.Errorf("failed to check token: %w", err)
	}

	return s.auth.GetUserByID(ctx, userID)
}

// ListTokens returns a user's API token records
func (s *TokenService) ListTokens(ctx context.Context, userID string) ([]APIToken, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, user_id, name, expires_at, created_at FROM api_tokens WHERE user_id = $1 ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []APIToken
	for rows.Next() {
		var t APIToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// RevokeToken deletes a token record, invalidating the JWT
func (s *TokenService) RevokeToken(ctx context.Context, userID, tokenID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM api_tokens WHERE id = $1 AND user_id = $2", tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("token not found")
	}
	return nil
}

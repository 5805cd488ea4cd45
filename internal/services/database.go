package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridbase/gridbase/internal/models"
)

// DatabaseService handles tenant database operations
type DatabaseService struct {
	pool *pgxpool.Pool
}

// NewDatabaseService creates a new DatabaseService
func NewDatabaseService(pool *pgxpool.Pool) *DatabaseService {
	return &DatabaseService{pool: pool}
}

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	var result strings.Builder
	for _, char := range slug {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' {
			result.WriteRune(char)
		}
	}
	return result.String()
}

// CreateDatabase creates a database and adds the owner as a member
func (s *DatabaseService) CreateDatabase(ctx context.Context, name, ownerID string) (*models.Database, error) {
	baseSlug := generateSlug(name)
	slug := baseSlug

	for {
		var existingID string
		err := s.pool.QueryRow(ctx, "SELECT id FROM databases WHERE slug = $1", slug).Scan(&existingID)
		if errors.Is(err, pgx.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
		}
		slug = baseSlug + "-" + uuid.New().String()[:8]
	}

	databaseID := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		"INSERT INTO databases (id, name, slug, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, now(), now())",
		databaseID, name, slug, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	memberID := uuid.New().String()
	_, err = s.pool.Exec(ctx,
		"INSERT INTO database_members (id, database_id, user_id, role, created_at) VALUES ($1, $2, $3, $4, now())",
		memberID, databaseID, ownerID, "owner")
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	return s.GetDatabaseByID(ctx, databaseID)
}

// GetDatabaseByID retrieves a database by ID
func (s *DatabaseService) GetDatabaseByID(ctx context.Context, id string) (*models.Database, error) {
	var db models.Database
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, slug, owner_id, created_at, updated_at FROM databases WHERE id = $1",
		id,
	).Scan(&db.ID, &db.Name, &db.Slug, &db.OwnerID, &db.CreatedAt, &db.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("database not found")
		}
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	return &db, nil
}

// ListDatabasesByUser lists databases a user owns or is a member of
func (s *DatabaseService) ListDatabasesByUser(ctx context.Context, userID string) ([]*models.Database, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT d.id, d.name, d.slug, d.owner_id, d.created_at, d.updated_at
		 FROM databases d
		 LEFT JOIN database_members dm ON d.id = dm.database_id
		 WHERE d.owner_id = $1 OR dm.user_id = $1
		 ORDER BY d.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var databases []*models.Database
	for rows.Next() {
		var db models.Database
		if err := rows.Scan(&db.ID, &db.Name, &db.Slug, &db.OwnerID, &db.CreatedAt, &db.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}
		databases = append(databases, &db)
	}
	return databases, rows.Err()
}

// UpdateDatabase renames a database
func (s *DatabaseService) UpdateDatabase(ctx context.Context, id, name string) (*models.Database, error) {
	baseSlug := generateSlug(name)
	slug := baseSlug

	var existingID string
	err := s.pool.QueryRow(ctx, "SELECT id FROM databases WHERE slug = $1 AND id <> $2", slug, id).Scan(&existingID)
	if err == nil {
		slug = baseSlug + "-" + uuid.New().String()[:8]
	}

	_, err = s.pool.Exec(ctx,
		"UPDATE databases SET name = $1, slug = $2, updated_at = now() WHERE id = $3",
		name, slug, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update database: %w", err)
	}

	return s.GetDatabaseByID(ctx, id)
}

// DeleteDatabase deletes a database; tables, columns, rows and cells cascade
func (s *DatabaseService) DeleteDatabase(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM databases WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	return nil
}

// MemberRole returns the user's role in a database, or "" when not a member
func (s *DatabaseService) MemberRole(ctx context.Context, databaseID, userID string) (string, error) {
	var role string
	err := s.pool.QueryRow(ctx,
		"SELECT role FROM database_members WHERE database_id = $1 AND user_id = $2",
		databaseID, userID,
	).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check membership: %w", err)
	}
	return role, nil
}

// AddMember grants a user a role in a database
func (s *DatabaseService) AddMember(ctx context.Context, databaseID, userID, role string) error {
	memberID := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO database_members (id, database_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (database_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		memberID, databaseID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// IsOwner checks if a user owns a database
func (s *DatabaseService) IsOwner(ctx context.Context, databaseID, userID string) (bool, error) {
	var ownerID string
	err := s.pool.QueryRow(ctx, "SELECT owner_id FROM databases WHERE id = $1", databaseID).Scan(&ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return ownerID == userID, nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/store"
)

// TableService handles table operations within a database
type TableService struct {
	pool   *pgxpool.Pool
	schema *schema.Service
	store  store.Store
}

// NewTableService creates a new TableService
func NewTableService(pool *pgxpool.Pool, schemaService *schema.Service, st store.Store) *TableService {
	return &TableService{pool: pool, schema: schemaService, store: st}
}

// CreateTable creates a table in a database
func (s *TableService) CreateTable(ctx context.Context, databaseID, name, description string) (*models.Table, error) {
	var table models.Table
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tables (database_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 RETURNING id, database_id, name, description, created_at, updated_at`,
		databaseID, name, description,
	).Scan(&table.ID, &table.DatabaseID, &table.Name, &table.Description, &table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, nil
}

// GetTable retrieves a table by id, scoped to its database
func (s *TableService) GetTable(ctx context.Context, databaseID string, tableID int64) (*models.Table, error) {
	var table models.Table
	err := s.pool.QueryRow(ctx,
		"SELECT id, database_id, name, description, created_at, updated_at FROM tables WHERE id = $1 AND database_id = $2",
		tableID, databaseID,
	).Scan(&table.ID, &table.DatabaseID, &table.Name, &table.Description, &table.CreatedAt, &table.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("table not found")
		}
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return &table, nil
}

// ListTables lists the tables of a database
func (s *TableService) ListTables(ctx context.Context, databaseID string) ([]*models.Table, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, database_id, name, description, created_at, updated_at FROM tables WHERE database_id = $1 ORDER BY created_at",
		databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		var table models.Table
		if err := rows.Scan(&table.ID, &table.DatabaseID, &table.Name, &table.Description, &table.CreatedAt, &table.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, &table)
	}
	return tables, rows.Err()
}

// UpdateTable renames a table
func (s *TableService) UpdateTable(ctx context.Context, databaseID string, tableID int64, name, description string) (*models.Table, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE tables SET name = $1, description = $2, updated_at = now() WHERE id = $3 AND database_id = $4",
		name, description, tableID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to update table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("table not found")
	}
	return s.GetTable(ctx, databaseID, tableID)
}

// DeleteTable deletes a table along with its rows and columns
func (s *TableService) DeleteTable(ctx context.Context, databaseID string, tableID int64) error {
	if err := s.store.DeleteTableRows(ctx, tableID); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, "DELETE FROM tables WHERE id = $1 AND database_id = $2", tableID, databaseID)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("table not found")
	}

	s.schema.Invalidate(tableID)
	return nil
}

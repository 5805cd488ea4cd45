package schema

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrColumnNotFound is returned when a column id does not exist.
var ErrColumnNotFound = errors.New("column not found")

const cacheSize = 256

// Service serves column schemas. Schemas are cached per table; DDL operations
// invalidate the cached entry. The filter core never caches anything itself,
// it only sees the per-request snapshot this service hands out.
type Service struct {
	pool  *pgxpool.Pool
	cache *lru.Cache[int64, []Column]
}

// NewService creates a schema service with an LRU schema cache.
func NewService(pool *pgxpool.Pool) (*Service, error) {
	cache, err := lru.New[int64, []Column](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema cache: %w", err)
	}
	return &Service{pool: pool, cache: cache}, nil
}

// Columns returns the ordered column schema of a table.
func (s *Service) Columns(ctx context.Context, tableID int64) ([]Column, error) {
	if columns, ok := s.cache.Get(tableID); ok {
		return columns, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, table_id, name, type, reference_table_id, position, required
		 FROM columns WHERE table_id = $1 ORDER BY position, id`,
		tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var colType string
		if err := rows.Scan(&col.ID, &col.TableID, &col.Name, &colType, &col.ReferenceTableID, &col.Position, &col.Required); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Type = ColumnType(colType)
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate columns: %w", err)
	}

	s.cache.Add(tableID, columns)
	return columns, nil
}

// CreateColumn adds a column to a table and invalidates the cached schema.
func (s *Service) CreateColumn(ctx context.Context, col Column) (Column, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO columns (table_id, name, type, reference_table_id, position, required)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		col.TableID, col.Name, string(col.Type), col.ReferenceTableID, col.Position, col.Required,
	).Scan(&col.ID)
	if err != nil {
		return Column{}, fmt.Errorf("failed to create column: %w", err)
	}

	s.cache.Remove(col.TableID)
	return col, nil
}

// UpdateColumn updates a column's name, position and required flag. The
// declared type is immutable after creation.
func (s *Service) UpdateColumn(ctx context.Context, tableID, columnID int64, name string, position int, required bool) (Column, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE columns SET name = $1, position = $2, required = $3 WHERE id = $4 AND table_id = $5",
		name, position, required, columnID, tableID)
	if err != nil {
		return Column{}, fmt.Errorf("failed to update column: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Column{}, ErrColumnNotFound
	}

	s.cache.Remove(tableID)

	var col Column
	var colType string
	err = s.pool.QueryRow(ctx,
		"SELECT id, table_id, name, type, reference_table_id, position, required FROM columns WHERE id = $1",
		columnID,
	).Scan(&col.ID, &col.TableID, &col.Name, &colType, &col.ReferenceTableID, &col.Position, &col.Required)
	if err != nil {
		return Column{}, fmt.Errorf("failed to get column: %w", err)
	}
	col.Type = ColumnType(colType)
	return col, nil
}

// DeleteColumn removes a column and its cells, and invalidates the cache.
func (s *Service) DeleteColumn(ctx context.Context, tableID, columnID int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM columns WHERE id = $1 AND table_id = $2", columnID, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrColumnNotFound
	}

	s.cache.Remove(tableID)
	return nil
}

// Invalidate drops the cached schema of a table.
func (s *Service) Invalidate(tableID int64) {
	s.cache.Remove(tableID)
}

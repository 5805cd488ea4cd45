package store

import (
	"context"
	"errors"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

// ErrRowNotFound is returned when a row id does not exist in the table.
var ErrRowNotFound = errors.New("row not found")

// Store is the full row store: the filter pipeline's read side plus the
// mutation primitives used by the row service.
type Store interface {
	filter.RowStore

	InsertRow(ctx context.Context, tableID int64, cells []models.Cell, columns []schema.Column) (models.Row, error)
	UpdateRow(ctx context.Context, tableID, rowID int64, cells []models.Cell, columns []schema.Column) (models.Row, error)
	DeleteRow(ctx context.Context, tableID, rowID int64) error
	GetRow(ctx context.Context, tableID, rowID int64) (models.Row, error)
	DeleteTableRows(ctx context.Context, tableID int64) error
}

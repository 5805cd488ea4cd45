package services

import (
	"context"
	"sort"
	"time"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/store"
)

// SchemaProvider serves per-request column schemas to the row service.
type SchemaProvider interface {
	Columns(ctx context.Context, tableID int64) ([]schema.Column, error)
}

// RowService orchestrates row CRUD and the filter-compile-and-fetch pipeline.
type RowService struct {
	store  store.Store
	schema SchemaProvider
}

// NewRowService creates a new RowService
func NewRowService(st store.Store, schemaProvider SchemaProvider) *RowService {
	return &RowService{store: st, schema: schemaProvider}
}

// cellsFromPayload maps a name-keyed payload onto column-id cells. Unknown
// keys are rejected earlier by payload validation.
func cellsFromPayload(columns []schema.Column, payload map[string]any) []models.Cell {
	byName := make(map[string]schema.Column, len(columns))
	for _, col := range columns {
		byName[col.Name] = col
	}

	cells := make([]models.Cell, 0, len(payload))
	for name, value := range payload {
		col, ok := byName[name]
		if !ok {
			continue
		}
		cells = append(cells, models.Cell{ColumnID: col.ID, Value: value})
	}
	return cells
}

// CreateRow validates the payload against the table's schema and inserts a row.
func (s *RowService) CreateRow(ctx context.Context, tableID int64, payload map[string]any) (models.Row, error) {
	columns, err := s.schema.Columns(ctx, tableID)
	if err != nil {
		return models.Row{}, err
	}

	if err := schema.ValidatePayload(columns, payload); err != nil {
		return models.Row{}, err
	}

	return s.store.InsertRow(ctx, tableID, cellsFromPayload(columns, payload), columns)
}

// UpdateRow validates the partial payload and updates the given cells.
func (s *RowService) UpdateRow(ctx context.Context, tableID, rowID int64, payload map[string]any) (models.Row, error) {
	columns, err := s.schema.Columns(ctx, tableID)
	if err != nil {
		return models.Row{}, err
	}

	// Partial updates skip the required-columns check but keep per-field typing.
	partial := make([]schema.Column, len(columns))
	copy(partial, columns)
	for i := range partial {
		partial[i].Required = false
	}
	if err := schema.ValidatePayload(partial, payload); err != nil {
		return models.Row{}, err
	}

	return s.store.UpdateRow(ctx, tableID, rowID, cellsFromPayload(columns, payload), columns)
}

// DeleteRow removes a row.
func (s *RowService) DeleteRow(ctx context.Context, tableID, rowID int64) error {
	return s.store.DeleteRow(ctx, tableID, rowID)
}

// GetRow returns one row with cells ordered by column position.
func (s *RowService) GetRow(ctx context.Context, tableID, rowID int64) (models.Row, error) {
	row, err := s.store.GetRow(ctx, tableID, rowID)
	if err != nil {
		return models.Row{}, err
	}

	columns, err := s.schema.Columns(ctx, tableID)
	if err != nil {
		return models.Row{}, err
	}
	rows := []models.Row{row}
	orderRowCells(rows, columns)
	return rows[0], nil
}

// ListRows runs the filter pipeline and assembles one page of rows.
func (s *RowService) ListRows(ctx context.Context, tableID int64, req filter.PageRequest) (*filter.PageResult, error) {
	columns, err := s.schema.Columns(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return filter.AssemblePage(ctx, s.store, tableID, columns, req, time.Now())
}

func orderRowCells(rows []models.Row, columns []schema.Column) {
	position := make(map[int64]int, len(columns))
	for _, col := range columns {
		position[col.ID] = col.Position
	}
	for i := range rows {
		cells := rows[i].Cells
		sort.SliceStable(cells, func(a, b int) bool {
			return position[cells[a].ColumnID] < position[cells[b].ColumnID]
		})
	}
}

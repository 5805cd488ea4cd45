package filter

import (
	"context"
	"sort"
	"time"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

// Sort is the order clause handed to the row store.
type Sort struct {
	By   string // "id" or "created_at"
	Desc bool
}

// RowStore is the store collaborator consumed by the paginator. The predicate
// is opaque to everything above the store; count and fetch are independent
// calls and honor ctx cancellation.
type RowStore interface {
	CountRows(ctx context.Context, tableID int64, p Predicate) (int64, error)
	FetchRows(ctx context.Context, tableID int64, p Predicate, s Sort, offset, limit int) ([]models.Row, error)
	CountAll(ctx context.Context, tableID int64) (int64, error)
}

// PageRequest carries the client's pagination, sorting and filtering inputs.
type PageRequest struct {
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
	IncludeCells bool
	GlobalSearch string
	Criteria     []Criterion
}

// Pagination is the page metadata of a result envelope.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalRows  int64 `json:"totalRows"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PageResult is one assembled page of rows plus its metadata.
type PageResult struct {
	Rows              []models.Row
	Pagination        Pagination
	ValidFilters      int
	QueryTime         time.Duration
	OriginalTableSize int64
}

// AssemblePage runs the full compile-and-fetch pipeline: build the predicate,
// count store-side matches, fetch one page, apply the residual pass to the
// fetched page, order cells by declared column position, and compute the page
// metadata.
//
// TotalRows is the store-side predicate match count, computed before the
// residual pass and deliberately not adjusted for rows it removes. When
// residual-only operators are active, TotalPages and HasNext can therefore
// overstate the true filtered set.
func AssemblePage(ctx context.Context, store RowStore, tableID int64, columns []schema.Column, req PageRequest, now time.Time) (*PageResult, error) {
	started := time.Now()

	byID := schema.Index(columns)
	valid := ValidCriteria(req.Criteria, byID)

	predicate := BuildPredicate(req.Criteria, columns, req.GlobalSearch, now)

	total, err := store.CountRows(ctx, tableID, predicate)
	if err != nil {
		return nil, err
	}

	// Callers validate page >= 1, but a non-positive page must not turn into a
	// negative offset here.
	offset := (req.Page - 1) * req.PageSize
	if offset < 0 {
		offset = 0
	}
	rows, err := store.FetchRows(ctx, tableID, predicate, sortClause(req.SortBy, req.SortOrder), offset, req.PageSize)
	if err != nil {
		return nil, err
	}

	// The residual pass runs over the fetched page only, not the whole table.
	if len(req.Criteria) > 0 {
		rows = ApplyResidual(rows, req.Criteria, columns)
	}

	if req.IncludeCells {
		orderCells(rows, columns)
	} else {
		for i := range rows {
			rows[i].Cells = nil
		}
	}

	tableSize, err := store.CountAll(ctx, tableID)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.PageSize) - 1) / int64(req.PageSize))

	return &PageResult{
		Rows: rows,
		Pagination: Pagination{
			Page:       req.Page,
			PageSize:   req.PageSize,
			TotalRows:  total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
		ValidFilters:      len(valid),
		QueryTime:         time.Since(started),
		OriginalTableSize: tableSize,
	}, nil
}

// sortClause maps the client sort inputs onto a native order clause.
// Anything but "id" and "createdAt" falls back to ascending-by-id.
func sortClause(sortBy, sortOrder string) Sort {
	desc := sortOrder == "desc"
	switch sortBy {
	case "createdAt":
		return Sort{By: "created_at", Desc: desc}
	case "id":
		return Sort{By: "id", Desc: desc}
	default:
		return Sort{By: "id"}
	}
}

// orderCells sorts each row's cells by the column's declared position rather
// than storage order.
func orderCells(rows []models.Row, columns []schema.Column) {
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

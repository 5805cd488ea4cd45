package models

import "time"

// Cell holds one column value of a row
type Cell struct {
	ColumnID int64 `json:"columnId"`
	Value    any   `json:"value"`
}

// Row represents a single table row with its cells.
// Rows are read-only inside the filter pipeline; mutation goes through the store.
type Row struct {
	ID        int64     `json:"id"`
	TableID   int64     `json:"tableId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Cells     []Cell    `json:"cells,omitempty"`
}

// CellValue returns the value of the cell for the given column and whether
// a cell for that column exists at all.
func (r *Row) CellValue(columnID int64) (any, bool) {
	for _, c := range r.Cells {
		if c.ColumnID == columnID {
			return c.Value, true
		}
	}
	return nil, false
}

package store

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

// MemoryStore is an in-process row store. It backs tests and the -store=memory
// development mode; fragment semantics mirror the Postgres store.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[int64][]models.Row
	nextID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[int64][]models.Row)}
}

// InsertRow adds a row with the given cells. Cell values are normalized
// through the coercion engine so comparisons behave like the typed shadow
// columns of the Postgres store.
func (s *MemoryStore) InsertRow(ctx context.Context, tableID int64, cells []models.Cell, columns []schema.Column) (models.Row, error) {
	if err := ctx.Err(); err != nil {
		return models.Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	row := models.Row{
		ID:        s.nextID,
		TableID:   tableID,
		CreatedAt: now,
		UpdatedAt: now,
		Cells:     normalizeCells(cells, columns),
	}
	s.tables[tableID] = append(s.tables[tableID], row)
	return copyRow(row), nil
}

// UpdateRow replaces the given cells of a row, keeping the rest.
func (s *MemoryStore) UpdateRow(ctx context.Context, tableID, rowID int64, cells []models.Cell, columns []schema.Column) (models.Row, error) {
	if err := ctx.Err(); err != nil {
		return models.Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[tableID]
	for i := range rows {
		if rows[i].ID != rowID {
			continue
		}
		for _, cell := range normalizeCells(cells, columns) {
			replaced := false
			for j := range rows[i].Cells {
				if rows[i].Cells[j].ColumnID == cell.ColumnID {
					rows[i].Cells[j].Value = cell.Value
					replaced = true
					break
				}
			}
			if !replaced {
				rows[i].Cells = append(rows[i].Cells, cell)
			}
		}
		rows[i].UpdatedAt = time.Now()
		return copyRow(rows[i]), nil
	}
	return models.Row{}, ErrRowNotFound
}

// DeleteRow removes a row.
func (s *MemoryStore) DeleteRow(ctx context.Context, tableID, rowID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[tableID]
	for i := range rows {
		if rows[i].ID == rowID {
			s.tables[tableID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return ErrRowNotFound
}

// GetRow returns a single row by id.
func (s *MemoryStore) GetRow(ctx context.Context, tableID, rowID int64) (models.Row, error) {
	if err := ctx.Err(); err != nil {
		return models.Row{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.tables[tableID] {
		if row.ID == rowID {
			return copyRow(row), nil
		}
	}
	return models.Row{}, ErrRowNotFound
}

// DeleteTableRows drops all rows of a table.
func (s *MemoryStore) DeleteTableRows(ctx context.Context, tableID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, tableID)
	return nil
}

// CountRows counts the rows matching the predicate.
func (s *MemoryStore) CountRows(ctx context.Context, tableID int64, p filter.Predicate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.tables[tableID] {
		if rowMatches(&s.tables[tableID][i], p) {
			n++
		}
	}
	return n, nil
}

// CountAll counts all rows in the table.
func (s *MemoryStore) CountAll(ctx context.Context, tableID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.tables[tableID])), nil
}

// FetchRows returns one sorted page of rows matching the predicate.
func (s *MemoryStore) FetchRows(ctx context.Context, tableID int64, p filter.Predicate, order filter.Sort, offset, limit int) ([]models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Row
	for i := range s.tables[tableID] {
		row := &s.tables[tableID][i]
		if rowMatches(row, p) {
			matched = append(matched, copyRow(*row))
		}
	}

	sort.SliceStable(matched, func(a, b int) bool {
		var less bool
		if order.By == "created_at" {
			less = matched[a].CreatedAt.Before(matched[b].CreatedAt)
		} else {
			less = matched[a].ID < matched[b].ID
		}
		if order.Desc {
			return !less
		}
		return less
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func normalizeCells(cells []models.Cell, columns []schema.Column) []models.Cell {
	byID := schema.Index(columns)
	normalized := make([]models.Cell, 0, len(cells))
	for _, cell := range cells {
		value := cell.Value
		if col, ok := byID[cell.ColumnID]; ok {
			if coerced := filter.Coerce(cell.Value, col.Type); coerced.OK {
				value = coerced.Value
			}
		}
		normalized = append(normalized, models.Cell{ColumnID: cell.ColumnID, Value: value})
	}
	return normalized
}

func copyRow(row models.Row) models.Row {
	out := row
	out.Cells = make([]models.Cell, len(row.Cells))
	copy(out.Cells, row.Cells)
	return out
}

func rowMatches(row *models.Row, p filter.Predicate) bool {
	for _, frag := range p.Fragments {
		if !fragmentMatches(row, frag) {
			return false
		}
	}
	return true
}

func fragmentMatches(row *models.Row, frag filter.Fragment) bool {
	if frag.Kind == filter.FragGlobalSearch {
		term := strings.ToLower(frag.Text)
		for _, cell := range row.Cells {
			if text, ok := cellText(cell.Value); ok && strings.Contains(strings.ToLower(text), term) {
				return true
			}
		}
		return false
	}

	value, present := row.CellValue(frag.ColumnID)
	hasValue := present && value != nil

	switch frag.Kind {
	case filter.FragHasValue:
		return hasValue
	case filter.FragNoValue:
		return !hasValue
	}

	// Every remaining fragment kind compares an existing value; a missing or
	// null cell never matches, negated comparisons included.
	if !hasValue {
		return false
	}

	switch frag.Kind {
	case filter.FragTextEqual:
		text, ok := cellText(value)
		if !ok {
			return false
		}
		equal := strings.TrimSpace(text) == frag.Text
		if frag.Negate {
			return !equal
		}
		return equal

	case filter.FragRegex:
		text, ok := cellText(value)
		if !ok {
			return false
		}
		re, err := regexp.Compile(frag.Text)
		if err != nil {
			return false
		}
		return re.MatchString(text)

	case filter.FragNumberCompare:
		n, ok := cellNumber(value)
		if !ok {
			return false
		}
		return compareFloat(n, frag.Number, frag.Cmp)

	case filter.FragNumberRange:
		n, ok := cellNumber(value)
		if !ok {
			return false
		}
		in := n >= frag.Number && n <= frag.Number2
		if frag.Negate {
			return !in
		}
		return in

	case filter.FragBoolEqual:
		b, ok := cellBool(value)
		if !ok {
			return false
		}
		if frag.Negate {
			return b != frag.Bool
		}
		return b == frag.Bool

	case filter.FragTimeCompare:
		ts, ok := cellTime(value)
		if !ok {
			return false
		}
		return compareTime(ts, frag.Time, frag.Cmp)

	case filter.FragTimeRange:
		ts, ok := cellTime(value)
		if !ok {
			return false
		}
		in := !ts.Before(frag.Time) && !ts.After(frag.Time2)
		if frag.Negate {
			return !in
		}
		return in
	}
	return false
}

func compareFloat(a, b float64, cmp filter.CmpOp) bool {
	switch cmp {
	case filter.CmpEq:
		return a == b
	case filter.CmpNe:
		return a != b
	case filter.CmpGt:
		return a > b
	case filter.CmpGte:
		return a >= b
	case filter.CmpLt:
		return a < b
	case filter.CmpLte:
		return a <= b
	}
	return false
}

func compareTime(a, b time.Time, cmp filter.CmpOp) bool {
	switch cmp {
	case filter.CmpEq:
		return a.Equal(b)
	case filter.CmpNe:
		return !a.Equal(b)
	case filter.CmpGt:
		return a.After(b)
	case filter.CmpGte:
		return !a.Before(b)
	case filter.CmpLt:
		return a.Before(b)
	case filter.CmpLte:
		return !a.After(b)
	}
	return false
}

func cellText(v any) (string, bool) {
	coerced := filter.Coerce(v, schema.TypeText)
	if !coerced.OK || coerced.Value == nil {
		return "", false
	}
	s, ok := coerced.Value.(string)
	return s, ok
}

func cellNumber(v any) (float64, bool) {
	coerced := filter.Coerce(v, schema.TypeNumber)
	if !coerced.OK {
		return 0, false
	}
	n, ok := coerced.Value.(float64)
	return n, ok
}

func cellBool(v any) (bool, bool) {
	coerced := filter.Coerce(v, schema.TypeBoolean)
	if !coerced.OK {
		return false, false
	}
	b, ok := coerced.Value.(bool)
	return b, ok
}

func cellTime(v any) (time.Time, bool) {
	coerced := filter.Coerce(v, schema.TypeDateTime)
	if !coerced.OK {
		return time.Time{}, false
	}
	ts, ok := coerced.Value.(time.Time)
	return ts, ok
}

package filter_test

import (
	"context"
	"testing"
	"time"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
	"github.com/gridbase/gridbase/internal/store"
)

const testTableID = int64(1)

var pageColumns = []schema.Column{
	{ID: 1, TableID: testTableID, Name: "name", Type: schema.TypeText, Position: 0},
	{ID: 2, TableID: testTableID, Name: "age", Type: schema.TypeNumber, Position: 1},
	{ID: 3, TableID: testTableID, Name: "active", Type: schema.TypeBoolean, Position: 2},
}

// seedPeople inserts the canonical three-person fixture.
func seedPeople(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	people := []struct {
		name   string
		age    float64
		active bool
	}{
		{"John Doe", 25, true},
		{"Jane Smith", 30, false},
		{"Bob Johnson", 35, true},
	}
	for _, p := range people {
		_, err := s.InsertRow(context.Background(), testTableID, []models.Cell{
			{ColumnID: 1, Value: p.name},
			{ColumnID: 2, Value: p.age},
			{ColumnID: 3, Value: p.active},
		}, pageColumns)
		if err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}
	return s
}

func assemble(t *testing.T, s *store.MemoryStore, req filter.PageRequest) *filter.PageResult {
	t.Helper()
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 25
	}
	req.IncludeCells = true
	result, err := filter.AssemblePage(context.Background(), s, testTableID, pageColumns, req, time.Now())
	if err != nil {
		t.Fatalf("AssemblePage failed: %v", err)
	}
	return result
}

func names(rows []models.Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.CellValue(1); ok {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestContainsFilter(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 1, Operator: filter.OpContains, Value: "John"}},
	})
	// Case-insensitive: matches "John Doe" and "Bob Johnson".
	if got := names(result.Rows); !equalStrings(got, []string{"John Doe", "Bob Johnson"}) {
		t.Errorf("contains John: got %v", got)
	}

	result = assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 1, Operator: filter.OpContains, Value: "John D"}},
	})
	if got := names(result.Rows); !equalStrings(got, []string{"John Doe"}) {
		t.Errorf("contains 'John D': got %v", got)
	}
}

func TestStartsWithFilter(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 1, Operator: filter.OpStartsWith, Value: "J"}},
	})
	if got := names(result.Rows); !equalStrings(got, []string{"John Doe", "Jane Smith"}) {
		t.Errorf("starts_with J: got %v", got)
	}
}

func TestBetweenFilter(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 2, Operator: filter.OpBetween, Value: 25, SecondValue: 30}},
	})
	if got := names(result.Rows); !equalStrings(got, []string{"John Doe", "Jane Smith"}) {
		t.Errorf("between 25..30: got %v", got)
	}

	// Inverted bounds match nothing; they are not swapped.
	result = assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 2, Operator: filter.OpBetween, Value: 30, SecondValue: 25}},
	})
	if len(result.Rows) != 0 {
		t.Errorf("between 30..25: got %v, want none", names(result.Rows))
	}
}

func TestConjunctionOfFilters(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{
			{ColumnID: 2, Operator: filter.OpGreaterThan, Value: 25},
			{ColumnID: 3, Operator: filter.OpEquals, Value: true},
		},
	})
	if got := names(result.Rows); !equalStrings(got, []string{"Bob Johnson"}) {
		t.Errorf("age>25 AND active: got %v", got)
	}
}

func TestPaginationMetadata(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Page:     1,
		PageSize: 2,
		Criteria: []filter.Criterion{{ColumnID: 2, Operator: filter.OpGreaterThanOrEqual, Value: 25}},
	})

	if len(result.Rows) != 2 {
		t.Errorf("page 1 length = %d, want 2", len(result.Rows))
	}
	p := result.Pagination
	if p.TotalRows != 3 || p.TotalPages != 2 {
		t.Errorf("pagination = %+v, want totalRows 3, totalPages 2", p)
	}
	if !p.HasNext || p.HasPrev {
		t.Errorf("page 1 of 2: hasNext = %v, hasPrev = %v", p.HasNext, p.HasPrev)
	}

	result = assemble(t, s, filter.PageRequest{
		Page:     2,
		PageSize: 2,
		Criteria: []filter.Criterion{{ColumnID: 2, Operator: filter.OpGreaterThanOrEqual, Value: 25}},
	})
	if len(result.Rows) != 1 {
		t.Errorf("page 2 length = %d, want 1", len(result.Rows))
	}
	if result.Pagination.HasNext || !result.Pagination.HasPrev {
		t.Errorf("page 2 of 2: %+v", result.Pagination)
	}
}

func TestUnknownColumnCriterionIsIgnored(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 999, Operator: filter.OpEquals, Value: "x"}},
	})
	if len(result.Rows) != 3 {
		t.Errorf("unknown column filter: got %d rows, want the unfiltered 3", len(result.Rows))
	}
	if result.ValidFilters != 0 {
		t.Errorf("ValidFilters = %d, want 0", result.ValidFilters)
	}
}

func TestTotalRowsNotAdjustedByResidualPass(t *testing.T) {
	s := seedPeople(t)

	// The store predicate for contains is only "has a value", so all three rows
	// count; the residual pass then narrows the page to one. TotalRows keeps
	// the store-side count.
	result := assemble(t, s, filter.PageRequest{
		Criteria: []filter.Criterion{{ColumnID: 1, Operator: filter.OpContains, Value: "jane"}},
	})
	if got := names(result.Rows); !equalStrings(got, []string{"Jane Smith"}) {
		t.Fatalf("contains jane: got %v", got)
	}
	if result.Pagination.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want the unadjusted store count 3", result.Pagination.TotalRows)
	}
}

func TestGlobalSearch(t *testing.T) {
	s := seedPeople(t)
	result := assemble(t, s, filter.PageRequest{GlobalSearch: "smith"})
	if got := names(result.Rows); !equalStrings(got, []string{"Jane Smith"}) {
		t.Errorf("global search smith: got %v", got)
	}
	if result.OriginalTableSize != 3 {
		t.Errorf("OriginalTableSize = %d, want 3", result.OriginalTableSize)
	}
}

func TestSortingAndCellOrder(t *testing.T) {
	s := seedPeople(t)
	result, err := filter.AssemblePage(context.Background(), s, testTableID, pageColumns, filter.PageRequest{
		Page: 1, PageSize: 25, SortBy: "id", SortOrder: "desc", IncludeCells: true,
	}, time.Now())
	if err != nil {
		t.Fatalf("AssemblePage failed: %v", err)
	}
	if got := names(result.Rows); !equalStrings(got, []string{"Bob Johnson", "Jane Smith", "John Doe"}) {
		t.Errorf("desc sort: got %v", got)
	}
	for _, row := range result.Rows {
		for i, cell := range row.Cells {
			if cell.ColumnID != int64(i+1) {
				t.Errorf("cells not in declared position order: %+v", row.Cells)
				break
			}
		}
	}
}

func TestIncludeCellsFalse(t *testing.T) {
	s := seedPeople(t)
	result, err := filter.AssemblePage(context.Background(), s, testTableID, pageColumns, filter.PageRequest{
		Page: 1, PageSize: 25,
	}, time.Now())
	if err != nil {
		t.Fatalf("AssemblePage failed: %v", err)
	}
	for _, row := range result.Rows {
		if row.Cells != nil {
			t.Errorf("row %d: cells should be omitted", row.ID)
		}
	}
}

func TestEmptyTable(t *testing.T) {
	s := store.NewMemoryStore()
	result, err := filter.AssemblePage(context.Background(), s, testTableID, pageColumns, filter.PageRequest{
		Page: 1, PageSize: 25, IncludeCells: true,
	}, time.Now())
	if err != nil {
		t.Fatalf("AssemblePage failed: %v", err)
	}
	if len(result.Rows) != 0 || result.Pagination.TotalRows != 0 || result.Pagination.TotalPages != 0 {
		t.Errorf("empty table: %+v", result.Pagination)
	}
}

func TestNonPositivePageClampsToStart(t *testing.T) {
	s := seedPeople(t)
	for _, page := range []int{0, -3} {
		result, err := filter.AssemblePage(context.Background(), s, testTableID, pageColumns, filter.PageRequest{
			Page: page, PageSize: 2, IncludeCells: true,
		}, time.Now())
		if err != nil {
			t.Fatalf("page %d: AssemblePage failed: %v", page, err)
		}
		if got := names(result.Rows); !equalStrings(got, []string{"John Doe", "Jane Smith"}) {
			t.Errorf("page %d: got %v, want first page", page, got)
		}
	}
}

package filter

import (
	"testing"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

var residualColumns = []schema.Column{
	{ID: 1, Name: "name", Type: schema.TypeText},
	{ID: 2, Name: "age", Type: schema.TypeNumber},
}

func textRow(id int64, name any) models.Row {
	return models.Row{ID: id, Cells: []models.Cell{{ColumnID: 1, Value: name}}}
}

func rowIDs(rows []models.Row) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestApplyResidualContains(t *testing.T) {
	rows := []models.Row{
		textRow(1, "John Doe"),
		textRow(2, "Jane Smith"),
		textRow(3, "Bob Johnson"),
	}

	got := ApplyResidual(rows, []Criterion{{ColumnID: 1, Operator: OpContains, Value: "john"}}, residualColumns)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("contains: got rows %v, want [1 3]", rowIDs(got))
	}

	got = ApplyResidual(rows, []Criterion{{ColumnID: 1, Operator: OpStartsWith, Value: "j"}}, residualColumns)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("starts_with: got rows %v, want [1 2]", rowIDs(got))
	}

	got = ApplyResidual(rows, []Criterion{{ColumnID: 1, Operator: OpEndsWith, Value: "SMITH"}}, residualColumns)
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("ends_with: got rows %v, want [2]", rowIDs(got))
	}
}

func TestApplyResidualMissingCellFailsAllLexicalOps(t *testing.T) {
	rows := []models.Row{
		textRow(1, "John"),
		textRow(2, nil),
		{ID: 3, Cells: nil}, // no cell at all
	}

	// A missing or null cell fails every lexical operator, not_contains included.
	for _, op := range []Operator{OpContains, OpNotContains, OpStartsWith, OpEndsWith} {
		got := ApplyResidual(rows, []Criterion{{ColumnID: 1, Operator: op, Value: "zzz"}}, residualColumns)
		for _, row := range got {
			if row.ID == 2 || row.ID == 3 {
				t.Errorf("%s: row %d with no value should have been excluded", op, row.ID)
			}
		}
	}

	got := ApplyResidual(rows, []Criterion{{ColumnID: 1, Operator: OpNotContains, Value: "zzz"}}, residualColumns)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("not_contains: got rows %v, want [1]", rowIDs(got))
	}
}

func TestApplyResidualIgnoresNonResidualCriteria(t *testing.T) {
	rows := []models.Row{textRow(1, "John"), textRow(2, "Jane")}

	// Store-evaluable operators and non-text columns are not re-checked here.
	criteria := []Criterion{
		{ColumnID: 1, Operator: OpEquals, Value: "nobody"},
		{ColumnID: 2, Operator: OpContains, Value: "x"},
	}
	got := ApplyResidual(rows, criteria, residualColumns)
	if len(got) != 2 {
		t.Errorf("expected rows untouched, got %v", rowIDs(got))
	}
}

func TestApplyResidualRequiresEveryCriterion(t *testing.T) {
	rows := []models.Row{
		textRow(1, "John Doe"),
		textRow(2, "John Smith"),
	}
	criteria := []Criterion{
		{ColumnID: 1, Operator: OpContains, Value: "john"},
		{ColumnID: 1, Operator: OpEndsWith, Value: "doe"},
	}
	got := ApplyResidual(rows, criteria, residualColumns)
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("conjunction: got rows %v, want [1]", rowIDs(got))
	}
}

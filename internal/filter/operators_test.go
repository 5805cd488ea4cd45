package filter

import (
	"testing"

	"github.com/gridbase/gridbase/internal/schema"
)

func testColumns() map[int64]schema.Column {
	return schema.Index([]schema.Column{
		{ID: 1, Name: "name", Type: schema.TypeText},
		{ID: 2, Name: "age", Type: schema.TypeNumber},
		{ID: 3, Name: "active", Type: schema.TypeBoolean},
		{ID: 4, Name: "joined", Type: schema.TypeDate},
		{ID: 5, Name: "owner", Type: schema.TypeReference},
	})
}

func TestValidOperatorsByType(t *testing.T) {
	tests := []struct {
		colType schema.ColumnType
		allowed []Operator
		denied  []Operator
	}{
		{schema.TypeText,
			[]Operator{OpContains, OpNotContains, OpStartsWith, OpEndsWith, OpRegex, OpEquals, OpIsEmpty},
			[]Operator{OpGreaterThan, OpBetween, OpToday}},
		{schema.TypeNumber,
			[]Operator{OpEquals, OpGreaterThan, OpLessThanOrEqual, OpBetween, OpNotBetween, OpIsNotEmpty},
			[]Operator{OpContains, OpStartsWith, OpRegex, OpBefore}},
		{schema.TypeBoolean,
			[]Operator{OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty},
			[]Operator{OpContains, OpGreaterThan, OpBetween}},
		{schema.TypeDate,
			[]Operator{OpBefore, OpAfter, OpBetween, OpToday, OpThisWeek, OpThisYear},
			[]Operator{OpContains, OpStartsWith, OpGreaterThan}},
		{schema.TypeReference,
			[]Operator{OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty},
			[]Operator{OpContains, OpBetween, OpToday}},
	}

	for _, tt := range tests {
		ops := ValidOperators(tt.colType)
		for _, op := range tt.allowed {
			if !ops[op] {
				t.Errorf("%s: expected %s to be valid", tt.colType, op)
			}
		}
		for _, op := range tt.denied {
			if ops[op] {
				t.Errorf("%s: expected %s to be invalid", tt.colType, op)
			}
		}
	}
}

func TestIsValidUnknownColumn(t *testing.T) {
	c := Criterion{ColumnID: 999, Operator: OpEquals, Value: "x"}
	if IsValid(c, testColumns()) {
		t.Error("criterion on unknown column should be invalid")
	}
}

func TestIsValidValueChecks(t *testing.T) {
	columns := testColumns()

	tests := []struct {
		name  string
		c     Criterion
		valid bool
	}{
		{"text contains", Criterion{ColumnID: 1, Operator: OpContains, Value: "jo"}, true},
		{"text contains empty", Criterion{ColumnID: 1, Operator: OpContains, Value: ""}, false},
		{"text contains nil", Criterion{ColumnID: 1, Operator: OpContains, Value: nil}, false},
		{"text equals empty allowed", Criterion{ColumnID: 1, Operator: OpEquals, Value: ""}, true},
		{"regex valid", Criterion{ColumnID: 1, Operator: OpRegex, Value: "^Jo.*"}, true},
		{"regex malformed", Criterion{ColumnID: 1, Operator: OpRegex, Value: "["}, false},
		{"regex empty", Criterion{ColumnID: 1, Operator: OpRegex, Value: ""}, false},
		{"number from string", Criterion{ColumnID: 2, Operator: OpGreaterThan, Value: "25"}, true},
		{"number garbage", Criterion{ColumnID: 2, Operator: OpGreaterThan, Value: "abc"}, false},
		{"between needs second", Criterion{ColumnID: 2, Operator: OpBetween, Value: 1}, false},
		{"between complete", Criterion{ColumnID: 2, Operator: OpBetween, Value: 1, SecondValue: 2}, true},
		{"bool string", Criterion{ColumnID: 3, Operator: OpEquals, Value: "true"}, true},
		{"bool garbage", Criterion{ColumnID: 3, Operator: OpEquals, Value: "yes"}, false},
		{"date string", Criterion{ColumnID: 4, Operator: OpBefore, Value: "2024-06-01"}, true},
		{"date garbage", Criterion{ColumnID: 4, Operator: OpBefore, Value: "not-a-date"}, false},
		{"no-value op ignores value", Criterion{ColumnID: 4, Operator: OpToday, Value: "garbage"}, true},
		{"is_empty ignores value", Criterion{ColumnID: 2, Operator: OpIsEmpty}, true},
	}

	for _, tt := range tests {
		if got := IsValid(tt.c, columns); got != tt.valid {
			t.Errorf("%s: IsValid = %v, want %v", tt.name, got, tt.valid)
		}
	}
}

func TestValidCriteriaKeepsOrder(t *testing.T) {
	columns := testColumns()
	criteria := []Criterion{
		{ColumnID: 2, Operator: OpGreaterThan, Value: 1},
		{ColumnID: 999, Operator: OpEquals, Value: "x"},
		{ColumnID: 1, Operator: OpContains, Value: "a"},
	}

	valid := ValidCriteria(criteria, columns)
	if len(valid) != 2 {
		t.Fatalf("expected 2 valid criteria, got %d", len(valid))
	}
	if valid[0].ColumnID != 2 || valid[1].ColumnID != 1 {
		t.Errorf("valid criteria out of order: %+v", valid)
	}
}

func TestParseCriteria(t *testing.T) {
	criteria := ParseCriteria(`[{"columnId":1,"operator":"contains","value":"jo"}]`)
	if len(criteria) != 1 {
		t.Fatalf("expected 1 criterion, got %d", len(criteria))
	}
	if criteria[0].Operator != OpContains || criteria[0].Value != "jo" {
		t.Errorf("unexpected criterion: %+v", criteria[0])
	}

	for _, raw := range []string{"", "[]", "{not json", `{"columnId":1}`} {
		if got := ParseCriteria(raw); got != nil {
			t.Errorf("ParseCriteria(%q) = %+v, want nil", raw, got)
		}
	}
}

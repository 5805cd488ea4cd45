package filter

import (
	"testing"
	"time"

	"github.com/gridbase/gridbase/internal/schema"
)

var predicateColumns = []schema.Column{
	{ID: 1, Name: "name", Type: schema.TypeText},
	{ID: 2, Name: "age", Type: schema.TypeNumber},
	{ID: 3, Name: "active", Type: schema.TypeBoolean},
	{ID: 4, Name: "joined", Type: schema.TypeDate},
}

func buildOne(t *testing.T, c Criterion) Fragment {
	t.Helper()
	p := BuildPredicate([]Criterion{c}, predicateColumns, "", time.Now())
	if len(p.Fragments) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(p.Fragments))
	}
	return p.Fragments[0]
}

func TestBuildPredicateDropsInvalidCriteria(t *testing.T) {
	now := time.Now()
	valid := []Criterion{{ColumnID: 2, Operator: OpGreaterThan, Value: 25}}
	withInvalid := append([]Criterion{
		{ColumnID: 999, Operator: OpEquals, Value: "x"},         // unknown column
		{ColumnID: 1, Operator: OpGreaterThan, Value: 5},        // operator not in text set
		{ColumnID: 2, Operator: OpGreaterThan, Value: "abc"},    // unparseable value
		{ColumnID: 2, Operator: OpBetween, Value: 1},            // missing second bound
	}, valid...)

	got := BuildPredicate(withInvalid, predicateColumns, "", now)
	want := BuildPredicate(valid, predicateColumns, "", now)

	if len(got.Fragments) != len(want.Fragments) {
		t.Fatalf("invalid criteria altered the predicate: %d vs %d fragments",
			len(got.Fragments), len(want.Fragments))
	}
	if got.Fragments[0] != want.Fragments[0] {
		t.Errorf("fragment mismatch: %+v vs %+v", got.Fragments[0], want.Fragments[0])
	}
}

func TestBuildPredicateLexicalNarrowsToHasValue(t *testing.T) {
	for _, op := range []Operator{OpContains, OpNotContains, OpStartsWith, OpEndsWith} {
		frag := buildOne(t, Criterion{ColumnID: 1, Operator: op, Value: "jo"})
		if frag.Kind != FragHasValue || frag.ColumnID != 1 {
			t.Errorf("%s: expected FragHasValue on column 1, got %+v", op, frag)
		}
	}
}

func TestBuildPredicateTextEquality(t *testing.T) {
	frag := buildOne(t, Criterion{ColumnID: 1, Operator: OpEquals, Value: "John"})
	if frag.Kind != FragTextEqual || frag.Text != "John" || frag.Negate {
		t.Errorf("unexpected equals fragment: %+v", frag)
	}

	frag = buildOne(t, Criterion{ColumnID: 1, Operator: OpNotEquals, Value: "John"})
	if frag.Kind != FragTextEqual || !frag.Negate {
		t.Errorf("unexpected not_equals fragment: %+v", frag)
	}

	// Empty-string equality is a no-op filter, not "equals empty".
	p := BuildPredicate([]Criterion{{ColumnID: 1, Operator: OpEquals, Value: ""}}, predicateColumns, "", time.Now())
	if !p.IsEmpty() {
		t.Errorf("empty-string equality should constrain nothing: %+v", p)
	}
}

func TestBuildPredicateNumberRangeKeepsBounds(t *testing.T) {
	frag := buildOne(t, Criterion{ColumnID: 2, Operator: OpBetween, Value: 30, SecondValue: 25})
	if frag.Kind != FragNumberRange {
		t.Fatalf("expected FragNumberRange, got %+v", frag)
	}
	// min > max is kept as given, yielding zero matches, not swapped.
	if frag.Number != 30 || frag.Number2 != 25 {
		t.Errorf("bounds were altered: %+v", frag)
	}
}

func TestBuildPredicateGlobalSearch(t *testing.T) {
	p := BuildPredicate(nil, predicateColumns, "hello", time.Now())
	if len(p.Fragments) != 1 || p.Fragments[0].Kind != FragGlobalSearch || p.Fragments[0].Text != "hello" {
		t.Fatalf("unexpected search predicate: %+v", p)
	}

	p = BuildPredicate(nil, predicateColumns, "   ", time.Now())
	if !p.IsEmpty() {
		t.Errorf("whitespace-only search should constrain nothing: %+v", p)
	}
}

func TestPeriodRanges(t *testing.T) {
	// Wednesday, June 18 2025, 15:04:05 local time.
	now := time.Date(2025, 6, 18, 15, 4, 5, 0, time.Local)

	tests := []struct {
		op    Operator
		start time.Time
		end   time.Time
	}{
		{OpToday,
			time.Date(2025, 6, 18, 0, 0, 0, 0, time.Local),
			time.Date(2025, 6, 18, 23, 59, 59, 999e6, time.Local)},
		{OpYesterday,
			time.Date(2025, 6, 17, 0, 0, 0, 0, time.Local),
			time.Date(2025, 6, 17, 23, 59, 59, 999e6, time.Local)},
		{OpThisWeek, // weeks start on Sunday
			time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local),
			time.Date(2025, 6, 21, 23, 59, 59, 999e6, time.Local)},
		{OpThisMonth,
			time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local),
			time.Date(2025, 6, 30, 23, 59, 59, 999e6, time.Local)},
		{OpThisYear,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
			time.Date(2025, 12, 31, 23, 59, 59, 999e6, time.Local)},
	}

	for _, tt := range tests {
		p := BuildPredicate([]Criterion{{ColumnID: 4, Operator: tt.op}}, predicateColumns, "", now)
		if len(p.Fragments) != 1 {
			t.Fatalf("%s: expected 1 fragment, got %d", tt.op, len(p.Fragments))
		}
		frag := p.Fragments[0]
		if frag.Kind != FragTimeRange {
			t.Fatalf("%s: expected FragTimeRange, got %+v", tt.op, frag)
		}
		if !frag.Time.Equal(tt.start) {
			t.Errorf("%s: start = %v, want %v", tt.op, frag.Time, tt.start)
		}
		if !frag.Time2.Equal(tt.end) {
			t.Errorf("%s: end = %v, want %v", tt.op, frag.Time2, tt.end)
		}
	}
}

func TestBuildPredicateBoolAndDateFragments(t *testing.T) {
	frag := buildOne(t, Criterion{ColumnID: 3, Operator: OpEquals, Value: "true"})
	if frag.Kind != FragBoolEqual || !frag.Bool || frag.Negate {
		t.Errorf("unexpected bool fragment: %+v", frag)
	}

	frag = buildOne(t, Criterion{ColumnID: 4, Operator: OpBefore, Value: "2024-06-01"})
	if frag.Kind != FragTimeCompare || frag.Cmp != CmpLt {
		t.Errorf("unexpected before fragment: %+v", frag)
	}
}

package filter

import (
	"time"

	"github.com/gridbase/gridbase/internal/schema"
)

// CmpOp is a scalar comparison inside a fragment.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpGt
	CmpGte
	CmpLt
	CmpLte
)

// FragmentKind discriminates the tagged Fragment union.
type FragmentKind int

const (
	// FragHasValue asserts a cell with a non-null value exists for the column.
	// Used both for is_not_empty and as the cheap store-side narrowing for
	// lexical operators whose exact match runs in the residual pass.
	FragHasValue FragmentKind = iota
	// FragNoValue asserts no cell with a non-null value exists (is_empty).
	FragNoValue
	// FragTextEqual compares the trimmed cell text; Negate flips to not-equals.
	FragTextEqual
	// FragNumberCompare compares the cell's numeric value with Cmp.
	FragNumberCompare
	// FragNumberRange is an inclusive numeric range; Negate flips to not-between.
	FragNumberRange
	// FragBoolEqual compares the cell's boolean value; Negate flips.
	FragBoolEqual
	// FragTimeCompare compares the cell's instant with Cmp.
	FragTimeCompare
	// FragTimeRange is an inclusive instant range; Negate flips to not-between.
	FragTimeRange
	// FragRegex is a store-native pattern match on the cell text.
	FragRegex
	// FragGlobalSearch matches rows where any cell's text contains Text,
	// case-insensitively.
	FragGlobalSearch
)

// Fragment is one store-evaluable constraint on a single column (or, for
// FragGlobalSearch, on all columns). Fragments are combined with AND.
type Fragment struct {
	Kind     FragmentKind
	ColumnID int64
	Cmp      CmpOp
	Text     string
	Number   float64
	Number2  float64
	Bool     bool
	Time     time.Time
	Time2    time.Time
	Negate   bool
}

// Predicate is the store-native representation of "which rows qualify".
// It is opaque to everything except the store implementations.
type Predicate struct {
	Fragments []Fragment
}

// IsEmpty reports whether the predicate constrains nothing.
func (p Predicate) IsEmpty() bool {
	return len(p.Fragments) == 0
}

// fragmentFunc builds the store fragment for one validated criterion.
// Returning ok=false means "no constraint": the criterion contributes nothing
// to the AND group (it is not turned into a vacuously true or false term).
type fragmentFunc func(col schema.Column, c Criterion, now time.Time) (Fragment, bool)

type builderKey struct {
	op  Operator
	fam schema.TypeFamily
}

// fragmentBuilders is the operator x type-family strategy table. A criterion
// that survives validation but has no entry here yields no constraint.
var fragmentBuilders = map[builderKey]fragmentFunc{}

func register(fam schema.TypeFamily, op Operator, fn fragmentFunc) {
	fragmentBuilders[builderKey{op: op, fam: fam}] = fn
}

func registerAll(fams []schema.TypeFamily, op Operator, fn fragmentFunc) {
	for _, fam := range fams {
		register(fam, op, fn)
	}
}

var allFamilies = []schema.TypeFamily{
	schema.FamilyText, schema.FamilyNumber, schema.FamilyBoolean,
	schema.FamilyDate, schema.FamilyReference, schema.FamilyArray,
	schema.FamilyUnknown,
}

func init() {
	// Emptiness checks apply to every family.
	registerAll(allFamilies, OpIsEmpty, buildNoValue)
	registerAll(allFamilies, OpIsNotEmpty, buildHasValue)

	// Lexical operators on text columns only narrow to "has a value" here;
	// the exact substring/prefix/suffix match runs in the residual pass.
	for _, op := range []Operator{OpContains, OpNotContains, OpStartsWith, OpEndsWith} {
		register(schema.FamilyText, op, buildHasValue)
	}
	register(schema.FamilyText, OpRegex, buildTextRegex)
	register(schema.FamilyText, OpEquals, buildTextEqual(false))
	register(schema.FamilyText, OpNotEquals, buildTextEqual(true))

	register(schema.FamilyNumber, OpEquals, buildNumberCompare(CmpEq))
	register(schema.FamilyNumber, OpNotEquals, buildNumberCompare(CmpNe))
	register(schema.FamilyNumber, OpGreaterThan, buildNumberCompare(CmpGt))
	register(schema.FamilyNumber, OpGreaterThanOrEqual, buildNumberCompare(CmpGte))
	register(schema.FamilyNumber, OpLessThan, buildNumberCompare(CmpLt))
	register(schema.FamilyNumber, OpLessThanOrEqual, buildNumberCompare(CmpLte))
	register(schema.FamilyNumber, OpBetween, buildNumberRange(false))
	register(schema.FamilyNumber, OpNotBetween, buildNumberRange(true))

	register(schema.FamilyBoolean, OpEquals, buildBoolEqual(false))
	register(schema.FamilyBoolean, OpNotEquals, buildBoolEqual(true))

	register(schema.FamilyDate, OpEquals, buildTimeCompare(CmpEq))
	register(schema.FamilyDate, OpNotEquals, buildTimeCompare(CmpNe))
	register(schema.FamilyDate, OpBefore, buildTimeCompare(CmpLt))
	register(schema.FamilyDate, OpAfter, buildTimeCompare(CmpGt))
	register(schema.FamilyDate, OpBetween, buildTimeRange(false))
	register(schema.FamilyDate, OpNotBetween, buildTimeRange(true))
	register(schema.FamilyDate, OpToday, buildPeriodRange(periodToday))
	register(schema.FamilyDate, OpYesterday, buildPeriodRange(periodYesterday))
	register(schema.FamilyDate, OpThisWeek, buildPeriodRange(periodThisWeek))
	register(schema.FamilyDate, OpThisMonth, buildPeriodRange(periodThisMonth))
	register(schema.FamilyDate, OpThisYear, buildPeriodRange(periodThisYear))

	// Reference, array and unknown types compare on the stored cell text.
	for _, fam := range []schema.TypeFamily{schema.FamilyReference, schema.FamilyArray, schema.FamilyUnknown} {
		register(fam, OpEquals, buildTextEqual(false))
		register(fam, OpNotEquals, buildTextEqual(true))
	}
}

// BuildPredicate compiles criteria into a store predicate. Criteria that fail
// validation are dropped silently; builders that yield no constraint are
// excluded from the AND group. The relative date operators are resolved once
// per build from now, in server-local time.
func BuildPredicate(criteria []Criterion, columns []schema.Column, globalSearch string, now time.Time) Predicate {
	byID := schema.Index(columns)

	var fragments []Fragment
	for _, c := range criteria {
		if !IsValid(c, byID) {
			continue
		}
		col := byID[c.ColumnID]
		build, ok := fragmentBuilders[builderKey{op: c.Operator, fam: col.Type.Family()}]
		if !ok {
			continue
		}
		frag, ok := build(col, c, now)
		if !ok {
			continue
		}
		fragments = append(fragments, frag)
	}

	if term := trimmedSearch(globalSearch); term != "" {
		fragments = append(fragments, Fragment{Kind: FragGlobalSearch, Text: term})
	}

	return Predicate{Fragments: fragments}
}

func trimmedSearch(s string) string {
	// Whitespace-only search terms constrain nothing.
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return s
		}
	}
	return ""
}

func buildHasValue(col schema.Column, _ Criterion, _ time.Time) (Fragment, bool) {
	return Fragment{Kind: FragHasValue, ColumnID: col.ID}, true
}

func buildNoValue(col schema.Column, _ Criterion, _ time.Time) (Fragment, bool) {
	return Fragment{Kind: FragNoValue, ColumnID: col.ID}, true
}

func buildTextRegex(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
	s, ok := stringify(c.Value)
	if !ok || s == "" {
		return Fragment{}, false
	}
	return Fragment{Kind: FragRegex, ColumnID: col.ID, Text: s}, true
}

func buildTextEqual(negate bool) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		coerced := Coerce(c.Value, schema.TypeText)
		if !coerced.OK {
			return Fragment{}, false
		}
		// Empty or nil input is a no-op filter, not "value equals empty string".
		s, _ := coerced.Value.(string)
		if coerced.Value == nil || s == "" {
			return Fragment{}, false
		}
		return Fragment{Kind: FragTextEqual, ColumnID: col.ID, Text: s, Negate: negate}, true
	}
}

func buildNumberCompare(cmp CmpOp) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		n, ok := parseNumber(c.Value)
		if !ok {
			return Fragment{}, false
		}
		return Fragment{Kind: FragNumberCompare, ColumnID: col.ID, Cmp: cmp, Number: n}, true
	}
}

func buildNumberRange(negate bool) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		lo, ok1 := parseNumber(c.Value)
		hi, ok2 := parseNumber(c.SecondValue)
		if !ok1 || !ok2 {
			return Fragment{}, false
		}
		// Bounds are used as given: min > max yields zero matches, not a swap.
		return Fragment{Kind: FragNumberRange, ColumnID: col.ID, Number: lo, Number2: hi, Negate: negate}, true
	}
}

func buildBoolEqual(negate bool) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		b, ok := parseBool(c.Value)
		if !ok {
			return Fragment{}, false
		}
		return Fragment{Kind: FragBoolEqual, ColumnID: col.ID, Bool: b, Negate: negate}, true
	}
}

func buildTimeCompare(cmp CmpOp) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		ts, ok := parseTime(c.Value)
		if !ok {
			return Fragment{}, false
		}
		return Fragment{Kind: FragTimeCompare, ColumnID: col.ID, Cmp: cmp, Time: ts}, true
	}
}

func buildTimeRange(negate bool) fragmentFunc {
	return func(col schema.Column, c Criterion, _ time.Time) (Fragment, bool) {
		lo, ok1 := parseTime(c.Value)
		hi, ok2 := parseTime(c.SecondValue)
		if !ok1 || !ok2 {
			return Fragment{}, false
		}
		return Fragment{Kind: FragTimeRange, ColumnID: col.ID, Time: lo, Time2: hi, Negate: negate}, true
	}
}

type periodFunc func(now time.Time) (time.Time, time.Time)

func buildPeriodRange(period periodFunc) fragmentFunc {
	return func(col schema.Column, _ Criterion, now time.Time) (Fragment, bool) {
		start, end := period(now)
		return Fragment{Kind: FragTimeRange, ColumnID: col.ID, Time: start, Time2: end}, true
	}
}

// Period bounds are inclusive: start is 00:00:00.000 of the first day and end
// is 23:59:59.999 of the last day, in the server's local time.

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func periodEnd(startOfNext time.Time) time.Time {
	return startOfNext.Add(-time.Millisecond)
}

func periodToday(now time.Time) (time.Time, time.Time) {
	start := dayStart(now)
	return start, periodEnd(start.AddDate(0, 0, 1))
}

func periodYesterday(now time.Time) (time.Time, time.Time) {
	start := dayStart(now).AddDate(0, 0, -1)
	return start, periodEnd(start.AddDate(0, 0, 1))
}

func periodThisWeek(now time.Time) (time.Time, time.Time) {
	// Weeks start on Sunday.
	start := dayStart(now).AddDate(0, 0, -int(now.Weekday()))
	return start, periodEnd(start.AddDate(0, 0, 7))
}

func periodThisMonth(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return start, periodEnd(start.AddDate(0, 1, 0))
}

func periodThisYear(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, periodEnd(start.AddDate(1, 0, 0))
}

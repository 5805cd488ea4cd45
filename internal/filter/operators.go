package filter

import (
	"regexp"

	"github.com/gridbase/gridbase/internal/schema"
)

// Operator sets per type family. The catalog is fixed: a criterion whose
// operator is not in its column's set is dropped before predicate construction.
var (
	textOperators = []Operator{
		OpContains, OpNotContains, OpEquals, OpNotEquals,
		OpStartsWith, OpEndsWith, OpRegex, OpIsEmpty, OpIsNotEmpty,
	}
	numberOperators = []Operator{
		OpEquals, OpNotEquals, OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual, OpBetween, OpNotBetween,
		OpIsEmpty, OpIsNotEmpty,
	}
	booleanOperators = []Operator{
		OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty,
	}
	dateOperators = []Operator{
		OpEquals, OpNotEquals, OpBefore, OpAfter, OpBetween, OpNotBetween,
		OpToday, OpYesterday, OpThisWeek, OpThisMonth, OpThisYear,
		OpIsEmpty, OpIsNotEmpty,
	}
	defaultOperators = []Operator{
		OpEquals, OpNotEquals, OpIsEmpty, OpIsNotEmpty,
	}
)

var operatorsByFamily = map[schema.TypeFamily][]Operator{
	schema.FamilyText:      textOperators,
	schema.FamilyNumber:    numberOperators,
	schema.FamilyBoolean:   booleanOperators,
	schema.FamilyDate:      dateOperators,
	schema.FamilyReference: defaultOperators,
	schema.FamilyArray:     defaultOperators,
	schema.FamilyUnknown:   defaultOperators,
}

// noValueOperators are valid regardless of the supplied value.
var noValueOperators = map[Operator]bool{
	OpToday:      true,
	OpYesterday:  true,
	OpThisWeek:   true,
	OpThisMonth:  true,
	OpThisYear:   true,
	OpIsEmpty:    true,
	OpIsNotEmpty: true,
}

// ValidOperators returns the set of operators semantically valid for a column type.
func ValidOperators(t schema.ColumnType) map[Operator]bool {
	ops := operatorsByFamily[t.Family()]
	set := make(map[Operator]bool, len(ops))
	for _, op := range ops {
		set[op] = true
	}
	return set
}

// IsValid reports whether a criterion is structurally valid against the
// schema: known column, operator in the column type's set, and a value that
// passes the type-specific presence and parseability checks. Invalid criteria
// are dropped silently by the predicate builder, never turned into errors.
func IsValid(c Criterion, columns map[int64]schema.Column) bool {
	col, ok := columns[c.ColumnID]
	if !ok {
		return false
	}
	if !ValidOperators(col.Type)[c.Operator] {
		return false
	}
	if noValueOperators[c.Operator] {
		return true
	}
	return valueValid(c, col.Type)
}

func valueValid(c Criterion, t schema.ColumnType) bool {
	switch t.Family() {
	case schema.FamilyNumber:
		if _, ok := parseNumber(c.Value); !ok {
			return false
		}
		if c.Operator == OpBetween || c.Operator == OpNotBetween {
			_, ok := parseNumber(c.SecondValue)
			return ok
		}
		return true

	case schema.FamilyDate:
		if _, ok := parseTime(c.Value); !ok {
			return false
		}
		if c.Operator == OpBetween || c.Operator == OpNotBetween {
			_, ok := parseTime(c.SecondValue)
			return ok
		}
		return true

	case schema.FamilyBoolean:
		_, ok := parseBool(c.Value)
		return ok

	default:
		// Text family plus reference/array/unknown: value must be present.
		if c.Value == nil {
			return false
		}
		s, ok := stringify(c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpEquals, OpNotEquals:
			// Empty string is permitted here; the builder treats it as no constraint.
			return true
		case OpRegex:
			if s == "" {
				return false
			}
			_, err := regexp.Compile(s)
			return err == nil
		default:
			return s != ""
		}
	}
}

// ValidCriteria returns the criteria that pass IsValid, in input order.
func ValidCriteria(criteria []Criterion, columns map[int64]schema.Column) []Criterion {
	var valid []Criterion
	for _, c := range criteria {
		if IsValid(c, columns) {
			valid = append(valid, c)
		}
	}
	return valid
}

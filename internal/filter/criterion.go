package filter

import "encoding/json"

// Operator identifies a filter operator as supplied by the client.
type Operator string

const (
	OpContains           Operator = "contains"
	OpNotContains        Operator = "not_contains"
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpStartsWith         Operator = "starts_with"
	OpEndsWith           Operator = "ends_with"
	OpRegex              Operator = "regex"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpBetween            Operator = "between"
	OpNotBetween         Operator = "not_between"
	OpBefore             Operator = "before"
	OpAfter              Operator = "after"
	OpToday              Operator = "today"
	OpYesterday          Operator = "yesterday"
	OpThisWeek           Operator = "this_week"
	OpThisMonth          Operator = "this_month"
	OpThisYear           Operator = "this_year"
	OpIsEmpty            Operator = "is_empty"
	OpIsNotEmpty         Operator = "is_not_empty"
)

// Criterion is one column/operator/value filter request from the client.
// Criteria are transient: constructed per request and never persisted.
type Criterion struct {
	ColumnID    int64    `json:"columnId"`
	ColumnName  string   `json:"columnName,omitempty"`
	ColumnType  string   `json:"columnType,omitempty"`
	Operator    Operator `json:"operator"`
	Value       any      `json:"value,omitempty"`
	SecondValue any      `json:"secondValue,omitempty"`
}

// ParseCriteria decodes the filters query parameter (a JSON array of
// criteria). Malformed input degrades to "no filters" rather than an error.
func ParseCriteria(raw string) []Criterion {
	if raw == "" || raw == "[]" {
		return nil
	}
	var criteria []Criterion
	if err := json.Unmarshal([]byte(raw), &criteria); err != nil {
		return nil
	}
	return criteria
}

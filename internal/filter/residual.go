package filter

import (
	"strings"

	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

// residualOperators are the operator/type pairs the store cannot evaluate
// exactly: the predicate only narrows them to "has a value" and the lexical
// match is re-run here over the fetched page.
var residualOperators = map[Operator]bool{
	OpContains:    true,
	OpNotContains: true,
	OpStartsWith:  true,
	OpEndsWith:    true,
}

// ApplyResidual re-evaluates the lexical operators on text-family columns
// over an already-fetched page of rows, case-insensitively. A row is retained
// only if it passes every residual criterion.
//
// A row whose target cell is missing or null fails every lexical operator,
// including not_contains. "No value" satisfies no string predicate here, even
// a negated one.
func ApplyResidual(rows []models.Row, criteria []Criterion, columns []schema.Column) []models.Row {
	byID := schema.Index(columns)

	var residual []Criterion
	for _, c := range criteria {
		if !residualOperators[c.Operator] {
			continue
		}
		col, ok := byID[c.ColumnID]
		if !ok || col.Type.Family() != schema.FamilyText {
			continue
		}
		if !IsValid(c, byID) {
			continue
		}
		residual = append(residual, c)
	}
	if len(residual) == 0 {
		return rows
	}

	filtered := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if rowPassesResidual(&row, residual) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func rowPassesResidual(row *models.Row, criteria []Criterion) bool {
	for _, c := range criteria {
		if !cellMatchesLexical(row, c) {
			return false
		}
	}
	return true
}

func cellMatchesLexical(row *models.Row, c Criterion) bool {
	raw, ok := row.CellValue(c.ColumnID)
	if !ok || raw == nil {
		return false
	}
	cell, ok := stringify(raw)
	if !ok {
		return false
	}

	needle, ok := stringify(c.Value)
	if !ok {
		return false
	}

	cellLower := strings.ToLower(cell)
	needleLower := strings.ToLower(needle)

	switch c.Operator {
	case OpContains:
		return strings.Contains(cellLower, needleLower)
	case OpNotContains:
		return !strings.Contains(cellLower, needleLower)
	case OpStartsWith:
		return strings.HasPrefix(cellLower, needleLower)
	case OpEndsWith:
		return strings.HasSuffix(cellLower, needleLower)
	default:
		return true
	}
}

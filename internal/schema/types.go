package schema

// ColumnType is the declared type of a table column.
type ColumnType string

const (
	TypeText        ColumnType = "text"
	TypeString      ColumnType = "string"
	TypeEmail       ColumnType = "email"
	TypeURL         ColumnType = "url"
	TypeNumber      ColumnType = "number"
	TypeInteger     ColumnType = "integer"
	TypeDecimal     ColumnType = "decimal"
	TypeBoolean     ColumnType = "boolean"
	TypeDate        ColumnType = "date"
	TypeDateTime    ColumnType = "datetime"
	TypeReference   ColumnType = "reference"
	TypeCustomArray ColumnType = "customArray"
)

// TypeFamily groups column types that share operator and comparison semantics.
type TypeFamily int

const (
	FamilyUnknown TypeFamily = iota
	FamilyText
	FamilyNumber
	FamilyBoolean
	FamilyDate
	FamilyReference
	FamilyArray
)

// Family returns the semantic family of a column type. Unrecognized types
// fall into FamilyUnknown, which only supports equality and emptiness checks.
func (t ColumnType) Family() TypeFamily {
	switch t {
	case TypeText, TypeString, TypeEmail, TypeURL:
		return FamilyText
	case TypeNumber, TypeInteger, TypeDecimal:
		return FamilyNumber
	case TypeBoolean:
		return FamilyBoolean
	case TypeDate, TypeDateTime:
		return FamilyDate
	case TypeReference:
		return FamilyReference
	case TypeCustomArray:
		return FamilyArray
	default:
		return FamilyUnknown
	}
}

// Column describes one typed column of a table. Columns are immutable for the
// duration of a request; the schema service owns their lifecycle.
type Column struct {
	ID               int64      `json:"id"`
	TableID          int64      `json:"tableId"`
	Name             string     `json:"name"`
	Type             ColumnType `json:"type"`
	ReferenceTableID *int64     `json:"referenceTableId,omitempty"`
	Position         int        `json:"position"`
	Required         bool       `json:"required"`
}

// Index returns the columns keyed by ID.
func Index(columns []Column) map[int64]Column {
	byID := make(map[int64]Column, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}
	return byID
}

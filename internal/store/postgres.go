package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridbase/gridbase/internal/filter"
	"github.com/gridbase/gridbase/internal/models"
	"github.com/gridbase/gridbase/internal/schema"
)

// PostgresStore is the pgx-backed row store. Rows live in an EAV layout:
// rows(id, table_id, created_at, updated_at) and cells(row_id, column_id,
// value, value_num, value_bool, value_ts). The typed shadow columns are
// populated on write so numeric, boolean and date fragments compare natively.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// sqlBuilder accumulates WHERE conditions and positional args.
type sqlBuilder struct {
	conds []string
	args  []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) where() string {
	return strings.Join(b.conds, " AND ")
}

// appendFragments renders each predicate fragment as an EXISTS condition over
// the cells table.
func (b *sqlBuilder) appendFragments(p filter.Predicate) {
	for _, frag := range p.Fragments {
		if frag.Kind == filter.FragGlobalSearch {
			b.conds = append(b.conds, fmt.Sprintf(
				"EXISTS (SELECT 1 FROM cells c WHERE c.row_id = r.id AND c.value ILIKE '%%' || %s || '%%')",
				b.arg(frag.Text)))
			continue
		}

		colArg := b.arg(frag.ColumnID)
		prefix := fmt.Sprintf("SELECT 1 FROM cells c WHERE c.row_id = r.id AND c.column_id = %s AND ", colArg)

		switch frag.Kind {
		case filter.FragHasValue:
			b.conds = append(b.conds, "EXISTS ("+prefix+"c.value IS NOT NULL)")
		case filter.FragNoValue:
			b.conds = append(b.conds, "NOT EXISTS ("+prefix+"c.value IS NOT NULL)")
		case filter.FragTextEqual:
			op := "="
			if frag.Negate {
				op = "<>"
			}
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("btrim(c.value) %s %s)", op, b.arg(frag.Text)))
		case filter.FragRegex:
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value ~ %s)", b.arg(frag.Text)))
		case filter.FragNumberCompare:
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value_num %s %s)", cmpSQL(frag.Cmp), b.arg(frag.Number)))
		case filter.FragNumberRange:
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value_num %s %s AND %s)",
				betweenSQL(frag.Negate), b.arg(frag.Number), b.arg(frag.Number2)))
		case filter.FragBoolEqual:
			op := "="
			if frag.Negate {
				op = "<>"
			}
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value_bool %s %s)", op, b.arg(frag.Bool)))
		case filter.FragTimeCompare:
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value_ts %s %s)", cmpSQL(frag.Cmp), b.arg(frag.Time)))
		case filter.FragTimeRange:
			b.conds = append(b.conds, "EXISTS ("+prefix+fmt.Sprintf("c.value_ts %s %s AND %s)",
				betweenSQL(frag.Negate), b.arg(frag.Time), b.arg(frag.Time2)))
		}
	}
}

func cmpSQL(cmp filter.CmpOp) string {
	switch cmp {
	case filter.CmpEq:
		return "="
	case filter.CmpNe:
		return "<>"
	case filter.CmpGt:
		return ">"
	case filter.CmpGte:
		return ">="
	case filter.CmpLt:
		return "<"
	case filter.CmpLte:
		return "<="
	}
	return "="
}

func betweenSQL(negate bool) string {
	if negate {
		return "NOT BETWEEN"
	}
	return "BETWEEN"
}

// CountRows counts the rows matching the predicate.
func (s *PostgresStore) CountRows(ctx context.Context, tableID int64, p filter.Predicate) (int64, error) {
	b := &sqlBuilder{}
	b.conds = append(b.conds, fmt.Sprintf("r.table_id = %s", b.arg(tableID)))
	b.appendFragments(p)

	var count int64
	query := "SELECT count(*) FROM rows r WHERE " + b.where()
	if err := s.pool.QueryRow(ctx, query, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return count, nil
}

// CountAll counts every row in the table.
func (s *PostgresStore) CountAll(ctx context.Context, tableID int64) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM rows WHERE table_id = $1", tableID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count table rows: %w", err)
	}
	return count, nil
}

// FetchRows fetches one sorted page of matching rows with their cells.
func (s *PostgresStore) FetchRows(ctx context.Context, tableID int64, p filter.Predicate, order filter.Sort, offset, limit int) ([]models.Row, error) {
	b := &sqlBuilder{}
	b.conds = append(b.conds, fmt.Sprintf("r.table_id = %s", b.arg(tableID)))
	b.appendFragments(p)

	orderCol := "r.id"
	if order.By == "created_at" {
		orderCol = "r.created_at"
	}
	direction := "ASC"
	if order.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		"SELECT r.id, r.table_id, r.created_at, r.updated_at FROM rows r WHERE %s ORDER BY %s %s OFFSET %s LIMIT %s",
		b.where(), orderCol, direction, b.arg(offset), b.arg(limit))

	rows, err := s.pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows: %w", err)
	}
	defer rows.Close()

	var page []models.Row
	var ids []int64
	for rows.Next() {
		var row models.Row
		if err := rows.Scan(&row.ID, &row.TableID, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		page = append(page, row)
		ids = append(ids, row.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	if len(page) == 0 {
		return nil, nil
	}

	cells, err := s.loadCells(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range page {
		page[i].Cells = cells[page[i].ID]
	}
	return page, nil
}

func (s *PostgresStore) loadCells(ctx context.Context, rowIDs []int64) (map[int64][]models.Cell, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT row_id, column_id, value, value_num, value_bool, value_ts FROM cells WHERE row_id = ANY($1)",
		rowIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load cells: %w", err)
	}
	defer rows.Close()

	cells := make(map[int64][]models.Cell)
	for rows.Next() {
		var rowID, columnID int64
		var text *string
		var num *float64
		var boolean *bool
		var ts *time.Time
		if err := rows.Scan(&rowID, &columnID, &text, &num, &boolean, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cells[rowID] = append(cells[rowID], models.Cell{ColumnID: columnID, Value: cellValue(text, num, boolean, ts)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cells: %w", err)
	}
	return cells, nil
}

// cellValue picks the typed representation when one is populated, falling
// back to the text value.
func cellValue(text *string, num *float64, boolean *bool, ts *time.Time) any {
	switch {
	case num != nil:
		return *num
	case boolean != nil:
		return *boolean
	case ts != nil:
		return *ts
	case text != nil:
		return *text
	default:
		return nil
	}
}

// typedCell computes the stored representation of one cell value: the
// canonical text plus the typed shadow value for the column's family.
func typedCell(value any, t schema.ColumnType) (text *string, num *float64, boolean *bool, ts *time.Time) {
	if value == nil {
		return nil, nil, nil, nil
	}

	coerced := filter.Coerce(value, t)
	if !coerced.OK || coerced.Value == nil {
		s := fmt.Sprint(value)
		return &s, nil, nil, nil
	}

	switch v := coerced.Value.(type) {
	case float64:
		s := fmt.Sprint(v)
		return &s, &v, nil, nil
	case bool:
		s := fmt.Sprint(v)
		return &s, nil, &v, nil
	case time.Time:
		s := v.Format(time.RFC3339Nano)
		return &s, nil, nil, &v
	case string:
		return &v, nil, nil, nil
	default:
		s := fmt.Sprint(v)
		return &s, nil, nil, nil
	}
}

// InsertRow inserts a row and its cells in one transaction.
func (s *PostgresStore) InsertRow(ctx context.Context, tableID int64, cells []models.Cell, columns []schema.Column) (models.Row, error) {
	byID := schema.Index(columns)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Row{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var row models.Row
	err = tx.QueryRow(ctx,
		"INSERT INTO rows (table_id, created_at, updated_at) VALUES ($1, now(), now()) RETURNING id, table_id, created_at, updated_at",
		tableID,
	).Scan(&row.ID, &row.TableID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return models.Row{}, fmt.Errorf("failed to insert row: %w", err)
	}

	for _, cell := range cells {
		col, ok := byID[cell.ColumnID]
		if !ok {
			continue
		}
		text, num, boolean, ts := typedCell(cell.Value, col.Type)
		_, err = tx.Exec(ctx,
			"INSERT INTO cells (row_id, column_id, value, value_num, value_bool, value_ts) VALUES ($1, $2, $3, $4, $5, $6)",
			row.ID, cell.ColumnID, text, num, boolean, ts)
		if err != nil {
			return models.Row{}, fmt.Errorf("failed to insert cell: %w", err)
		}
		row.Cells = append(row.Cells, models.Cell{ColumnID: cell.ColumnID, Value: cellValue(text, num, boolean, ts)})
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Row{}, fmt.Errorf("failed to commit row insert: %w", err)
	}
	return row, nil
}

// UpdateRow upserts the given cells of a row.
func (s *PostgresStore) UpdateRow(ctx context.Context, tableID, rowID int64, cells []models.Cell, columns []schema.Column) (models.Row, error) {
	byID := schema.Index(columns)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Row{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE rows SET updated_at = now() WHERE id = $1 AND table_id = $2", rowID, tableID)
	if err != nil {
		return models.Row{}, fmt.Errorf("failed to update row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Row{}, ErrRowNotFound
	}

	for _, cell := range cells {
		col, ok := byID[cell.ColumnID]
		if !ok {
			continue
		}
		text, num, boolean, ts := typedCell(cell.Value, col.Type)
		_, err = tx.Exec(ctx,
			`INSERT INTO cells (row_id, column_id, value, value_num, value_bool, value_ts)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (row_id, column_id)
			 DO UPDATE SET value = EXCLUDED.value, value_num = EXCLUDED.value_num,
			               value_bool = EXCLUDED.value_bool, value_ts = EXCLUDED.value_ts`,
			rowID, cell.ColumnID, text, num, boolean, ts)
		if err != nil {
			return models.Row{}, fmt.Errorf("failed to upsert cell: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Row{}, fmt.Errorf("failed to commit row update: %w", err)
	}
	return s.GetRow(ctx, tableID, rowID)
}

// DeleteRow removes a row; its cells go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteRow(ctx context.Context, tableID, rowID int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM rows WHERE id = $1 AND table_id = $2", rowID, tableID)
	if err != nil {
		return fmt.Errorf("failed to delete row: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

// GetRow returns one row with its cells.
func (s *PostgresStore) GetRow(ctx context.Context, tableID, rowID int64) (models.Row, error) {
	var row models.Row
	err := s.pool.QueryRow(ctx,
		"SELECT id, table_id, created_at, updated_at FROM rows WHERE id = $1 AND table_id = $2",
		rowID, tableID,
	).Scan(&row.ID, &row.TableID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Row{}, ErrRowNotFound
		}
		return models.Row{}, fmt.Errorf("failed to get row: %w", err)
	}

	cells, err := s.loadCells(ctx, []int64{row.ID})
	if err != nil {
		return models.Row{}, err
	}
	row.Cells = cells[row.ID]
	return row, nil
}

// DeleteTableRows drops all rows of a table.
func (s *PostgresStore) DeleteTableRows(ctx context.Context, tableID int64) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM rows WHERE table_id = $1", tableID); err != nil {
		return fmt.Errorf("failed to delete table rows: %w", err)
	}
	return nil
}

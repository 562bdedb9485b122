package builder

import (
	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// InsertQuery is a validated INSERT statement. Rows share the column list;
// no rows means DEFAULT VALUES.
type InsertQuery struct {
	Table               *schema.Table
	Columns             []*schema.Column
	Rows                [][]expr.Expr
	OnConflictDoNothing bool
	Returning           []expr.Expr

	resultTypes []types.LogicalType
}

func (q *InsertQuery) ResultTypes() []types.LogicalType { return copyTypes(q.resultTypes) }
func (*InsertQuery) statement()                         {}

type InsertBuilder struct {
	q    InsertQuery
	rows [][]Assignment
	err  error
}

// InsertInto starts an INSERT into t.
func InsertInto(t *schema.Table) *InsertBuilder {
	return &InsertBuilder{q: InsertQuery{Table: t}}
}

// Values adds one row. Every row must assign the same set of columns.
func (b *InsertBuilder) Values(assignments ...Assignment) *InsertBuilder {
	if b.err == nil {
		b.rows = append(b.rows, append([]Assignment(nil), assignments...))
	}
	return b
}

// OnConflictDoNothing skips rows that violate a unique constraint. MySQL
// renders it as INSERT IGNORE.
func (b *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	b.q.OnConflictDoNothing = true
	return b
}

func (b *InsertBuilder) Returning(es ...expr.Expr) *InsertBuilder {
	b.q.Returning = append(b.q.Returning, es...)
	return b
}

func (b *InsertBuilder) Build() (*InsertQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	s := newScope(q.Table)

	if len(b.rows) > 0 {
		for _, a := range b.rows[0] {
			q.Columns = append(q.Columns, a.Column)
		}
	}
	index := map[*schema.Column]int{}
	for i, c := range q.Columns {
		if !s.contains(c) {
			return nil, &typedsql.UnboundColumnError{Table: c.Table(), Column: c.Name(), Clause: "INSERT"}
		}
		if _, dup := index[c]; dup {
			return nil, invalid("INSERT", "column %s assigned twice", c)
		}
		index[c] = i
	}

	for n, row := range b.rows {
		if len(row) != len(q.Columns) {
			return nil, invalid("VALUES", "row %d assigns %d columns, want %d", n+1, len(row), len(q.Columns))
		}
		values := make([]expr.Expr, len(q.Columns))
		for _, a := range row {
			i, ok := index[a.Column]
			if !ok || values[i] != nil {
				return nil, invalid("VALUES", "row %d does not match the column list of the first row", n+1)
			}
			if err := newScope().check("VALUES", a.Value); err != nil {
				return nil, err
			}
			if err := checkAggregateFree("VALUES", a.Value); err != nil {
				return nil, err
			}
			if err := checkAssignment(a); err != nil {
				return nil, err
			}
			values[i] = a.Value
		}
		q.Rows = append(q.Rows, values)
	}
	if len(q.Columns) == 0 {
		q.Rows = nil
	}

	for _, c := range q.Table.Columns() {
		if _, ok := index[c]; ok || c.Nullable() || c.HasDefault() {
			continue
		}
		return nil, invalid("INSERT", "missing value for non-nullable column %s", c)
	}

	rt, err := returning(q.Table, q.Returning)
	if err != nil {
		return nil, err
	}
	q.resultTypes = rt
	q.Returning = append([]expr.Expr(nil), q.Returning...)
	return &q, nil
}

func (b *InsertBuilder) MustBuild() *InsertQuery {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

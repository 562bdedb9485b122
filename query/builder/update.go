package builder

import (
	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// UpdateQuery is a validated UPDATE statement.
type UpdateQuery struct {
	Table       *schema.Table
	Assignments []Assignment
	Filter      expr.Expr
	Returning   []expr.Expr

	resultTypes []types.LogicalType
}

func (q *UpdateQuery) ResultTypes() []types.LogicalType { return copyTypes(q.resultTypes) }
func (*UpdateQuery) statement()                         {}

type UpdateBuilder struct {
	q   UpdateQuery
	err error
}

// Update starts an UPDATE of t.
func Update(t *schema.Table) *UpdateBuilder {
	return &UpdateBuilder{q: UpdateQuery{Table: t}}
}

// Set assigns v to c. The value may reference columns of the updated table.
func (b *UpdateBuilder) Set(c *schema.Column, v expr.Expr) *UpdateBuilder {
	b.q.Assignments = append(b.q.Assignments, Assign(c, v))
	return b
}

func (b *UpdateBuilder) SetAll(assignments ...Assignment) *UpdateBuilder {
	b.q.Assignments = append(b.q.Assignments, assignments...)
	return b
}

// Where adds conditions, combined with AND. Without conditions every row
// is updated.
func (b *UpdateBuilder) Where(conds ...expr.Expr) *UpdateBuilder {
	b.q.Filter, b.err = where(b.err, b.q.Filter, conds)
	return b
}

func (b *UpdateBuilder) Returning(es ...expr.Expr) *UpdateBuilder {
	b.q.Returning = append(b.q.Returning, es...)
	return b
}

func (b *UpdateBuilder) Build() (*UpdateQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	if len(q.Assignments) == 0 {
		return nil, invalid("SET", "no columns assigned")
	}
	s := newScope(q.Table)
	seen := map[*schema.Column]bool{}
	for _, a := range q.Assignments {
		if !s.contains(a.Column) {
			return nil, &typedsql.UnboundColumnError{Table: a.Column.Table(), Column: a.Column.Name(), Clause: "SET"}
		}
		if seen[a.Column] {
			return nil, invalid("SET", "column %s assigned twice", a.Column)
		}
		seen[a.Column] = true
		if err := s.check("SET", a.Value); err != nil {
			return nil, err
		}
		if err := checkAggregateFree("SET", a.Value); err != nil {
			return nil, err
		}
		if err := checkAssignment(a); err != nil {
			return nil, err
		}
	}
	if err := checkFilter(s, q.Filter); err != nil {
		return nil, err
	}
	rt, err := returning(q.Table, q.Returning)
	if err != nil {
		return nil, err
	}
	q.resultTypes = rt
	q.Assignments = append([]Assignment(nil), q.Assignments...)
	q.Returning = append([]expr.Expr(nil), q.Returning...)
	return &q, nil
}

func (b *UpdateBuilder) MustBuild() *UpdateQuery {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// DeleteQuery is a validated DELETE statement.
type DeleteQuery struct {
	Table     *schema.Table
	Filter    expr.Expr
	Returning []expr.Expr

	resultTypes []types.LogicalType
}

func (q *DeleteQuery) ResultTypes() []types.LogicalType { return copyTypes(q.resultTypes) }
func (*DeleteQuery) statement()                         {}

type DeleteBuilder struct {
	q   DeleteQuery
	err error
}

// DeleteFrom starts a DELETE from t.
func DeleteFrom(t *schema.Table) *DeleteBuilder {
	return &DeleteBuilder{q: DeleteQuery{Table: t}}
}

// Where adds conditions, combined with AND. Without conditions every row
// is deleted.
func (b *DeleteBuilder) Where(conds ...expr.Expr) *DeleteBuilder {
	b.q.Filter, b.err = where(b.err, b.q.Filter, conds)
	return b
}

func (b *DeleteBuilder) Returning(es ...expr.Expr) *DeleteBuilder {
	b.q.Returning = append(b.q.Returning, es...)
	return b
}

func (b *DeleteBuilder) Build() (*DeleteQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	if err := checkFilter(newScope(q.Table), q.Filter); err != nil {
		return nil, err
	}
	rt, err := returning(q.Table, q.Returning)
	if err != nil {
		return nil, err
	}
	q.resultTypes = rt
	q.Returning = append([]expr.Expr(nil), q.Returning...)
	return &q, nil
}

func (b *DeleteBuilder) MustBuild() *DeleteQuery {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

func where(prev error, filter expr.Expr, conds []expr.Expr) (expr.Expr, error) {
	if prev != nil {
		return filter, prev
	}
	for _, c := range conds {
		if err := checkCondition("WHERE", c); err != nil {
			return filter, err
		}
		f, err := and(filter, c)
		if err != nil {
			return filter, err
		}
		filter = f
	}
	return filter, nil
}

func checkFilter(s scope, filter expr.Expr) error {
	if filter == nil {
		return nil
	}
	if err := s.check("WHERE", filter); err != nil {
		return err
	}
	return checkAggregateFree("WHERE", filter)
}

package builder

import (
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// JoinKind is the kind of a join clause.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
)

func (k JoinKind) String() string {
	switch k {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	default:
		return "INNER JOIN"
	}
}

// Join is a join clause.
type Join struct {
	Kind  JoinKind
	Table *schema.Table
	On    expr.Expr
}

// NullsOrder places NULLs in an ORDER BY.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// Order is one ORDER BY term.
type Order struct {
	Expr  expr.Expr
	Desc  bool
	Nulls NullsOrder
}

func Asc(e expr.Expr) Order  { return Order{Expr: e} }
func Desc(e expr.Expr) Order { return Order{Expr: e, Desc: true} }

// NullsFirst sorts NULLs before other values.
func (o Order) NullsFirst() Order {
	o.Nulls = NullsFirst
	return o
}

func (o Order) NullsLast() Order {
	o.Nulls = NullsLast
	return o
}

// SelectQuery is a validated SELECT statement.
type SelectQuery struct {
	Distinct   bool
	Source     *schema.Table
	Projection []expr.Expr
	Joins      []Join
	Filter     expr.Expr
	GroupBy    []expr.Expr
	Having     expr.Expr
	OrderBy    []Order
	Limit      expr.Expr
	Offset     expr.Expr
	// Outer lists enclosing-query tables a correlated subquery refers to.
	Outer []*schema.Table

	resultTypes []types.LogicalType
}

func (q *SelectQuery) ResultTypes() []types.LogicalType { return copyTypes(q.resultTypes) }
func (*SelectQuery) statement()                         {}

// Qualified reports whether column references must carry their table name.
func (q *SelectQuery) Qualified() bool {
	return len(q.Joins) > 0 || len(q.Outer) > 0
}

// SelectBuilder builds a SelectQuery. The first error is kept and returned
// by Build; later calls are ignored.
type SelectBuilder struct {
	q   SelectQuery
	err error
}

// Select starts a SELECT with the given projection. An empty projection
// selects every column of the source and then of each joined table.
func Select(projection ...expr.Expr) *SelectBuilder {
	return &SelectBuilder{q: SelectQuery{Projection: append([]expr.Expr(nil), projection...)}}
}

func (b *SelectBuilder) From(t *schema.Table) *SelectBuilder {
	if b.err == nil {
		b.q.Source = t
	}
	return b
}

func (b *SelectBuilder) Distinct() *SelectBuilder {
	b.q.Distinct = true
	return b
}

func (b *SelectBuilder) join(kind JoinKind, t *schema.Table, on expr.Expr) *SelectBuilder {
	if b.err != nil {
		return b
	}
	if err := checkCondition(kind.String(), on); err != nil {
		b.err = err
		return b
	}
	b.q.Joins = append(b.q.Joins, Join{Kind: kind, Table: t, On: on})
	return b
}

func (b *SelectBuilder) InnerJoin(t *schema.Table, on expr.Expr) *SelectBuilder {
	return b.join(InnerJoin, t, on)
}

// LeftJoin joins t; its columns become nullable in the result.
func (b *SelectBuilder) LeftJoin(t *schema.Table, on expr.Expr) *SelectBuilder {
	return b.join(LeftJoin, t, on)
}

// RightJoin joins t; the columns of every table joined before it become
// nullable in the result.
func (b *SelectBuilder) RightJoin(t *schema.Table, on expr.Expr) *SelectBuilder {
	return b.join(RightJoin, t, on)
}

// JoinOn inner joins t using the foreign key relating it to the source or
// an earlier join.
func (b *SelectBuilder) JoinOn(t *schema.Table) *SelectBuilder {
	return b.inferJoin(InnerJoin, t)
}

// LeftJoinOn is JoinOn with a LEFT JOIN.
func (b *SelectBuilder) LeftJoinOn(t *schema.Table) *SelectBuilder {
	return b.inferJoin(LeftJoin, t)
}

func (b *SelectBuilder) inferJoin(kind JoinKind, t *schema.Table) *SelectBuilder {
	if b.err != nil {
		return b
	}
	if b.q.Source == nil {
		b.err = invalid(kind.String(), "join on %s before FROM", t.Name())
		return b
	}
	candidates := []*schema.Table{b.q.Source}
	for _, j := range b.q.Joins {
		candidates = append(candidates, j.Table)
	}
	for _, c := range candidates {
		on, ok, err := relation(c, t)
		if err != nil {
			b.err = err
			return b
		}
		if ok {
			return b.join(kind, t, on)
		}
	}
	b.err = invalid(kind.String(), "no foreign key relates %s to the query", t.Name())
	return b
}

// relation builds the equality condition of the first foreign key between
// a and b, in either direction.
func relation(a, b *schema.Table) (expr.Expr, bool, error) {
	pairs := func(from, to *schema.Table, fk schema.ForeignKey) (expr.Expr, error) {
		conds := make([]expr.Expr, len(fk.Columns))
		for i := range fk.Columns {
			eq, err := expr.Eq(expr.Col(to.MustColumn(fk.RefColumns[i])), expr.Col(from.MustColumn(fk.Columns[i])))
			if err != nil {
				return nil, err
			}
			conds[i] = eq
		}
		return expr.And(conds...)
	}
	for _, fk := range b.ForeignKeys() {
		if fk.RefTable == a.Name() {
			on, err := pairs(b, a, fk)
			return on, err == nil, err
		}
	}
	for _, fk := range a.ForeignKeys() {
		if fk.RefTable == b.Name() {
			on, err := pairs(a, b, fk)
			return on, err == nil, err
		}
	}
	return nil, false, nil
}

// Where adds conditions, combined with AND with any earlier ones.
func (b *SelectBuilder) Where(conds ...expr.Expr) *SelectBuilder {
	b.q.Filter = b.accumulate("WHERE", b.q.Filter, conds)
	return b
}

func (b *SelectBuilder) accumulate(clause string, filter expr.Expr, conds []expr.Expr) expr.Expr {
	for _, c := range conds {
		if b.err != nil {
			return filter
		}
		if err := checkCondition(clause, c); err != nil {
			b.err = err
			return filter
		}
		f, err := and(filter, c)
		if err != nil {
			b.err = err
			return filter
		}
		filter = f
	}
	return filter
}

func (b *SelectBuilder) GroupBy(es ...expr.Expr) *SelectBuilder {
	b.q.GroupBy = append(b.q.GroupBy, es...)
	return b
}

// Having adds group conditions, combined with AND.
func (b *SelectBuilder) Having(conds ...expr.Expr) *SelectBuilder {
	b.q.Having = b.accumulate("HAVING", b.q.Having, conds)
	return b
}

func (b *SelectBuilder) OrderBy(orders ...Order) *SelectBuilder {
	b.q.OrderBy = append(b.q.OrderBy, orders...)
	return b
}

func (b *SelectBuilder) Limit(n int64) *SelectBuilder {
	return b.LimitExpr(expr.Int(n))
}

func (b *SelectBuilder) Offset(n int64) *SelectBuilder {
	return b.OffsetExpr(expr.Int(n))
}

// LimitExpr limits the result to a computed, non-negative Integer.
func (b *SelectBuilder) LimitExpr(e expr.Expr) *SelectBuilder {
	if b.err == nil {
		b.err = checkCount("LIMIT", e)
		b.q.Limit = e
	}
	return b
}

func (b *SelectBuilder) OffsetExpr(e expr.Expr) *SelectBuilder {
	if b.err == nil {
		b.err = checkCount("OFFSET", e)
		b.q.Offset = e
	}
	return b
}

func checkCount(clause string, e expr.Expr) error {
	if !e.Type().Equal(types.Integer()) {
		return invalid(clause, "expected a non-nullable Integer, got %s", e.Type())
	}
	if len(expr.Columns(e, false)) > 0 {
		return invalid(clause, "column references are not allowed")
	}
	if v, ok := constant(e); ok && v < 0 {
		return invalid(clause, "must not be negative, got %d", v)
	}
	return nil
}

// constant evaluates Integer arithmetic over literals. It reports false for
// anything else, such as a scalar subquery, or for a division by zero.
func constant(e expr.Expr) (int64, bool) {
	switch n := e.(type) {
	case *expr.Literal:
		v, ok := n.Value.(int64)
		return v, ok
	case *expr.Unary:
		if n.Op != expr.OpNeg {
			return 0, false
		}
		v, ok := constant(n.Operand)
		return -v, ok
	case *expr.Binary:
		l, ok := constant(n.Left)
		if !ok {
			return 0, false
		}
		r, ok := constant(n.Right)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case expr.OpAdd:
			return l + r, true
		case expr.OpSub:
			return l - r, true
		case expr.OpMul:
			return l * r, true
		case expr.OpDiv:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case expr.OpMod:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		}
	}
	return 0, false
}

// Outer declares the tables of an enclosing query that a correlated
// subquery refers to.
func (b *SelectBuilder) Outer(tables ...*schema.Table) *SelectBuilder {
	b.q.Outer = append(b.q.Outer, tables...)
	return b
}

// Build validates the statement.
func (b *SelectBuilder) Build() (*SelectQuery, error) {
	if b.err != nil {
		return nil, b.err
	}
	q := b.q
	if q.Source == nil {
		return nil, invalid("FROM", "missing source table")
	}

	s := newScope(q.Outer...).with(q.Source)
	seen := map[string]bool{q.Source.Name(): true}
	nullable := map[string]bool{}
	for _, j := range q.Joins {
		if seen[j.Table.Name()] {
			return nil, invalid(j.Kind.String(), "table %s is joined twice", j.Table.Name())
		}
		seen[j.Table.Name()] = true
		s = s.with(j.Table)
		if err := s.check(j.Kind.String(), j.On); err != nil {
			return nil, err
		}
		if err := checkAggregateFree(j.Kind.String(), j.On); err != nil {
			return nil, err
		}
		switch j.Kind {
		case LeftJoin:
			nullable[j.Table.Name()] = true
		case RightJoin:
			for name := range seen {
				if name != j.Table.Name() {
					nullable[name] = true
				}
			}
		}
	}

	if len(q.Projection) == 0 {
		q.Projection = allColumns(q.Source)
		for _, j := range q.Joins {
			q.Projection = append(q.Projection, allColumns(j.Table)...)
		}
	} else {
		q.Projection = append([]expr.Expr(nil), q.Projection...)
	}

	for _, e := range q.Projection {
		if err := s.check("SELECT", e); err != nil {
			return nil, err
		}
	}
	if q.Filter != nil {
		if err := s.check("WHERE", q.Filter); err != nil {
			return nil, err
		}
		if err := checkAggregateFree("WHERE", q.Filter); err != nil {
			return nil, err
		}
	}
	for _, e := range q.GroupBy {
		if err := s.check("GROUP BY", e); err != nil {
			return nil, err
		}
		if err := checkAggregateFree("GROUP BY", e); err != nil {
			return nil, err
		}
	}
	if q.Having != nil {
		if err := s.check("HAVING", q.Having); err != nil {
			return nil, err
		}
	}
	for _, o := range q.OrderBy {
		if err := s.check("ORDER BY", o.Expr); err != nil {
			return nil, err
		}
	}
	if q.Limit != nil {
		if err := s.check("LIMIT", q.Limit); err != nil {
			return nil, err
		}
	}
	if q.Offset != nil {
		if err := s.check("OFFSET", q.Offset); err != nil {
			return nil, err
		}
	}
	if err := checkGrouping(&q); err != nil {
		return nil, err
	}

	q.resultTypes = make([]types.LogicalType, len(q.Projection))
	for i, e := range q.Projection {
		t := e.Type()
		for _, c := range expr.Columns(e, true) {
			if nullable[c.Table()] {
				t = types.Nullable(t)
				break
			}
		}
		q.resultTypes[i] = t
	}
	q.GroupBy = append([]expr.Expr(nil), q.GroupBy...)
	q.OrderBy = append([]Order(nil), q.OrderBy...)
	q.Joins = append([]Join(nil), q.Joins...)
	q.Outer = append([]*schema.Table(nil), q.Outer...)
	return &q, nil
}

// MustBuild is like Build but panics on error.
func (b *SelectBuilder) MustBuild() *SelectQuery {
	q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// checkGrouping enforces that an aggregated query only references grouped
// columns outside aggregate calls.
func checkGrouping(q *SelectQuery) error {
	aggregated := len(q.GroupBy) > 0 || q.Having != nil
	for _, e := range q.Projection {
		if expr.HasAggregate(e) {
			aggregated = true
		}
	}
	if !aggregated {
		return nil
	}
	grouped := map[*schema.Column]bool{}
	for _, g := range q.GroupBy {
		if ref, ok := g.(*expr.ColumnRef); ok {
			grouped[ref.Column] = true
		}
	}
	check := func(clause string, e expr.Expr) error {
		for _, g := range q.GroupBy {
			if expr.Equal(g, expr.Unalias(e)) {
				return nil
			}
		}
		for _, c := range expr.Columns(e, true) {
			if !grouped[c] {
				return invalid(clause, "column %s must appear in GROUP BY or be used in an aggregate function", c)
			}
		}
		return nil
	}
	for _, e := range q.Projection {
		if err := check("SELECT", e); err != nil {
			return err
		}
	}
	if q.Having != nil {
		if err := check("HAVING", q.Having); err != nil {
			return err
		}
	}
	for _, o := range q.OrderBy {
		if err := check("ORDER BY", o.Expr); err != nil {
			return err
		}
	}
	return nil
}

// Package expr provides the typed SQL expression tree. Every constructor
// checks its operand types, so an expression that exists is well typed.
package expr

import (
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Expr is a typed SQL expression node. The set of implementations is closed.
type Expr interface {
	// Type returns the logical type of the value the expression produces.
	Type() types.LogicalType
	node()
}

// Query is a statement usable as a subquery.
type Query interface {
	// ResultTypes returns the types of the projected columns in order.
	ResultTypes() []types.LogicalType
}

// BinaryOp is an infix operator.
type BinaryOp string

const (
	OpEq       BinaryOp = "="
	OpNe       BinaryOp = "<>"
	OpLt       BinaryOp = "<"
	OpLe       BinaryOp = "<="
	OpGt       BinaryOp = ">"
	OpGe       BinaryOp = ">="
	OpAnd      BinaryOp = "AND"
	OpOr       BinaryOp = "OR"
	OpAdd      BinaryOp = "+"
	OpSub      BinaryOp = "-"
	OpMul      BinaryOp = "*"
	OpDiv      BinaryOp = "/"
	OpMod      BinaryOp = "%"
	OpConcat   BinaryOp = "||"
	OpLike     BinaryOp = "LIKE"
	OpNotLike  BinaryOp = "NOT LIKE"
	OpILike    BinaryOp = "ILIKE"
	OpContains BinaryOp = "@>"
	OpOverlaps BinaryOp = "&&"
)

// UnaryOp is a prefix or postfix operator.
type UnaryOp string

const (
	OpNot       UnaryOp = "NOT"
	OpNeg       UnaryOp = "-"
	OpIsNull    UnaryOp = "IS NULL"
	OpIsNotNull UnaryOp = "IS NOT NULL"
)

// Postfix reports whether the operator follows its operand.
func (op UnaryOp) Postfix() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// ColumnRef references a schema column.
type ColumnRef struct {
	Column *schema.Column
}

func (c *ColumnRef) Type() types.LogicalType { return c.Column.Type() }

// Literal is a constant that is always rendered as a bind parameter. Value
// holds the canonical Go representation of typ.
type Literal struct {
	Value any
	typ   types.LogicalType
}

func (l *Literal) Type() types.LogicalType { return l.typ }

type Binary struct {
	Op          BinaryOp
	Left, Right Expr
	typ         types.LogicalType
}

func (b *Binary) Type() types.LogicalType { return b.typ }

type Unary struct {
	Op      UnaryOp
	Operand Expr
	typ     types.LogicalType
}

func (u *Unary) Type() types.LogicalType { return u.typ }

// Func is a function call. Aggregate calls are tracked so the builder can
// check GROUP BY rules.
type Func struct {
	Name      string
	Args      []Expr
	Distinct  bool
	Star      bool
	Aggregate bool
	// Keyword functions such as CURRENT_TIMESTAMP take no parentheses.
	Keyword bool
	typ     types.LogicalType
}

func (f *Func) Type() types.LogicalType { return f.typ }

// InList is "operand [NOT] IN (list...)".
type InList struct {
	Operand Expr
	List    []Expr
	Negated bool
}

func (*InList) Type() types.LogicalType { return types.Bool() }

// SubqueryKind selects how a subquery is used.
type SubqueryKind int

const (
	// SubqueryScalar yields the single value of a one-column query.
	SubqueryScalar SubqueryKind = iota
	SubqueryExists
	SubqueryNotExists
	SubqueryIn
	SubqueryNotIn
)

// Subquery embeds a query. Operand is set for IN and NOT IN.
type Subquery struct {
	Kind    SubqueryKind
	Operand Expr
	Query   Query
	typ     types.LogicalType
}

func (s *Subquery) Type() types.LogicalType { return s.typ }

// Aliased names a projected expression.
type Aliased struct {
	Expr  Expr
	Alias string
}

func (a *Aliased) Type() types.LogicalType { return a.Expr.Type() }

func (*ColumnRef) node() {}
func (*Literal) node()   {}
func (*Binary) node()    {}
func (*Unary) node()     {}
func (*Func) node()      {}
func (*InList) node()    {}
func (*Subquery) node()  {}
func (*Aliased) node()   {}

// Walk visits e and its children depth first. Children are skipped when fn
// returns false. Walk does not enter subqueries; their operand is visited.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *Binary:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *Unary:
		Walk(n.Operand, fn)
	case *Func:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *InList:
		Walk(n.Operand, fn)
		for _, a := range n.List {
			Walk(a, fn)
		}
	case *Subquery:
		Walk(n.Operand, fn)
	case *Aliased:
		Walk(n.Expr, fn)
	}
}

// Columns returns the column references in e, outside aggregate calls when
// skipAggregates is set.
func Columns(e Expr, skipAggregates bool) []*schema.Column {
	var out []*schema.Column
	Walk(e, func(n Expr) bool {
		switch n := n.(type) {
		case *ColumnRef:
			out = append(out, n.Column)
		case *Func:
			return !(skipAggregates && n.Aggregate)
		}
		return true
	})
	return out
}

// HasAggregate reports whether e contains an aggregate call outside of
// subqueries.
func HasAggregate(e Expr) bool {
	found := false
	Walk(e, func(n Expr) bool {
		if f, ok := n.(*Func); ok && f.Aggregate {
			found = true
		}
		return !found
	})
	return found
}

// Unalias strips an alias.
func Unalias(e Expr) Expr {
	if a, ok := e.(*Aliased); ok {
		return a.Expr
	}
	return e
}

// Equal reports whether a and b are the same tree. Literals compare by
// identity.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *ColumnRef:
		y, ok := b.(*ColumnRef)
		return ok && x.Column == y.Column
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *Func:
		y, ok := b.(*Func)
		if !ok || x.Name != y.Name || x.Distinct != y.Distinct || x.Star != y.Star || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Aliased:
		return Equal(x.Expr, Unalias(b))
	}
	return a == b
}

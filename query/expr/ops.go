package expr

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Must panics if err is non-nil.
func Must(e Expr, err error) Expr {
	if err != nil {
		panic(err)
	}
	return e
}

func mismatch(op, expected string, operands ...Expr) error {
	actual := make([]string, len(operands))
	for i, o := range operands {
		actual[i] = o.Type().String()
	}
	return &typedsql.TypeMismatchError{Op: op, Expected: expected, Actual: actual}
}

// Col references a column.
func Col(c *schema.Column) Expr { return &ColumnRef{Column: c} }

// Lit builds a literal of type t, converting v to its canonical Go value.
func Lit(t types.LogicalType, v any) (Expr, error) {
	val, err := types.Normalize(t, v)
	if err != nil {
		return nil, &typedsql.TypeMismatchError{Op: "literal", Expected: t.String(), Actual: []string{err.Error()}}
	}
	return &Literal{Value: val, typ: t}, nil
}

func Int(v int64) Expr               { return &Literal{Value: v, typ: types.Integer()} }
func Float(v float64) Expr           { return &Literal{Value: v, typ: types.Float()} }
func Text(v string) Expr             { return &Literal{Value: v, typ: types.Text()} }
func Bool(v bool) Expr               { return &Literal{Value: v, typ: types.Bool()} }
func Time(v time.Time) Expr          { return &Literal{Value: v, typ: types.Timestamp()} }
func Decimal(v decimal.Decimal) Expr { return &Literal{Value: v, typ: types.Numeric()} }
func UUID(v uuid.UUID) Expr          { return &Literal{Value: v, typ: types.UUID()} }

// Null is a NULL literal of type Nullable(t). Null(types.Null()) is an
// untyped NULL compatible with any nullable type.
func Null(t types.LogicalType) Expr {
	return &Literal{typ: types.Nullable(t)}
}

func compare(op BinaryOp, l, r Expr) (Expr, error) {
	if !types.Compatible(l.Type(), r.Type()) {
		return nil, mismatch(string(op), "", l, r)
	}
	if op != OpEq && op != OpNe {
		if !l.Type().IsOrderable() || !r.Type().IsOrderable() {
			return nil, mismatch(string(op), "orderable operands", l, r)
		}
	} else if !equatable(l.Type()) || !equatable(r.Type()) {
		return nil, mismatch(string(op), "comparable operands", l, r)
	}
	return &Binary{Op: op, Left: l, Right: r, typ: types.Bool()}, nil
}

// JSON documents have no equality in every backend.
func equatable(t types.LogicalType) bool {
	return t.Base().Kind() != types.KindJSON
}

func Eq(l, r Expr) (Expr, error) { return compare(OpEq, l, r) }
func Ne(l, r Expr) (Expr, error) { return compare(OpNe, l, r) }
func Lt(l, r Expr) (Expr, error) { return compare(OpLt, l, r) }
func Le(l, r Expr) (Expr, error) { return compare(OpLe, l, r) }
func Gt(l, r Expr) (Expr, error) { return compare(OpGt, l, r) }
func Ge(l, r Expr) (Expr, error) { return compare(OpGe, l, r) }

// Between is "lo <= e AND e <= hi".
func Between(e, lo, hi Expr) (Expr, error) {
	ge, err := Ge(e, lo)
	if err != nil {
		return nil, err
	}
	le, err := Le(e, hi)
	if err != nil {
		return nil, err
	}
	return And(ge, le)
}

func logical(op BinaryOp, operands []Expr) (Expr, error) {
	if len(operands) == 0 {
		return nil, &typedsql.TypeMismatchError{Op: string(op), Expected: "at least one operand"}
	}
	for _, o := range operands {
		if !o.Type().IsBool() {
			return nil, mismatch(string(op), "Bool", o)
		}
	}
	out := operands[0]
	for _, o := range operands[1:] {
		out = &Binary{Op: op, Left: out, Right: o, typ: types.Bool()}
	}
	return out, nil
}

// And folds operands left to right with AND.
func And(operands ...Expr) (Expr, error) { return logical(OpAnd, operands) }

// Or folds operands left to right with OR.
func Or(operands ...Expr) (Expr, error) { return logical(OpOr, operands) }

func Not(e Expr) (Expr, error) {
	if !e.Type().IsBool() {
		return nil, mismatch(string(OpNot), "Bool", e)
	}
	return &Unary{Op: OpNot, Operand: e, typ: types.Bool()}, nil
}

func IsNull(e Expr) Expr    { return &Unary{Op: OpIsNull, Operand: e, typ: types.Bool()} }
func IsNotNull(e Expr) Expr { return &Unary{Op: OpIsNotNull, Operand: e, typ: types.Bool()} }

// nullableBase returns the base shared by two compatible operands and
// whether either side may be NULL.
func nullableBase(l, r Expr) (types.LogicalType, bool) {
	base := l.Type().Base()
	if base.IsNull() {
		base = r.Type().Base()
	}
	return base, l.Type().IsNullable() || r.Type().IsNullable()
}

func arithmetic(op BinaryOp, l, r Expr) (Expr, error) {
	if l.Type().IsNull() && r.Type().IsNull() {
		return nil, mismatch(string(op), "numeric operands", l, r)
	}
	if !types.Compatible(l.Type(), r.Type()) {
		return nil, mismatch(string(op), "", l, r)
	}
	base, nullable := nullableBase(l, r)
	if !base.IsNumeric() {
		return nil, mismatch(string(op), "numeric operands", l, r)
	}
	if op == OpMod && base.Kind() != types.KindInteger {
		return nil, mismatch(string(op), "Integer operands", l, r)
	}
	return &Binary{Op: op, Left: l, Right: r, typ: types.NullableIf(base, nullable)}, nil
}

func Add(l, r Expr) (Expr, error) { return arithmetic(OpAdd, l, r) }
func Sub(l, r Expr) (Expr, error) { return arithmetic(OpSub, l, r) }
func Mul(l, r Expr) (Expr, error) { return arithmetic(OpMul, l, r) }
func Div(l, r Expr) (Expr, error) { return arithmetic(OpDiv, l, r) }
func Mod(l, r Expr) (Expr, error) { return arithmetic(OpMod, l, r) }

func Neg(e Expr) (Expr, error) {
	if !e.Type().IsNumeric() {
		return nil, mismatch(string(OpNeg), "numeric operand", e)
	}
	return &Unary{Op: OpNeg, Operand: e, typ: e.Type()}, nil
}

func textOperands(op BinaryOp, l, r Expr) (bool, error) {
	for _, o := range []Expr{l, r} {
		if !o.Type().IsText() && !o.Type().IsNull() {
			return false, mismatch(string(op), "Text operands", l, r)
		}
	}
	return l.Type().IsNullable() || r.Type().IsNullable(), nil
}

// Concat joins two strings.
func Concat(l, r Expr) (Expr, error) {
	nullable, err := textOperands(OpConcat, l, r)
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpConcat, Left: l, Right: r, typ: types.NullableIf(types.Text(), nullable)}, nil
}

func pattern(op BinaryOp, l, r Expr) (Expr, error) {
	if _, err := textOperands(op, l, r); err != nil {
		return nil, err
	}
	return &Binary{Op: op, Left: l, Right: r, typ: types.Bool()}, nil
}

func Like(e, pat Expr) (Expr, error)    { return pattern(OpLike, e, pat) }
func NotLike(e, pat Expr) (Expr, error) { return pattern(OpNotLike, e, pat) }

// ILike is a case-insensitive LIKE. Only PostgreSQL renders it.
func ILike(e, pat Expr) (Expr, error) { return pattern(OpILike, e, pat) }

func arrays(op BinaryOp, l, r Expr) (Expr, error) {
	if !l.Type().IsArray() || !r.Type().IsArray() || !types.Compatible(l.Type(), r.Type()) {
		return nil, mismatch(string(op), "arrays of the same element type", l, r)
	}
	return &Binary{Op: op, Left: l, Right: r, typ: types.Bool()}, nil
}

// ArrayContains reports whether l contains every element of r.
func ArrayContains(l, r Expr) (Expr, error) { return arrays(OpContains, l, r) }

// ArrayOverlaps reports whether l and r share an element.
func ArrayOverlaps(l, r Expr) (Expr, error) { return arrays(OpOverlaps, l, r) }

func inList(negated bool, e Expr, list []Expr) (Expr, error) {
	op := "IN"
	if negated {
		op = "NOT IN"
	}
	for _, item := range list {
		if !types.Compatible(e.Type(), item.Type()) {
			return nil, mismatch(op, e.Type().Base().String(), item)
		}
	}
	return &InList{Operand: e, List: append([]Expr(nil), list...), Negated: negated}, nil
}

// In is "e IN (list...)". An empty list is always false.
func In(e Expr, list ...Expr) (Expr, error) { return inList(false, e, list) }

// NotIn is "e NOT IN (list...)". An empty list is always true.
func NotIn(e Expr, list ...Expr) (Expr, error) { return inList(true, e, list) }

func singleColumn(op string, q Query) (types.LogicalType, error) {
	rt := q.ResultTypes()
	if len(rt) != 1 {
		return types.LogicalType{}, &typedsql.TypeMismatchError{
			Op:       op,
			Expected: "a single-column subquery",
			Actual:   types.Strings(rt...),
		}
	}
	return rt[0], nil
}

func inQuery(kind SubqueryKind, e Expr, q Query) (Expr, error) {
	op := "IN"
	if kind == SubqueryNotIn {
		op = "NOT IN"
	}
	t, err := singleColumn(op, q)
	if err != nil {
		return nil, err
	}
	if !types.Compatible(e.Type(), t) {
		return nil, &typedsql.TypeMismatchError{Op: op, Actual: []string{e.Type().String(), t.String()}}
	}
	return &Subquery{Kind: kind, Operand: e, Query: q, typ: types.Bool()}, nil
}

func InQuery(e Expr, q Query) (Expr, error)    { return inQuery(SubqueryIn, e, q) }
func NotInQuery(e Expr, q Query) (Expr, error) { return inQuery(SubqueryNotIn, e, q) }

func Exists(q Query) Expr {
	return &Subquery{Kind: SubqueryExists, Query: q, typ: types.Bool()}
}

func NotExists(q Query) Expr {
	return &Subquery{Kind: SubqueryNotExists, Query: q, typ: types.Bool()}
}

// Scalar uses a one-column query as a value. The result is nullable because
// the query may return no rows.
func Scalar(q Query) (Expr, error) {
	t, err := singleColumn("scalar subquery", q)
	if err != nil {
		return nil, err
	}
	return &Subquery{Kind: SubqueryScalar, Query: q, typ: types.Nullable(t)}, nil
}

// As names e in a projection.
func As(e Expr, alias string) Expr {
	return &Aliased{Expr: Unalias(e), Alias: alias}
}

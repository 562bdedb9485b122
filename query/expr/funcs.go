package expr

import (
	"strings"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/types"
)

// Count counts the non-NULL values of e.
func Count(e Expr) Expr {
	return &Func{Name: "COUNT", Args: []Expr{e}, Aggregate: true, typ: types.Integer()}
}

// CountStar is COUNT(*).
func CountStar() Expr {
	return &Func{Name: "COUNT", Star: true, Aggregate: true, typ: types.Integer()}
}

func CountDistinct(e Expr) Expr {
	return &Func{Name: "COUNT", Args: []Expr{e}, Distinct: true, Aggregate: true, typ: types.Integer()}
}

// sumType follows the widening rules of the backends: integer and decimal
// sums are decimals, float sums stay floats. Empty groups yield NULL.
func sumType(name string, e Expr) (types.LogicalType, error) {
	switch e.Type().Base().Kind() {
	case types.KindInteger, types.KindNumeric:
		return types.Nullable(types.Numeric()), nil
	case types.KindFloat:
		return types.Nullable(types.Float()), nil
	}
	return types.LogicalType{}, mismatch(name, "numeric argument", e)
}

func Sum(e Expr) (Expr, error) {
	t, err := sumType("SUM", e)
	if err != nil {
		return nil, err
	}
	return &Func{Name: "SUM", Args: []Expr{e}, Aggregate: true, typ: t}, nil
}

func Avg(e Expr) (Expr, error) {
	t, err := sumType("AVG", e)
	if err != nil {
		return nil, err
	}
	return &Func{Name: "AVG", Args: []Expr{e}, Aggregate: true, typ: t}, nil
}

func extreme(name string, e Expr) (Expr, error) {
	if !e.Type().IsOrderable() || e.Type().IsNull() {
		return nil, mismatch(name, "orderable argument", e)
	}
	return &Func{Name: name, Args: []Expr{e}, Aggregate: true, typ: types.Nullable(e.Type())}, nil
}

func Min(e Expr) (Expr, error) { return extreme("MIN", e) }
func Max(e Expr) (Expr, error) { return extreme("MAX", e) }

func textFunc(name string, e Expr) (Expr, error) {
	if !e.Type().IsText() {
		return nil, mismatch(name, "Text argument", e)
	}
	return &Func{Name: name, Args: []Expr{e}, typ: e.Type()}, nil
}

func Lower(e Expr) (Expr, error) { return textFunc("LOWER", e) }
func Upper(e Expr) (Expr, error) { return textFunc("UPPER", e) }
func Trim(e Expr) (Expr, error)  { return textFunc("TRIM", e) }

// Length is the character length of text or the byte length of a blob.
func Length(e Expr) (Expr, error) {
	k := e.Type().Base().Kind()
	if k != types.KindText && k != types.KindBytes {
		return nil, mismatch("LENGTH", "Text or Bytes argument", e)
	}
	return &Func{Name: "LENGTH", Args: []Expr{e}, typ: types.NullableIf(types.Integer(), e.Type().IsNullable())}, nil
}

// Coalesce returns the first non-NULL argument. The result is nullable only
// when every argument is.
func Coalesce(args ...Expr) (Expr, error) {
	if len(args) == 0 {
		return nil, &typedsql.TypeMismatchError{Op: "COALESCE", Expected: "at least one argument"}
	}
	base := types.Null()
	nullable := true
	for _, a := range args {
		if !types.Compatible(base, a.Type()) {
			return nil, mismatch("COALESCE", "", args...)
		}
		if base.IsNull() {
			base = a.Type().Base()
		}
		if !a.Type().IsNullable() {
			nullable = false
		}
	}
	if base.IsNull() {
		return nil, mismatch("COALESCE", "a typed argument", args...)
	}
	return &Func{Name: "COALESCE", Args: append([]Expr(nil), args...), typ: types.NullableIf(base, nullable)}, nil
}

// Now is the current transaction timestamp.
func Now() Expr {
	return &Func{Name: "CURRENT_TIMESTAMP", Keyword: true, typ: types.Timestamp()}
}

// Call is a scalar function whose result type the caller declares. Arguments
// are not checked.
func Call(name string, result types.LogicalType, args ...Expr) Expr {
	return &Func{Name: strings.ToUpper(name), Args: append([]Expr(nil), args...), typ: result}
}

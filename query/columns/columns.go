// Package columns provides type-safe column handles for query building.
// A handle is bound to a schema column of a fixed logical type, so its
// condition methods cannot fail.
package columns

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Column represents a database column with type safety
type Column interface {
	// Name returns the column name
	Name() string
	// Table returns the table name
	Table() string
	// Expr returns the column reference
	Expr() expr.Expr
}

// BaseColumn is the base implementation for all column types
type BaseColumn struct {
	col *schema.Column
}

// NewColumn wraps a column of any type.
func NewColumn(c *schema.Column) BaseColumn {
	return BaseColumn{col: c}
}

func (c BaseColumn) Name() string           { return c.col.Name() }
func (c BaseColumn) Table() string          { return c.col.Table() }
func (c BaseColumn) Schema() *schema.Column { return c.col }
func (c BaseColumn) Expr() expr.Expr        { return expr.Col(c.col) }

func (c BaseColumn) Count() expr.Expr { return expr.Count(c.Expr()) }

func (c BaseColumn) IsNull() Condition    { return Condition{expr.IsNull(c.Expr())} }
func (c BaseColumn) IsNotNull() Condition { return Condition{expr.IsNotNull(c.Expr())} }

func (c BaseColumn) cond(op func(l, r expr.Expr) (expr.Expr, error), value expr.Expr) Condition {
	return Condition{expr.Must(op(c.Expr(), value))}
}

func (c BaseColumn) in(negated bool, values []expr.Expr) Condition {
	if negated {
		return Condition{expr.Must(expr.NotIn(c.Expr(), values...))}
	}
	return Condition{expr.Must(expr.In(c.Expr(), values...))}
}

func bind(c *schema.Column, kind types.Kind, nullable bool) BaseColumn {
	t := c.Type()
	if t.Base().Kind() != kind || t.IsNullable() != nullable {
		want := kind.String()
		if nullable {
			want = "Nullable(" + want + ")"
		}
		panic(fmt.Sprintf("columns: %s has type %s, want %s", c, t, want))
	}
	return BaseColumn{col: c}
}

func lits[T any](values []T, lit func(T) expr.Expr) []expr.Expr {
	out := make([]expr.Expr, len(values))
	for i, v := range values {
		out[i] = lit(v)
	}
	return out
}

// IntColumn represents an integer column
type IntColumn struct {
	BaseColumn
}

// NewIntColumn binds a non-nullable Integer column.
func NewIntColumn(c *schema.Column) IntColumn {
	return IntColumn{bind(c, types.KindInteger, false)}
}

func (c IntColumn) EQ(value int64) Condition     { return c.cond(expr.Eq, expr.Int(value)) }
func (c IntColumn) NOT_EQ(value int64) Condition { return c.cond(expr.Ne, expr.Int(value)) }
func (c IntColumn) GT(value int64) Condition     { return c.cond(expr.Gt, expr.Int(value)) }
func (c IntColumn) GTE(value int64) Condition    { return c.cond(expr.Ge, expr.Int(value)) }
func (c IntColumn) LT(value int64) Condition     { return c.cond(expr.Lt, expr.Int(value)) }
func (c IntColumn) LTE(value int64) Condition    { return c.cond(expr.Le, expr.Int(value)) }

// IN creates an IN condition
func (c IntColumn) IN(values []int64) Condition { return c.in(false, lits(values, expr.Int)) }

// NOT_IN creates a NOT IN condition
func (c IntColumn) NOT_IN(values []int64) Condition { return c.in(true, lits(values, expr.Int)) }

// EQ_COLUMN compares against another integer column, typically across a join.
func (c IntColumn) EQ_COLUMN(other IntColumn) Condition { return c.cond(expr.Eq, other.Expr()) }

// NullableIntColumn represents a nullable integer column
type NullableIntColumn struct {
	BaseColumn
}

func NewNullableIntColumn(c *schema.Column) NullableIntColumn {
	return NullableIntColumn{bind(c, types.KindInteger, true)}
}

func (c NullableIntColumn) EQ(value int64) Condition     { return c.cond(expr.Eq, expr.Int(value)) }
func (c NullableIntColumn) NOT_EQ(value int64) Condition { return c.cond(expr.Ne, expr.Int(value)) }
func (c NullableIntColumn) GT(value int64) Condition     { return c.cond(expr.Gt, expr.Int(value)) }
func (c NullableIntColumn) GTE(value int64) Condition    { return c.cond(expr.Ge, expr.Int(value)) }
func (c NullableIntColumn) LT(value int64) Condition     { return c.cond(expr.Lt, expr.Int(value)) }
func (c NullableIntColumn) LTE(value int64) Condition    { return c.cond(expr.Le, expr.Int(value)) }
func (c NullableIntColumn) IN(values []int64) Condition  { return c.in(false, lits(values, expr.Int)) }

// FloatColumn represents a floating point column
type FloatColumn struct {
	BaseColumn
}

func NewFloatColumn(c *schema.Column) FloatColumn {
	return FloatColumn{bind(c, types.KindFloat, false)}
}

func (c FloatColumn) GT(value float64) Condition  { return c.cond(expr.Gt, expr.Float(value)) }
func (c FloatColumn) GTE(value float64) Condition { return c.cond(expr.Ge, expr.Float(value)) }
func (c FloatColumn) LT(value float64) Condition  { return c.cond(expr.Lt, expr.Float(value)) }
func (c FloatColumn) LTE(value float64) Condition { return c.cond(expr.Le, expr.Float(value)) }

// DecimalColumn represents a fixed precision numeric column
type DecimalColumn struct {
	BaseColumn
}

func NewDecimalColumn(c *schema.Column) DecimalColumn {
	return DecimalColumn{bind(c, types.KindNumeric, false)}
}

func (c DecimalColumn) EQ(value decimal.Decimal) Condition {
	return c.cond(expr.Eq, expr.Decimal(value))
}

func (c DecimalColumn) GT(value decimal.Decimal) Condition {
	return c.cond(expr.Gt, expr.Decimal(value))
}

func (c DecimalColumn) LT(value decimal.Decimal) Condition {
	return c.cond(expr.Lt, expr.Decimal(value))
}

// Sum aggregates the column.
func (c DecimalColumn) Sum() expr.Expr { return expr.Must(expr.Sum(c.Expr())) }

// StringColumn represents a string column
type StringColumn struct {
	BaseColumn
}

func NewStringColumn(c *schema.Column) StringColumn {
	return StringColumn{bind(c, types.KindText, false)}
}

func (c StringColumn) EQ(value string) Condition     { return c.cond(expr.Eq, expr.Text(value)) }
func (c StringColumn) NOT_EQ(value string) Condition { return c.cond(expr.Ne, expr.Text(value)) }

// LIKE matches a pattern. % and _ in the pattern are wildcards.
func (c StringColumn) LIKE(pattern string) Condition { return c.cond(expr.Like, expr.Text(pattern)) }

// Contains creates a LIKE '%value%' condition. Wildcards in value are not
// escaped.
func (c StringColumn) Contains(value string) Condition {
	return c.cond(expr.Like, expr.Text("%"+value+"%"))
}

func (c StringColumn) StartsWith(value string) Condition {
	return c.cond(expr.Like, expr.Text(value+"%"))
}

func (c StringColumn) EndsWith(value string) Condition {
	return c.cond(expr.Like, expr.Text("%"+value))
}

func (c StringColumn) IN(values []string) Condition { return c.in(false, lits(values, expr.Text)) }

func (c StringColumn) NOT_IN(values []string) Condition { return c.in(true, lits(values, expr.Text)) }

// NullableStringColumn represents a nullable string column
type NullableStringColumn struct {
	BaseColumn
}

func NewNullableStringColumn(c *schema.Column) NullableStringColumn {
	return NullableStringColumn{bind(c, types.KindText, true)}
}

// EQ compares against value, or tests for NULL when value is nil.
func (c NullableStringColumn) EQ(value *string) Condition {
	if value == nil {
		return c.IsNull()
	}
	return c.cond(expr.Eq, expr.Text(*value))
}

func (c NullableStringColumn) NOT_EQ(value *string) Condition {
	if value == nil {
		return c.IsNotNull()
	}
	return c.cond(expr.Ne, expr.Text(*value))
}

func (c NullableStringColumn) Contains(value string) Condition {
	return c.cond(expr.Like, expr.Text("%"+value+"%"))
}

// BoolColumn represents a boolean column
type BoolColumn struct {
	BaseColumn
}

func NewBoolColumn(c *schema.Column) BoolColumn {
	return BoolColumn{bind(c, types.KindBool, false)}
}

func (c BoolColumn) EQ(value bool) Condition     { return c.cond(expr.Eq, expr.Bool(value)) }
func (c BoolColumn) NOT_EQ(value bool) Condition { return c.cond(expr.Ne, expr.Bool(value)) }

// IsTrue uses the column itself as the condition.
func (c BoolColumn) IsTrue() Condition { return Condition{c.Expr()} }

// DateTimeColumn represents a timestamp column
type DateTimeColumn struct {
	BaseColumn
}

func NewDateTimeColumn(c *schema.Column) DateTimeColumn {
	return DateTimeColumn{bind(c, types.KindTimestamp, false)}
}

func (c DateTimeColumn) EQ(value time.Time) Condition     { return c.cond(expr.Eq, expr.Time(value)) }
func (c DateTimeColumn) NOT_EQ(value time.Time) Condition { return c.cond(expr.Ne, expr.Time(value)) }
func (c DateTimeColumn) GT(value time.Time) Condition     { return c.cond(expr.Gt, expr.Time(value)) }
func (c DateTimeColumn) GTE(value time.Time) Condition    { return c.cond(expr.Ge, expr.Time(value)) }
func (c DateTimeColumn) LT(value time.Time) Condition     { return c.cond(expr.Lt, expr.Time(value)) }
func (c DateTimeColumn) LTE(value time.Time) Condition    { return c.cond(expr.Le, expr.Time(value)) }

// NullableDateTimeColumn represents a nullable timestamp column
type NullableDateTimeColumn struct {
	BaseColumn
}

func NewNullableDateTimeColumn(c *schema.Column) NullableDateTimeColumn {
	return NullableDateTimeColumn{bind(c, types.KindTimestamp, true)}
}

func (c NullableDateTimeColumn) GT(value time.Time) Condition { return c.cond(expr.Gt, expr.Time(value)) }
func (c NullableDateTimeColumn) LT(value time.Time) Condition { return c.cond(expr.Lt, expr.Time(value)) }

// UUIDColumn represents a uuid column
type UUIDColumn struct {
	BaseColumn
}

func NewUUIDColumn(c *schema.Column) UUIDColumn {
	return UUIDColumn{bind(c, types.KindUUID, false)}
}

func (c UUIDColumn) EQ(value uuid.UUID) Condition     { return c.cond(expr.Eq, expr.UUID(value)) }
func (c UUIDColumn) NOT_EQ(value uuid.UUID) Condition { return c.cond(expr.Ne, expr.UUID(value)) }
func (c UUIDColumn) IN(values []uuid.UUID) Condition  { return c.in(false, lits(values, expr.UUID)) }

// Condition is a Bool expression built from column handles.
type Condition struct {
	e expr.Expr
}

// Expr returns the condition for use with the query builder.
func (c Condition) Expr() expr.Expr { return c.e }

func combine(op func(...expr.Expr) (expr.Expr, error), empty bool, conditions []Condition) Condition {
	if len(conditions) == 0 {
		return Condition{expr.Bool(empty)}
	}
	es := make([]expr.Expr, len(conditions))
	for i, c := range conditions {
		es[i] = c.e
	}
	return Condition{expr.Must(op(es...))}
}

// AND combines conditions. With no conditions it is true.
func AND(conditions ...Condition) Condition { return combine(expr.And, true, conditions) }

// OR combines conditions. With no conditions it is false.
func OR(conditions ...Condition) Condition { return combine(expr.Or, false, conditions) }

func NOT(c Condition) Condition { return Condition{expr.Must(expr.Not(c.e))} }

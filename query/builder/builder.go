// Package builder assembles typed expressions into SELECT, INSERT, UPDATE
// and DELETE statements. Build validates the statement as a whole: every
// column must be reachable, every condition must be Bool and every assigned
// value must fit its column. A built query is immutable.
package builder

import (
	"fmt"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Query is a built statement. The set of implementations is closed:
// *SelectQuery, *InsertQuery, *UpdateQuery and *DeleteQuery.
type Query interface {
	// ResultTypes returns the types of the rows the statement yields, in
	// projection order. Statements without RETURNING yield none.
	ResultTypes() []types.LogicalType
	statement()
}

// Assignment pairs a column with the value written to it.
type Assignment struct {
	Column *schema.Column
	Value  expr.Expr
}

// Assign creates an assignment.
func Assign(c *schema.Column, v expr.Expr) Assignment {
	return Assignment{Column: c, Value: v}
}

func invalid(clause, format string, args ...any) error {
	return &typedsql.InvalidQueryError{Clause: clause, Message: fmt.Sprintf(format, args...)}
}

// scope is the set of tables whose columns a clause may reference.
type scope map[string]*schema.Table

func newScope(tables ...*schema.Table) scope {
	s := scope{}
	for _, t := range tables {
		s[t.Name()] = t
	}
	return s
}

func (s scope) with(t *schema.Table) scope {
	out := make(scope, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[t.Name()] = t
	return out
}

func (s scope) contains(c *schema.Column) bool {
	t, ok := s[c.Table()]
	if !ok {
		return false
	}
	own, ok := t.Column(c.Name())
	return ok && own == c
}

// check reports the first column of e outside the scope, including the
// outer tables that correlated subqueries of e expect to be bound.
func (s scope) check(clause string, e expr.Expr) error {
	for _, c := range expr.Columns(e, false) {
		if !s.contains(c) {
			return &typedsql.UnboundColumnError{Table: c.Table(), Column: c.Name(), Clause: clause}
		}
	}
	var err error
	expr.Walk(e, func(n expr.Expr) bool {
		sub, ok := n.(*expr.Subquery)
		if !ok || err != nil {
			return err == nil
		}
		q, ok := sub.Query.(*SelectQuery)
		if !ok {
			return true
		}
		for _, t := range q.Outer {
			if s[t.Name()] != t {
				err = &typedsql.UnboundColumnError{Table: t.Name(), Column: outerColumn(q, t), Clause: clause}
				return false
			}
		}
		return true
	})
	return err
}

// outerColumn names the first column of t that q refers to, or "*".
func outerColumn(q *SelectQuery, t *schema.Table) string {
	clauses := append([]expr.Expr{q.Filter, q.Having}, q.Projection...)
	for _, j := range q.Joins {
		clauses = append(clauses, j.On)
	}
	for _, e := range clauses {
		if e == nil {
			continue
		}
		for _, c := range expr.Columns(e, false) {
			if c.Table() == t.Name() {
				return c.Name()
			}
		}
	}
	return "*"
}

func checkCondition(clause string, e expr.Expr) error {
	if !e.Type().IsBool() {
		return &typedsql.NonBooleanConditionError{Clause: clause, Actual: e.Type().String()}
	}
	return nil
}

// and appends cond to an accumulated filter.
func and(filter, cond expr.Expr) (expr.Expr, error) {
	if filter == nil {
		return cond, nil
	}
	return expr.And(filter, cond)
}

// checkAssignment validates that a value fits the column it is written to.
func checkAssignment(a Assignment) error {
	typeOK, nullOK := types.Assignable(a.Value.Type(), a.Column.Type())
	if !typeOK {
		return &typedsql.TypeMismatchError{
			Op:       "assignment to " + a.Column.String(),
			Expected: a.Column.Type().String(),
			Actual:   []string{a.Value.Type().String()},
		}
	}
	if !nullOK {
		return &typedsql.NullabilityMismatchError{
			Table:  a.Column.Table(),
			Column: a.Column.Name(),
			Actual: a.Value.Type().String(),
		}
	}
	return nil
}

func checkAggregateFree(clause string, e expr.Expr) error {
	if expr.HasAggregate(e) {
		return invalid(clause, "aggregate functions are not allowed")
	}
	return nil
}

// returning validates a RETURNING list against the statement's table.
func returning(t *schema.Table, es []expr.Expr) ([]types.LogicalType, error) {
	s := newScope(t)
	out := make([]types.LogicalType, len(es))
	for i, e := range es {
		if err := s.check("RETURNING", e); err != nil {
			return nil, err
		}
		if err := checkAggregateFree("RETURNING", e); err != nil {
			return nil, err
		}
		out[i] = e.Type()
	}
	return out, nil
}

func allColumns(t *schema.Table) []expr.Expr {
	cols := t.Columns()
	out := make([]expr.Expr, len(cols))
	for i, c := range cols {
		out[i] = expr.Col(c)
	}
	return out
}

func copyTypes(ts []types.LogicalType) []types.LogicalType {
	return append([]types.LogicalType(nil), ts...)
}

package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/expr"
)

func (g *generator) projection(es []expr.Expr) (string, error) {
	cols := make([]string, len(es))
	for i, e := range es {
		if a, ok := e.(*expr.Aliased); ok {
			inner, err := g.expr(a.Expr)
			if err != nil {
				return "", err
			}
			cols[i] = inner + " AS " + g.quote(a.Alias)
			continue
		}
		col, err := g.expr(e)
		if err != nil {
			return "", err
		}
		cols[i] = col
	}
	return strings.Join(cols, ", "), nil
}

func (g *generator) list(es []expr.Expr) (string, error) {
	out := make([]string, len(es))
	for i, e := range es {
		s, err := g.expr(e)
		if err != nil {
			return "", err
		}
		out[i] = s
	}
	return strings.Join(out, ", "), nil
}

// operand renders a nested operand, parenthesizing infix expressions.
func (g *generator) operand(e expr.Expr) (string, error) {
	s, err := g.expr(e)
	if err != nil {
		return "", err
	}
	if _, ok := e.(*expr.Binary); ok {
		return "(" + s + ")", nil
	}
	return s, nil
}

// tight renders an operand of an operator that binds tighter than AND and
// OR. Prefix and postfix operators and IN tests are parenthesized as well,
// so that precedence differences between backends cannot regroup them and
// two minus signs never form a "--" comment.
func (g *generator) tight(e expr.Expr) (string, error) {
	s, err := g.operand(e)
	if err != nil {
		return "", err
	}
	switch n := e.(type) {
	case *expr.Unary, *expr.InList:
		return "(" + s + ")", nil
	case *expr.Subquery:
		if n.Operand != nil {
			return "(" + s + ")", nil
		}
	}
	return s, nil
}

func (g *generator) expr(e expr.Expr) (string, error) {
	switch n := e.(type) {
	case *expr.ColumnRef:
		if g.qualify {
			return g.quote(n.Column.Table()) + "." + g.quote(n.Column.Name()), nil
		}
		return g.quote(n.Column.Name()), nil

	case *expr.Literal:
		return g.bind(n.Value, n.Type()), nil

	case *expr.Binary:
		return g.binary(n)

	case *expr.Unary:
		operand, err := g.operand(n.Operand)
		if err != nil {
			return "", err
		}
		switch {
		case n.Op.Postfix():
			return operand + " " + string(n.Op), nil
		case n.Op == expr.OpNot:
			return "NOT " + operand, nil
		}
		if operand, err = g.tight(n.Operand); err != nil {
			return "", err
		}
		return string(n.Op) + operand, nil

	case *expr.Func:
		return g.call(n)

	case *expr.InList:
		if len(n.List) == 0 {
			if n.Negated {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		operand, err := g.operand(n.Operand)
		if err != nil {
			return "", err
		}
		items, err := g.list(n.List)
		if err != nil {
			return "", err
		}
		op := " IN "
		if n.Negated {
			op = " NOT IN "
		}
		return operand + op + "(" + items + ")", nil

	case *expr.Subquery:
		return g.subquery(n)

	case *expr.Aliased:
		return g.expr(n.Expr)
	}
	return "", fmt.Errorf("sqlgen: unknown expression %T", e)
}

func (g *generator) binary(n *expr.Binary) (string, error) {
	switch n.Op {
	case expr.OpILike:
		if err := g.require(dialect.FeatureILike); err != nil {
			return "", err
		}
	case expr.OpContains, expr.OpOverlaps:
		if err := g.require(dialect.FeatureArrays); err != nil {
			return "", err
		}
	}
	side := g.tight
	if n.Op == expr.OpAnd || n.Op == expr.OpOr {
		side = g.operand
	}
	left, err := side(n.Left)
	if err != nil {
		return "", err
	}
	right, err := side(n.Right)
	if err != nil {
		return "", err
	}
	if n.Op == expr.OpConcat && g.d.Name() == dialect.MySQL {
		// || is logical OR in MySQL
		return "CONCAT(" + left + ", " + right + ")", nil
	}
	return left + " " + string(n.Op) + " " + right, nil
}

func (g *generator) call(n *expr.Func) (string, error) {
	if n.Keyword {
		return n.Name, nil
	}
	if n.Star {
		return n.Name + "(*)", nil
	}
	args, err := g.list(n.Args)
	if err != nil {
		return "", err
	}
	if n.Distinct {
		return n.Name + "(DISTINCT " + args + ")", nil
	}
	return n.Name + "(" + args + ")", nil
}

func (g *generator) subquery(n *expr.Subquery) (string, error) {
	q, ok := n.Query.(*builder.SelectQuery)
	if !ok {
		return "", fmt.Errorf("sqlgen: subquery must be a SELECT, got %T", n.Query)
	}
	var operand string
	if n.Operand != nil {
		var err error
		if operand, err = g.operand(n.Operand); err != nil {
			return "", err
		}
	}
	sub, err := g.selectSQL(q)
	if err != nil {
		return "", err
	}
	switch n.Kind {
	case expr.SubqueryExists:
		return "EXISTS (" + sub + ")", nil
	case expr.SubqueryNotExists:
		return "NOT EXISTS (" + sub + ")", nil
	case expr.SubqueryIn:
		return operand + " IN (" + sub + ")", nil
	case expr.SubqueryNotIn:
		return operand + " NOT IN (" + sub + ")", nil
	default:
		return "(" + sub + ")", nil
	}
}

// Package sqlgen renders built queries to parameterized SQL for a dialect.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
)

// Query represents a SQL query with arguments. Args hold canonical values
// and do not depend on the dialect; ArgTypes holds the logical type of each
// argument so the executor can convert it for the driver.
type Query struct {
	SQL      string
	Args     []interface{}
	ArgTypes []types.LogicalType
}

// Renderer renders queries for one dialect. It is stateless and safe for
// concurrent use.
type Renderer struct {
	d dialect.Dialect
}

// NewRenderer creates a renderer for d.
func NewRenderer(d dialect.Dialect) *Renderer {
	return &Renderer{d: d}
}

func (r *Renderer) Dialect() dialect.Dialect { return r.d }

// Render renders q. On error no SQL is returned.
func (r *Renderer) Render(q builder.Query) (*Query, error) {
	g := &generator{d: r.d}
	var (
		sql string
		err error
	)
	switch q := q.(type) {
	case *builder.SelectQuery:
		sql, err = g.selectSQL(q)
	case *builder.InsertQuery:
		sql, err = g.insertSQL(q)
	case *builder.UpdateQuery:
		sql, err = g.updateSQL(q)
	case *builder.DeleteQuery:
		sql, err = g.deleteSQL(q)
	default:
		return nil, fmt.Errorf("sqlgen: unknown query type %T", q)
	}
	if err != nil {
		return nil, err
	}
	return &Query{SQL: sql, Args: g.args, ArgTypes: g.argTypes}, nil
}

// MustRender is like Render but panics on error.
func (r *Renderer) MustRender(q builder.Query) *Query {
	out, err := r.Render(q)
	if err != nil {
		panic(err)
	}
	return out
}

// generator carries the bind list of one rendering.
type generator struct {
	d        dialect.Dialect
	args     []interface{}
	argTypes []types.LogicalType
	qualify  bool
}

func (g *generator) bind(v interface{}, t types.LogicalType) string {
	g.args = append(g.args, v)
	g.argTypes = append(g.argTypes, t)
	return g.d.Placeholder(len(g.args))
}

func (g *generator) quote(name string) string {
	return g.d.QuoteIdent(name)
}

func (g *generator) require(f dialect.Feature) error {
	if !g.d.Supports(f) {
		return &typedsql.UnsupportedOperationError{Dialect: string(g.d.Name()), Operation: string(f)}
	}
	return nil
}

func (g *generator) selectSQL(q *builder.SelectQuery) (string, error) {
	var parts []string

	outer := g.qualify
	g.qualify = q.Qualified()
	defer func() { g.qualify = outer }()

	// SELECT columns
	cols, err := g.projection(q.Projection)
	if err != nil {
		return "", err
	}
	if q.Distinct {
		parts = append(parts, "SELECT DISTINCT "+cols)
	} else {
		parts = append(parts, "SELECT "+cols)
	}

	// FROM table
	parts = append(parts, "FROM "+g.quote(q.Source.Name()))

	// JOINs
	for _, j := range q.Joins {
		if j.Kind == builder.RightJoin {
			if err := g.require(dialect.FeatureRightJoin); err != nil {
				return "", err
			}
		}
		on, err := g.expr(j.On)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s ON %s", j.Kind, g.quote(j.Table.Name()), on))
	}

	// WHERE clause
	if q.Filter != nil {
		where, err := g.expr(q.Filter)
		if err != nil {
			return "", err
		}
		parts = append(parts, "WHERE "+where)
	}

	// GROUP BY
	if len(q.GroupBy) > 0 {
		group, err := g.list(q.GroupBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "GROUP BY "+group)
	}

	if q.Having != nil {
		having, err := g.expr(q.Having)
		if err != nil {
			return "", err
		}
		parts = append(parts, "HAVING "+having)
	}

	// ORDER BY
	if len(q.OrderBy) > 0 {
		orderParts := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			e, err := g.expr(o.Expr)
			if err != nil {
				return "", err
			}
			direction := "ASC"
			if o.Desc {
				direction = "DESC"
			}
			orderParts[i] = e + " " + direction
			if o.Nulls != builder.NullsDefault {
				if err := g.require(dialect.FeatureNullsOrdering); err != nil {
					return "", err
				}
				if o.Nulls == builder.NullsFirst {
					orderParts[i] += " NULLS FIRST"
				} else {
					orderParts[i] += " NULLS LAST"
				}
			}
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	// LIMIT
	if q.Limit != nil {
		limit, err := g.expr(q.Limit)
		if err != nil {
			return "", err
		}
		parts = append(parts, "LIMIT "+limit)
	} else if q.Offset != nil {
		if filler := g.d.OffsetWithoutLimit(); filler != "" {
			parts = append(parts, "LIMIT "+filler)
		}
	}

	// OFFSET
	if q.Offset != nil {
		offset, err := g.expr(q.Offset)
		if err != nil {
			return "", err
		}
		parts = append(parts, "OFFSET "+offset)
	}

	return strings.Join(parts, " "), nil
}

func (g *generator) insertSQL(q *builder.InsertQuery) (string, error) {
	var parts []string

	ignore := q.OnConflictDoNothing && g.d.Supports(dialect.FeatureInsertIgnore)
	if q.OnConflictDoNothing && !ignore {
		if err := g.require(dialect.FeatureOnConflict); err != nil {
			return "", err
		}
	}
	if ignore {
		parts = append(parts, "INSERT IGNORE INTO "+g.quote(q.Table.Name()))
	} else {
		parts = append(parts, "INSERT INTO "+g.quote(q.Table.Name()))
	}

	if len(q.Columns) == 0 {
		if g.d.Supports(dialect.FeatureDefaultValues) {
			parts = append(parts, "DEFAULT VALUES")
		} else {
			parts = append(parts, "() VALUES ()")
		}
	} else {
		quotedCols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quotedCols[i] = g.quote(c.Name())
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(quotedCols, ", ")))

		rows := make([]string, len(q.Rows))
		for i, row := range q.Rows {
			values, err := g.list(row)
			if err != nil {
				return "", err
			}
			rows[i] = "(" + values + ")"
		}
		parts = append(parts, "VALUES "+strings.Join(rows, ", "))
	}

	if q.OnConflictDoNothing && !ignore {
		parts = append(parts, "ON CONFLICT DO NOTHING")
	}
	returning, err := g.returning(q.Returning)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, returning...), " "), nil
}

func (g *generator) updateSQL(q *builder.UpdateQuery) (string, error) {
	var parts []string

	parts = append(parts, "UPDATE "+g.quote(q.Table.Name()))

	// SET clause
	setParts := make([]string, len(q.Assignments))
	for i, a := range q.Assignments {
		v, err := g.expr(a.Value)
		if err != nil {
			return "", err
		}
		setParts[i] = g.quote(a.Column.Name()) + " = " + v
	}
	parts = append(parts, "SET "+strings.Join(setParts, ", "))

	// WHERE clause
	if q.Filter != nil {
		where, err := g.expr(q.Filter)
		if err != nil {
			return "", err
		}
		parts = append(parts, "WHERE "+where)
	}

	returning, err := g.returning(q.Returning)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, returning...), " "), nil
}

func (g *generator) deleteSQL(q *builder.DeleteQuery) (string, error) {
	var parts []string

	parts = append(parts, "DELETE FROM "+g.quote(q.Table.Name()))

	// WHERE clause
	if q.Filter != nil {
		where, err := g.expr(q.Filter)
		if err != nil {
			return "", err
		}
		parts = append(parts, "WHERE "+where)
	}

	returning, err := g.returning(q.Returning)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, returning...), " "), nil
}

func (g *generator) returning(es []expr.Expr) ([]string, error) {
	if len(es) == 0 {
		return nil, nil
	}
	if err := g.require(dialect.FeatureReturning); err != nil {
		return nil, err
	}
	cols, err := g.projection(es)
	if err != nil {
		return nil, err
	}
	return []string{"RETURNING " + cols}, nil
}

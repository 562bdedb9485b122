// Package typedsql is a typed SQL access layer for PostgreSQL, MySQL and SQLite.
//
// Tables and columns are declared once in a schema.Registry. Expressions
// built from those columns carry a logical type, and combining incompatible
// expressions fails when the expression is constructed:
//
//	users := reg.MustTable("users")
//	age := expr.Col(users.MustColumn("age"))
//	adult, err := expr.Gt(age, expr.Int(18))
//
// The builder assembles expressions into statements and checks that every
// column is reachable from the FROM clause and its joins:
//
//	q, err := builder.Select(expr.Col(users.MustColumn("name")), age).
//		From(users).
//		Where(adult).
//		Build()
//
// A sqlgen.Renderer turns a built statement into dialect-specific SQL with
// positional bind values, and a decode.Decoder turns result rows back into
// values of the projected types. The migrate package tracks versioned
// up/down scripts in a bookkeeping table.
//
// This package holds the error taxonomy shared by all subpackages.
package typedsql

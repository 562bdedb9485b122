package introspect

import (
	"fmt"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// Problem is a difference between a declared table and the database that
// would make queries or row decoding fail.
type Problem struct {
	Table   string
	Column  string
	Message string
}

func (p Problem) String() string {
	if p.Column == "" {
		return fmt.Sprintf("%s: %s", p.Table, p.Message)
	}
	return fmt.Sprintf("%s.%s: %s", p.Table, p.Column, p.Message)
}

// Compare checks every table of reg against live. Tables in the database
// that reg does not declare are ignored. A nil typeReg means types.Default().
func Compare(reg *schema.Registry, typeReg *types.Registry, d dialect.Name, live *DatabaseSchema) []Problem {
	if typeReg == nil {
		typeReg = types.Default()
	}
	var problems []Problem
	for _, t := range reg.Tables() {
		lt, ok := live.Table(t.Name())
		if !ok {
			problems = append(problems, Problem{Table: t.Name(), Message: "table does not exist"})
			continue
		}
		for _, c := range t.Columns() {
			lc, ok := lt.Column(c.Name())
			switch {
			case !ok:
				problems = append(problems, Problem{Table: t.Name(), Column: c.Name(), Message: "column does not exist"})
			case !typeReg.Accepts(d, c.Type(), lc.Type):
				problems = append(problems, Problem{
					Table:   t.Name(),
					Column:  c.Name(),
					Message: fmt.Sprintf("database type %s cannot hold %s", lc.Type, c.Type()),
				})
			case lc.Nullable && !c.Nullable():
				problems = append(problems, Problem{
					Table:   t.Name(),
					Column:  c.Name(),
					Message: "column is nullable in the database but declared non-nullable",
				})
			}
		}
	}
	return problems
}

// Package schema holds the read-only table registry queries are checked
// against.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/typedsql/query/types"
)

// Column is a named, typed column of a table.
type Column struct {
	table      string
	name       string
	typ        types.LogicalType
	primaryKey bool
	hasDefault bool
	defaultSQL string
}

func (c *Column) Table() string           { return c.table }
func (c *Column) Name() string            { return c.name }
func (c *Column) Type() types.LogicalType { return c.typ }
func (c *Column) Nullable() bool          { return c.typ.IsNullable() }
func (c *Column) PrimaryKey() bool        { return c.primaryKey }

// HasDefault reports whether the database fills the column when an insert
// omits it.
func (c *Column) HasDefault() bool { return c.hasDefault }

// DefaultSQL returns the DEFAULT expression used in DDL, or "" when the
// default is supplied by the backend itself (auto-increment keys).
func (c *Column) DefaultSQL() string { return c.defaultSQL }

func (c *Column) String() string { return c.table + "." + c.name }

// ForeignKey marks two tables as joinable on the given column pairs.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Table is a named, ordered set of columns.
type Table struct {
	name       string
	columns    []*Column
	byName     map[string]*Column
	primaryKey []string
	foreign    []ForeignKey
}

func (t *Table) Name() string { return t.name }

// Columns returns the columns in declaration order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// MustColumn is like Column but panics when the column does not exist.
func (t *Table) MustColumn(name string) *Column {
	c, ok := t.byName[name]
	if !ok {
		panic(fmt.Sprintf("schema: table %s has no column %s", t.name, name))
	}
	return c
}

func (t *Table) PrimaryKey() []string      { return append([]string(nil), t.primaryKey...) }
func (t *Table) ForeignKeys() []ForeignKey { return append([]ForeignKey(nil), t.foreign...) }

// TableDef describes a table to NewRegistry.
type TableDef struct {
	Name        string
	PrimaryKey  []string
	Columns     []ColumnDef
	ForeignKeys []ForeignKey
}

// ColumnDef describes a column. A column with HasDefault may be omitted from
// inserts; Default is the SQL expression rendered in DDL, if any.
type ColumnDef struct {
	Name       string
	Type       types.LogicalType
	HasDefault bool
	Default    string
}

// Registry is the immutable set of tables known to the library. It is safe
// for concurrent use.
type Registry struct {
	tables map[string]*Table
	order  []string
}

// NewRegistry validates defs and builds a registry.
func NewRegistry(defs ...TableDef) (*Registry, error) {
	reg := &Registry{tables: make(map[string]*Table, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("table name is empty")
		}
		if _, dup := reg.tables[def.Name]; dup {
			return nil, fmt.Errorf("table %s declared twice", def.Name)
		}
		if len(def.Columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns", def.Name)
		}
		t := &Table{name: def.Name, byName: make(map[string]*Column, len(def.Columns))}
		for _, cd := range def.Columns {
			if cd.Name == "" {
				return nil, fmt.Errorf("table %s: column name is empty", def.Name)
			}
			if !cd.Type.IsValid() || cd.Type.IsNull() {
				return nil, fmt.Errorf("table %s: column %s has no type", def.Name, cd.Name)
			}
			if _, dup := t.byName[cd.Name]; dup {
				return nil, fmt.Errorf("table %s: column %s declared twice", def.Name, cd.Name)
			}
			c := &Column{
				table:      def.Name,
				name:       cd.Name,
				typ:        cd.Type,
				hasDefault: cd.HasDefault || cd.Default != "",
				defaultSQL: cd.Default,
			}
			t.columns = append(t.columns, c)
			t.byName[c.name] = c
		}
		for _, pk := range def.PrimaryKey {
			c, ok := t.byName[pk]
			if !ok {
				return nil, fmt.Errorf("table %s: primary key column %s does not exist", def.Name, pk)
			}
			if c.Nullable() {
				return nil, fmt.Errorf("table %s: primary key column %s is nullable", def.Name, pk)
			}
			c.primaryKey = true
		}
		t.primaryKey = append([]string(nil), def.PrimaryKey...)
		t.foreign = append([]ForeignKey(nil), def.ForeignKeys...)
		reg.tables[t.name] = t
		reg.order = append(reg.order, t.name)
	}
	for _, t := range reg.tables {
		for _, fk := range t.foreign {
			if err := reg.checkForeignKey(t, fk); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

// MustNewRegistry is like NewRegistry but panics on invalid definitions.
func MustNewRegistry(defs ...TableDef) *Registry {
	reg, err := NewRegistry(defs...)
	if err != nil {
		panic(err)
	}
	return reg
}

func (r *Registry) checkForeignKey(t *Table, fk ForeignKey) error {
	ref, ok := r.tables[fk.RefTable]
	if !ok {
		return fmt.Errorf("table %s: foreign key references unknown table %s", t.name, fk.RefTable)
	}
	if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
		return fmt.Errorf("table %s: foreign key to %s has mismatched columns", t.name, fk.RefTable)
	}
	for i, name := range fk.Columns {
		c, ok := t.byName[name]
		if !ok {
			return fmt.Errorf("table %s: foreign key column %s does not exist", t.name, name)
		}
		rc, ok := ref.byName[fk.RefColumns[i]]
		if !ok {
			return fmt.Errorf("table %s: foreign key references unknown column %s.%s", t.name, ref.name, fk.RefColumns[i])
		}
		if !types.Compatible(c.typ, rc.typ) {
			return fmt.Errorf("table %s: foreign key column %s (%s) does not match %s (%s)",
				t.name, name, c.typ, rc, rc.typ)
		}
	}
	return nil
}

// Table looks a table up by name.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// MustTable is like Table but panics when the table does not exist.
func (r *Registry) MustTable(name string) *Table {
	t, ok := r.tables[name]
	if !ok {
		panic(fmt.Sprintf("schema: unknown table %s", name))
	}
	return t
}

// Tables returns the tables in declaration order.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, len(r.order))
	for i, name := range r.order {
		out[i] = r.tables[name]
	}
	return out
}

// Join describes how two joinable tables are related: pairs of
// (left column, right column).
type Join struct {
	Left, Right []*Column
}

// Joinable returns the foreign key relation between a and b in either
// direction. When several relations exist the first declared one on a wins.
func (r *Registry) Joinable(a, b string) (Join, bool) {
	if j, ok := r.joinFrom(a, b, false); ok {
		return j, true
	}
	return r.joinFrom(b, a, true)
}

func (r *Registry) joinFrom(from, to string, swap bool) (Join, bool) {
	t, ok := r.tables[from]
	if !ok {
		return Join{}, false
	}
	ref, ok := r.tables[to]
	if !ok {
		return Join{}, false
	}
	for _, fk := range t.foreign {
		if fk.RefTable != to {
			continue
		}
		var j Join
		for i := range fk.Columns {
			j.Left = append(j.Left, t.byName[fk.Columns[i]])
			j.Right = append(j.Right, ref.byName[fk.RefColumns[i]])
		}
		if swap {
			j.Left, j.Right = j.Right, j.Left
		}
		return j, true
	}
	return Join{}, false
}

// Describe renders the registry as text, one table per block, sorted by name.
func (r *Registry) Describe() string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n")
		}
		t := r.tables[name]
		fmt.Fprintf(&b, "%s (%s)\n", t.name, strings.Join(t.primaryKey, ", "))
		for _, c := range t.columns {
			fmt.Fprintf(&b, "  %s %s", c.name, c.typ)
			if c.hasDefault {
				b.WriteString(" default")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

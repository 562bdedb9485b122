package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

// CreateTable renders CREATE TABLE for t. A nil registry uses the default
// type registry. A single Integer primary key declared with a default but no
// default expression becomes an auto-incrementing key.
func CreateTable(d dialect.Dialect, reg *types.Registry, t *schema.Table, ifNotExists bool) (string, error) {
	if reg == nil {
		reg = types.Default()
	}

	keyed := map[string]bool{}
	for _, name := range t.PrimaryKey() {
		keyed[name] = true
	}
	for _, fk := range t.ForeignKeys() {
		for _, name := range fk.Columns {
			keyed[name] = true
		}
	}

	serial := autoIncrement(t)
	var defs []string
	for _, c := range t.Columns() {
		def, err := columnDef(d, reg, c, keyed[c.Name()], c == serial)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name(), err)
		}
		defs = append(defs, def)
	}

	// PRIMARY KEY
	if pk := t.PrimaryKey(); len(pk) > 0 && !(serial != nil && d.Name() == dialect.SQLite) {
		defs = append(defs, "PRIMARY KEY ("+quoteAll(d, pk)+")")
	}

	// FOREIGN KEYs
	for _, fk := range t.ForeignKeys() {
		defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteAll(d, fk.Columns), d.QuoteIdent(fk.RefTable), quoteAll(d, fk.RefColumns)))
	}

	create := "CREATE TABLE "
	if ifNotExists {
		create += "IF NOT EXISTS "
	}
	return create + d.QuoteIdent(t.Name()) + " (" + strings.Join(defs, ", ") + ")", nil
}

// CreateSchema renders CREATE TABLE for every table of reg, referenced
// tables first.
func CreateSchema(d dialect.Dialect, typeReg *types.Registry, reg *schema.Registry, ifNotExists bool) ([]string, error) {
	ordered, err := dependencyOrder(reg)
	if err != nil {
		return nil, err
	}
	stmts := make([]string, 0, len(ordered))
	for _, t := range ordered {
		stmt, err := CreateTable(d, typeReg, t, ifNotExists)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// DropTable renders DROP TABLE for name.
func DropTable(d dialect.Dialect, name string, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + d.QuoteIdent(name)
	}
	return "DROP TABLE " + d.QuoteIdent(name)
}

func columnDef(d dialect.Dialect, reg *types.Registry, c *schema.Column, keyed, serial bool) (string, error) {
	sqlType, err := reg.SQLType(d.Name(), c.Type())
	if err != nil {
		return "", err
	}
	// MySQL cannot index TEXT without a prefix length.
	if d.Name() == dialect.MySQL && keyed && c.Type().Base().Kind() == types.KindText {
		sqlType = "VARCHAR(255)"
	}

	def := d.QuoteIdent(c.Name()) + " "
	if serial {
		switch d.Name() {
		case dialect.Postgres:
			return def + "BIGINT GENERATED BY DEFAULT AS IDENTITY", nil
		case dialect.MySQL:
			return def + sqlType + " NOT NULL AUTO_INCREMENT", nil
		default:
			return def + "INTEGER PRIMARY KEY", nil
		}
	}

	def += sqlType
	if !c.Nullable() {
		def += " NOT NULL"
	}
	if c.DefaultSQL() != "" {
		def += " DEFAULT " + defaultSQL(d, c)
	}
	return def, nil
}

func defaultSQL(d dialect.Dialect, c *schema.Column) string {
	v := c.DefaultSQL()
	// DATETIME(6) needs a default of matching precision.
	if d.Name() == dialect.MySQL && c.Type().Base().Kind() == types.KindTimestamp && strings.EqualFold(v, "CURRENT_TIMESTAMP") {
		return "CURRENT_TIMESTAMP(6)"
	}
	return v
}

func autoIncrement(t *schema.Table) *schema.Column {
	pk := t.PrimaryKey()
	if len(pk) != 1 {
		return nil
	}
	c := t.MustColumn(pk[0])
	if c.Type().Kind() != types.KindInteger || !c.HasDefault() || c.DefaultSQL() != "" {
		return nil
	}
	return c
}

func quoteAll(d dialect.Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// dependencyOrder sorts tables so that referenced tables come first,
// keeping declaration order otherwise.
func dependencyOrder(reg *schema.Registry) ([]*schema.Table, error) {
	const (
		_ = iota
		visiting
		done
	)
	state := map[string]int{}
	var out []*schema.Table
	var visit func(t *schema.Table) error
	visit = func(t *schema.Table) error {
		switch state[t.Name()] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("foreign keys of table %s form a cycle", t.Name())
		}
		state[t.Name()] = visiting
		for _, fk := range t.ForeignKeys() {
			if fk.RefTable == t.Name() {
				continue
			}
			ref, ok := reg.Table(fk.RefTable)
			if !ok {
				return fmt.Errorf("table %s references unknown table %s", t.Name(), fk.RefTable)
			}
			if err := visit(ref); err != nil {
				return err
			}
		}
		state[t.Name()] = done
		out = append(out, t)
		return nil
	}
	for _, t := range reg.Tables() {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

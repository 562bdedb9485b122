// Package introspect reads table definitions from a live database and
// compares them with a schema registry.
package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/typedsql/dialect"
)

// Introspector reads the tables of a database.
type Introspector interface {
	Introspect(ctx context.Context) (*DatabaseSchema, error)
}

// DatabaseSchema represents the introspected database schema
type DatabaseSchema struct {
	Tables []Table
}

// Table returns the table with the given name.
func (s *DatabaseSchema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Table represents a database table
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Column represents a table column. Type is the type name the database
// reports, in the form the driver uses for result column types.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// NewIntrospector creates a new introspector for the given database
func NewIntrospector(db *sql.DB, d dialect.Dialect) (Introspector, error) {
	switch d.Name() {
	case dialect.Postgres:
		return &PostgresIntrospector{db: db}, nil
	case dialect.MySQL:
		return &MySQLIntrospector{db: db}, nil
	case dialect.SQLite:
		return &SQLiteIntrospector{db: db, d: d}, nil
	}
	return nil, fmt.Errorf("introspection is not supported for %s", d.Name())
}

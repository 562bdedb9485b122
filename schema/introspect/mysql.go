package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLIntrospector implements introspection for MySQL. It reads the
// tables of the current database.
type MySQLIntrospector struct {
	db *sql.DB
}

// Introspect reads the MySQL database schema
func (i *MySQLIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	names, err := queryNames(ctx, i.db, query)
	if err != nil {
		return nil, err
	}

	schema := &DatabaseSchema{}
	for _, name := range names {
		columns, err := i.introspectColumns(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
		}
		schema.Tables = append(schema.Tables, Table{Name: name, Columns: columns})
	}
	return schema, nil
}

// introspectColumns reads all columns for a table
func (i *MySQLIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			is_nullable
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := i.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var isNullable string
		if err := rows.Scan(&col.Name, &col.Type, &isNullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Type = strings.ToUpper(col.Type)
		col.Nullable = isNullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

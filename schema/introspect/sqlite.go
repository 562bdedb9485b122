package introspect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/satishbabariya/typedsql/dialect"
)

// SQLiteIntrospector implements introspection for SQLite
type SQLiteIntrospector struct {
	db *sql.DB
	d  dialect.Dialect
}

// Introspect reads the SQLite database schema
func (i *SQLiteIntrospector) Introspect(ctx context.Context) (*DatabaseSchema, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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

// introspectColumns reads all columns for a table using PRAGMA
func (i *SQLiteIntrospector) introspectColumns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, "PRAGMA table_info("+i.d.QuoteIdent(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			cid       int
			col       Column
			notNull   int
			dfltValue sql.NullString
			isPk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &isPk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		// INTEGER PRIMARY KEY is the rowid and never NULL.
		col.Nullable = notNull == 0 && isPk == 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func queryNames(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

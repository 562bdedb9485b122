// Package history manages the migration bookkeeping table.
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/sqlgen"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/runtime/client"
	"github.com/satishbabariya/typedsql/schema"
)

// TableName is the bookkeeping table.
const TableName = "__schema_migrations"

var (
	tables = schema.MustNewRegistry(schema.TableDef{
		Name:       TableName,
		PrimaryKey: []string{"version"},
		Columns: []schema.ColumnDef{
			{Name: "version", Type: types.Text()},
			{Name: "run_on", Type: types.Timestamp(), Default: "CURRENT_TIMESTAMP"},
		},
	})

	// Table is the bookkeeping table definition.
	Table = tables.MustTable(TableName)

	versionCol = Table.MustColumn("version")
	runOnCol   = Table.MustColumn("run_on")
)

// Record is one applied migration.
type Record struct {
	Version string
	RunOn   time.Time
}

// Store reads and writes the bookkeeping table. Every method takes the
// session to run on so that writes can join a migration's transaction.
type Store struct {
	compare func(a, b string) int
}

// NewStore creates a store. compare orders versions in Versions.
func NewStore(compare func(a, b string) int) *Store {
	return &Store{compare: compare}
}

// Init creates the bookkeeping table if it does not exist.
func (s *Store) Init(ctx context.Context, sess client.Session) error {
	ddl, err := sqlgen.CreateTable(sess.Dialect(), nil, Table, true)
	if err != nil {
		return err
	}
	if _, err := sess.ExecRaw(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// Insert records version as applied.
func (s *Store) Insert(ctx context.Context, sess client.Session, version string) error {
	q := builder.InsertInto(Table).
		Values(builder.Assign(versionCol, expr.Text(version))).
		MustBuild()
	if _, err := sess.Execute(ctx, q); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Delete removes the record of version.
func (s *Store) Delete(ctx context.Context, sess client.Session, version string) error {
	q := builder.DeleteFrom(Table).
		Where(expr.Must(expr.Eq(expr.Col(versionCol), expr.Text(version)))).
		MustBuild()
	n, err := sess.Execute(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to delete migration record: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("migration %s is not recorded as applied", version)
	}
	return nil
}

// Versions returns the applied migrations in ascending version order.
func (s *Store) Versions(ctx context.Context, sess client.Session) ([]Record, error) {
	q := builder.Select(expr.Col(versionCol), expr.Col(runOnCol)).
		From(Table).
		MustBuild()
	records, err := client.LoadInto[Record](ctx, sess, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	sort.Slice(records, func(i, j int) bool {
		return s.compare(records[i].Version, records[j].Version) < 0
	})
	return records, nil
}

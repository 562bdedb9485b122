package commands

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/internal/config"
	"github.com/satishbabariya/typedsql/internal/ui"
)

const testSchema = `
table users (id) {
  id -> Integer default,
  name -> Text,
}
`

func setup(t *testing.T) (afero.Fs, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	prevFs, prevOut := config.AppFs, ui.Out
	config.AppFs = fs
	var out bytes.Buffer
	ui.Out = &out
	t.Cleanup(func() {
		config.AppFs = prevFs
		ui.Out = prevOut
	})
	t.Setenv("HOME", "/home/tester")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TYPEDSQL_DATABASE_URL", "")
	t.Setenv("TYPEDSQL_DIALECT", "")
	return fs, &out
}

func run(args ...string) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestVersionCommand(t *testing.T) {
	_, out := setup(t)
	require.NoError(t, run("version"))
	assert.Contains(t, out.String(), "typedsql version")
}

func TestSchemaSQLCommand(t *testing.T) {
	fs, out := setup(t)
	require.NoError(t, afero.WriteFile(fs, "schema.tsql", []byte(testSchema), 0o644))

	require.NoError(t, run("schema", "sql", "--for", "postgres", "--if-not-exists"))
	assert.Contains(t, out.String(), `CREATE TABLE IF NOT EXISTS "users"`)

	out.Reset()
	require.NoError(t, run("schema", "sql", "--for", "mysql"))
	assert.Contains(t, out.String(), "CREATE TABLE `users`")

	assert.Error(t, run("schema", "sql"), "no dialect or database url configured")
}

func TestSchemaCheckOffline(t *testing.T) {
	fs, out := setup(t)
	require.NoError(t, afero.WriteFile(fs, "tables.tsql", []byte(testSchema), 0o644))

	require.NoError(t, run("schema", "check", "--schema", "tables.tsql"))
	assert.Contains(t, out.String(), "declares 1 tables")

	require.NoError(t, afero.WriteFile(fs, "broken.tsql", []byte("table {"), 0o644))
	assert.Error(t, run("schema", "check", "--schema", "broken.tsql"))
}

func TestSchemaGenerateCommand(t *testing.T) {
	fs, _ := setup(t)
	require.NoError(t, afero.WriteFile(fs, "schema.tsql", []byte(testSchema), 0o644))

	require.NoError(t, run("schema", "generate", "--out", "internal/db/tables.go"))
	src, err := afero.ReadFile(fs, "internal/db/tables.go")
	require.NoError(t, err)
	assert.Contains(t, string(src), "package db")
	assert.Contains(t, string(src), "UsersTable")
}

func TestMigrationGenerateCommand(t *testing.T) {
	fs, out := setup(t)

	require.NoError(t, run("migration", "generate", "create", "users", "--migration-dir", "db/migrations"))
	assert.Contains(t, out.String(), "create_users")

	dirs, err := afero.ReadDir(fs, "db/migrations")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Contains(t, dirs[0].Name(), "_create_users")
}

func TestMigrationRevertRejectsNonPositiveCount(t *testing.T) {
	setup(t)

	for _, args := range [][]string{
		{"migration", "revert", "-n", "-1"},
		{"migration", "revert", "--number", "0"},
		{"migration", "redo", "-n", "-3"},
	} {
		err := run(args...)
		require.Error(t, err, "%v", args)
		assert.Contains(t, err.Error(), "--number must be at least 1")
	}
}

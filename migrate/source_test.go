package migrate_test

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/migrate"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"0010", "9", 1},
		{"20240101000000", "20240101000000", 0},
		{"1.2.0", "1.10.0", -1},
		{"v2.0.0", "1.9.9", 1},
		{"abc", "abd", -1},
		{"2", "abc", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrate.CompareVersions(tt.a, tt.b), "%s vs %s", tt.a, tt.b)
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestDirSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "migrations/2024-01-02-150405_create_posts/up.sql", "CREATE TABLE posts (id INTEGER);")
	writeFile(t, fs, "migrations/2024-01-02-150405_create_posts/down.sql", "DROP TABLE posts;")
	writeFile(t, fs, "migrations/2024-01-01-000000_create_users/up.sql", "CREATE TABLE users (id INTEGER);")
	writeFile(t, fs, "migrations/2024-01-01-000000_create_users/metadata.yaml", "run_in_transaction: false\n")
	writeFile(t, fs, "migrations/.keep/up.sql", "ignored")
	writeFile(t, fs, "migrations/README.md", "ignored")

	ms, err := migrate.DirSource(fs, "migrations").Migrations(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 2)

	assert.Equal(t, "20240101000000", ms[0].Version)
	assert.Equal(t, "create_users", ms[0].Name)
	assert.True(t, ms[0].NoTransaction)
	assert.Empty(t, ms[0].Down)

	assert.Equal(t, "20240102150405", ms[1].Version)
	assert.Equal(t, "DROP TABLE posts;", ms[1].Down)
	assert.False(t, ms[1].NoTransaction)
	assert.Equal(t, "20240102150405_create_posts", ms[1].String())
}

func TestDirSourceErrors(t *testing.T) {
	ctx := context.Background()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("migrations/1_init", 0o755))
	_, err := migrate.DirSource(fs, "migrations").Migrations(ctx)
	assert.ErrorContains(t, err, "1_init")

	fs = afero.NewMemMapFs()
	writeFile(t, fs, "migrations/1_a/up.sql", "")
	writeFile(t, fs, "migrations/01_b/up.sql", "")
	_, err = migrate.DirSource(fs, "migrations").Migrations(ctx)
	assert.ErrorContains(t, err, "duplicate migration version")

	_, err = migrate.DirSource(afero.NewMemMapFs(), "missing").Migrations(ctx)
	assert.Error(t, err)
}

func TestFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"db/migrations/2_second/up.sql":   {Data: []byte("SELECT 2;")},
		"db/migrations/10_tenth/up.sql":   {Data: []byte("SELECT 10;")},
		"db/migrations/10_tenth/down.sql": {Data: []byte("SELECT -10;")},
	}
	ms, err := migrate.FromFS(fsys, "db/migrations").Migrations(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "2", ms[0].Version)
	assert.Equal(t, "10", ms[1].Version)
	assert.Equal(t, "SELECT -10;", ms[1].Down)
}

func TestList(t *testing.T) {
	ms, err := migrate.List(
		&migrate.Migration{Version: "3"},
		&migrate.Migration{Version: "1"},
	).Migrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", ms[0].Version)
	assert.Equal(t, "3", ms[1].Version)
}

func TestGenerate(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 3, 5, 9, 8, 7, 0, time.UTC)

	path, err := migrate.Generate(fs, "migrations", "add users table", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("migrations", "2024-03-05-090807_add_users_table"), path)

	for _, name := range []string{migrate.UpFile, migrate.DownFile} {
		ok, err := afero.Exists(fs, filepath.Join(path, name))
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	_, err = migrate.Generate(fs, "migrations", "add users table", now)
	assert.Error(t, err)
	_, err = migrate.Generate(fs, "migrations", "  ", now)
	assert.Error(t, err)

	ms, err := migrate.DirSource(fs, "migrations").Migrations(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "20240305090807", ms[0].Version)
	assert.Equal(t, "add_users_table", ms[0].Name)
}

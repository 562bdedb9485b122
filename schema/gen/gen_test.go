package gen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

var reg = schema.MustNewRegistry(
	schema.TableDef{
		Name:       "users",
		PrimaryKey: []string{"id"},
		Columns: []schema.ColumnDef{
			{Name: "id", Type: types.Integer(), HasDefault: true},
			{Name: "name", Type: types.Text()},
			{Name: "age", Type: types.Nullable(types.Integer())},
			{Name: "score", Type: types.Nullable(types.Float())},
			{Name: "created_at", Type: types.Timestamp(), Default: "CURRENT_TIMESTAMP"},
		},
	},
	schema.TableDef{
		Name:       "blog_posts",
		PrimaryKey: []string{"id"},
		Columns: []schema.ColumnDef{
			{Name: "id", Type: types.UUID()},
			{Name: "user_id", Type: types.Integer()},
			{Name: "tags", Type: types.Array(types.Text())},
		},
		ForeignKeys: []schema.ForeignKey{
			{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
		},
	},
)

func TestPascal(t *testing.T) {
	tests := map[string]string{
		"users":      "Users",
		"user_id":    "UserID",
		"created_at": "CreatedAt",
		"api_url":    "APIURL",
		"2fa":        "T2fa",
	}
	for in, want := range tests {
		assert.Equal(t, want, pascal(in), in)
	}
}

func TestWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, Write(fs, "models/schema.go", reg, Config{Package: "models", Source: "schema.tsql"}))

	src, err := afero.ReadFile(fs, "models/schema.go")
	require.NoError(t, err)
	out := string(src)

	_, err = parser.ParseFile(token.NewFileSet(), "schema.go", src, parser.AllErrors)
	require.NoError(t, err, out)

	for _, want := range []string{
		"// Code generated by typedsql from schema.tsql. DO NOT EDIT.",
		"package models",
		`"github.com/satishbabariya/typedsql/query/columns"`,
		"var Schema = schema.MustNewRegistry(",
		`Type: types.Nullable(types.Integer())`,
		`Type: types.Array(types.Text())`,
		`Default: "CURRENT_TIMESTAMP"`,
		"HasDefault: true",
		`RefTable:   "users"`,
		"type UsersColumns struct",
		"UserID columns.IntColumn",
		"Age       columns.NullableIntColumn",
		"Score     columns.BaseColumn",
		"CreatedAt columns.DateTimeColumn",
		"ID     columns.UUIDColumn",
		`BlogPostsTable = Schema.MustTable("blog_posts")`,
		`CreatedAt: columns.NewDateTimeColumn(UsersTable.MustColumn("created_at")),`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerateRejectsCollisions(t *testing.T) {
	clash := schema.MustNewRegistry(schema.TableDef{
		Name: "t",
		Columns: []schema.ColumnDef{
			{Name: "user_id", Type: types.Integer()},
			{Name: "user__id", Type: types.Integer()},
		},
	})
	_, err := Generate(clash, Config{Package: "models"})
	assert.ErrorContains(t, err, "both map to UserID")

	_, err = Generate(reg, Config{})
	assert.Error(t, err)
}

package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

func testDefs() []schema.TableDef {
	return []schema.TableDef{
		{
			Name:       "users",
			PrimaryKey: []string{"id"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: types.Integer(), HasDefault: true},
				{Name: "name", Type: types.Text()},
				{Name: "age", Type: types.Nullable(types.Integer())},
			},
		},
		{
			Name:       "posts",
			PrimaryKey: []string{"id"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: types.Integer(), HasDefault: true},
				{Name: "user_id", Type: types.Integer()},
				{Name: "title", Type: types.Text()},
			},
			ForeignKeys: []schema.ForeignKey{
				{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}},
			},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := schema.NewRegistry(testDefs()...)
	require.NoError(t, err)

	users := reg.MustTable("users")
	assert.Equal(t, "users", users.Name())
	require.Len(t, users.Columns(), 3)
	assert.Equal(t, "name", users.Columns()[1].Name())

	age := users.MustColumn("age")
	assert.True(t, age.Nullable())
	assert.Equal(t, "users.age", age.String())
	assert.True(t, users.MustColumn("id").PrimaryKey())
	assert.True(t, users.MustColumn("id").HasDefault())

	_, ok := reg.Table("missing")
	assert.False(t, ok)
	assert.Panics(t, func() { reg.MustTable("missing") })
	assert.Len(t, reg.Tables(), 2)
}

func TestNewRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		defs []schema.TableDef
	}{
		{"duplicate table", []schema.TableDef{
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}}},
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}}},
		}},
		{"duplicate column", []schema.TableDef{
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}, {Name: "x", Type: types.Text()}}},
		}},
		{"no columns", []schema.TableDef{{Name: "a"}}},
		{"untyped column", []schema.TableDef{
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x"}}},
		}},
		{"unknown primary key", []schema.TableDef{
			{Name: "a", PrimaryKey: []string{"id"}, Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}}},
		}},
		{"nullable primary key", []schema.TableDef{
			{Name: "a", PrimaryKey: []string{"x"}, Columns: []schema.ColumnDef{{Name: "x", Type: types.Nullable(types.Text())}}},
		}},
		{"foreign key to unknown table", []schema.TableDef{
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}},
				ForeignKeys: []schema.ForeignKey{{Columns: []string{"x"}, RefTable: "b", RefColumns: []string{"y"}}}},
		}},
		{"foreign key type mismatch", []schema.TableDef{
			{Name: "a", Columns: []schema.ColumnDef{{Name: "x", Type: types.Text()}},
				ForeignKeys: []schema.ForeignKey{{Columns: []string{"x"}, RefTable: "b", RefColumns: []string{"y"}}}},
			{Name: "b", Columns: []schema.ColumnDef{{Name: "y", Type: types.Integer()}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.NewRegistry(tt.defs...)
			assert.Error(t, err)
		})
	}
}

func TestJoinable(t *testing.T) {
	reg := schema.MustNewRegistry(testDefs()...)

	j, ok := reg.Joinable("posts", "users")
	require.True(t, ok)
	assert.Equal(t, "posts.user_id", j.Left[0].String())
	assert.Equal(t, "users.id", j.Right[0].String())

	j, ok = reg.Joinable("users", "posts")
	require.True(t, ok)
	assert.Equal(t, "users.id", j.Left[0].String())
	assert.Equal(t, "posts.user_id", j.Right[0].String())

	_, ok = reg.Joinable("users", "users")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	reg := schema.MustNewRegistry(testDefs()...)
	want := "posts (id)\n" +
		"  id Integer default\n" +
		"  user_id Integer\n" +
		"  title Text\n" +
		"\n" +
		"users (id)\n" +
		"  id Integer default\n" +
		"  name Text\n" +
		"  age Nullable(Integer)\n"
	assert.Equal(t, want, reg.Describe())
}

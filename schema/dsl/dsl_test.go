package dsl_test

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema/dsl"
)

const source = `
// application tables
table users (id) {
  id -> Integer default,
  name -> Text,
  age -> Nullable<Integer>,
  tags -> Array<Text>,
  balance -> Numeric
  created_at -> Timestamp default "CURRENT_TIMESTAMP",
}

table posts (id) {
  id -> BigInt default,
  user_id -> Integer,
  body -> Nullable<Varchar>,
  rating -> money,
}

joinable posts(user_id) -> users(id)
`

func TestParse(t *testing.T) {
	f, err := dsl.ParseString("schema.tsql", source)
	require.NoError(t, err)
	require.Len(t, f.Items, 3)

	users := f.Items[0].Table
	require.NotNil(t, users)
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, []string{"id"}, users.PrimaryKey)
	require.Len(t, users.Columns, 6)
	assert.Equal(t, "Nullable", users.Columns[2].Type.Name)
	assert.Equal(t, "CURRENT_TIMESTAMP", users.Columns[5].Default.SQL)

	j := f.Items[2].Joinable
	require.NotNil(t, j)
	assert.Equal(t, "posts", j.Table)
	assert.Equal(t, []string{"user_id"}, j.Columns)
	assert.Equal(t, "users", j.RefTable)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "schema.tsql", []byte(source), 0o644))

	reg, err := dsl.LoadFile(fs, "schema.tsql")
	require.NoError(t, err)

	users := reg.MustTable("users")
	assert.True(t, users.MustColumn("id").HasDefault())
	assert.Equal(t, "", users.MustColumn("id").DefaultSQL())
	assert.True(t, users.MustColumn("age").Type().Equal(types.Nullable(types.Integer())))
	assert.True(t, users.MustColumn("tags").Type().Equal(types.Array(types.Text())))
	assert.True(t, users.MustColumn("balance").Type().Equal(types.Numeric()))
	assert.Equal(t, "CURRENT_TIMESTAMP", users.MustColumn("created_at").DefaultSQL())

	posts := reg.MustTable("posts")
	assert.True(t, posts.MustColumn("body").Type().Equal(types.Nullable(types.Text())))
	assert.True(t, posts.MustColumn("rating").Type().Equal(types.Custom("money")))

	_, ok := reg.Joinable("users", "posts")
	assert.True(t, ok)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `table users { id Integer }`},
		{"nullable arity", `table t { a -> Nullable<Integer, Text> }`},
		{"args on scalar", `table t { a -> Text<Integer> }`},
		{"unknown joinable table", `table t { a -> Integer } joinable x(a) -> t(a)`},
		{"invalid registry", `table t (missing) { a -> Integer }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dsl.Load("bad.tsql", strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

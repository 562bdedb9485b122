package builder_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

var (
	reg = schema.MustNewRegistry(
		schema.TableDef{
			Name:       "users",
			PrimaryKey: []string{"id"},
			Columns: []schema.ColumnDef{
				{Name: "id", Type: types.Integer(), HasDefault: true},
				{Name: "name", Type: types.Text()},
				{Name: "age", Type: types.Nullable(types.Integer())},
			},
		},
		schema.TableDef{
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
		schema.TableDef{
			Name: "tags",
			Columns: []schema.ColumnDef{
				{Name: "label", Type: types.Text()},
			},
		},
	)
	users = reg.MustTable("users")
	posts = reg.MustTable("posts")
	tags  = reg.MustTable("tags")

	userID    = users.MustColumn("id")
	userName  = users.MustColumn("name")
	userAge   = users.MustColumn("age")
	postUser  = posts.MustColumn("user_id")
	postTitle = posts.MustColumn("title")
)

func col(c *schema.Column) expr.Expr { return expr.Col(c) }

func TestSelectResultTypes(t *testing.T) {
	q, err := builder.Select(col(userName), col(userAge)).
		From(users).
		Where(expr.Must(expr.Gt(col(userAge), expr.Int(18)))).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []types.LogicalType{types.Text(), types.Nullable(types.Integer())}, q.ResultTypes())
	assert.False(t, q.Qualified())

	all, err := builder.Select().From(users).JoinOn(posts).Build()
	require.NoError(t, err)
	assert.Len(t, all.ResultTypes(), 6)
	assert.True(t, all.Qualified())

	left, err := builder.Select(col(userName), col(postTitle), expr.Count(col(postTitle))).
		From(users).
		LeftJoinOn(posts).
		GroupBy(col(userName), col(postTitle)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []types.LogicalType{
		types.Text(),
		types.Nullable(types.Text()),
		types.Integer(),
	}, left.ResultTypes())

	right, err := builder.Select(col(userName), col(postTitle)).
		From(users).
		RightJoin(posts, expr.Must(expr.Eq(col(postUser), col(userID)))).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []types.LogicalType{types.Nullable(types.Text()), types.Text()}, right.ResultTypes())
}

func TestSelectValidation(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*builder.SelectQuery, error)
		is    error
	}{
		{
			"missing from",
			func() (*builder.SelectQuery, error) { return builder.Select(col(userName)).Build() },
			typedsql.ErrInvalidQuery,
		},
		{
			"unbound projection",
			func() (*builder.SelectQuery, error) { return builder.Select(col(postTitle)).From(users).Build() },
			typedsql.ErrUnboundColumn,
		},
		{
			"unbound filter",
			func() (*builder.SelectQuery, error) {
				return builder.Select(col(userName)).
					From(users).
					Where(expr.Must(expr.Eq(col(postTitle), expr.Text("x")))).
					Build()
			},
			typedsql.ErrUnboundColumn,
		},
		{
			"unbound join condition",
			func() (*builder.SelectQuery, error) {
				return builder.Select().
					From(users).
					InnerJoin(tags, expr.Must(expr.Eq(col(postTitle), expr.Text("x")))).
					Build()
			},
			typedsql.ErrUnboundColumn,
		},
		{
			"non-boolean filter",
			func() (*builder.SelectQuery, error) { return builder.Select().From(users).Where(col(userName)).Build() },
			typedsql.ErrNonBooleanCondition,
		},
		{
			"non-boolean join",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).InnerJoin(posts, col(postUser)).Build()
			},
			typedsql.ErrNonBooleanCondition,
		},
		{
			"non-boolean having",
			func() (*builder.SelectQuery, error) {
				return builder.Select(col(userName)).From(users).GroupBy(col(userName)).Having(expr.CountStar()).Build()
			},
			typedsql.ErrNonBooleanCondition,
		},
		{
			"negative limit",
			func() (*builder.SelectQuery, error) { return builder.Select().From(users).Limit(-1).Build() },
			typedsql.ErrInvalidQuery,
		},
		{
			"negated limit",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).LimitExpr(expr.Must(expr.Neg(expr.Int(5)))).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"negative offset arithmetic",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).OffsetExpr(expr.Must(expr.Sub(expr.Int(1), expr.Int(10)))).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"nullable limit",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).LimitExpr(expr.Null(types.Integer())).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"text offset",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).OffsetExpr(expr.Text("5")).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"column limit",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).LimitExpr(col(userID)).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"joined twice",
			func() (*builder.SelectQuery, error) {
				return builder.Select().From(users).JoinOn(posts).JoinOn(posts).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"no foreign key",
			func() (*builder.SelectQuery, error) { return builder.Select().From(users).JoinOn(tags).Build() },
			typedsql.ErrInvalidQuery,
		},
		{
			"aggregate in where",
			func() (*builder.SelectQuery, error) {
				return builder.Select(col(userName)).
					From(users).
					Where(expr.Must(expr.Gt(expr.CountStar(), expr.Int(1)))).
					Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"mixed aggregate without group by",
			func() (*builder.SelectQuery, error) {
				return builder.Select(col(userName), expr.CountStar()).From(users).Build()
			},
			typedsql.ErrInvalidQuery,
		},
		{
			"ungrouped column",
			func() (*builder.SelectQuery, error) {
				return builder.Select(col(userName), col(userAge)).From(users).GroupBy(col(userName)).Build()
			},
			typedsql.ErrInvalidQuery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, q)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
		})
	}
}

func TestSelectConstantLimit(t *testing.T) {
	q, err := builder.Select().
		From(users).
		LimitExpr(expr.Must(expr.Mul(expr.Int(2), expr.Must(expr.Neg(expr.Int(-5)))))).
		OffsetExpr(expr.Must(expr.Div(expr.Int(30), expr.Int(3)))).
		Build()
	require.NoError(t, err)
	assert.NotNil(t, q.Limit)
	assert.NotNil(t, q.Offset)
}

func TestSelectIsImmutable(t *testing.T) {
	b := builder.Select(col(userName)).From(users)
	first := b.MustBuild()
	b.Where(expr.Must(expr.Eq(col(userName), expr.Text("x"))))
	second := b.MustBuild()

	assert.Nil(t, first.Filter)
	assert.NotNil(t, second.Filter)

	rt := first.ResultTypes()
	rt[0] = types.Bool()
	assert.Equal(t, types.Text(), first.ResultTypes()[0])
}

func TestCorrelatedSubquery(t *testing.T) {
	_, err := builder.Select(col(postTitle)).
		From(posts).
		Where(expr.Must(expr.Eq(col(postUser), col(userID)))).
		Build()
	assert.True(t, typedsql.IsUnboundColumn(err))

	sub, err := builder.Select(col(postTitle)).
		From(posts).
		Outer(users).
		Where(expr.Must(expr.Eq(col(postUser), col(userID)))).
		Build()
	require.NoError(t, err)

	q, err := builder.Select(col(userName)).From(users).Where(expr.Exists(sub)).Build()
	require.NoError(t, err)
	assert.Len(t, q.ResultTypes(), 1)

	_, err = builder.Select(col(postTitle)).From(posts).Where(expr.Exists(sub)).Build()
	require.Error(t, err)
	var unbound *typedsql.UnboundColumnError
	require.True(t, errors.As(err, &unbound), "got %v", err)
	assert.Equal(t, "users", unbound.Table)
	assert.Equal(t, "id", unbound.Column)
	assert.Equal(t, "WHERE", unbound.Clause)
}

func TestInsert(t *testing.T) {
	q, err := builder.InsertInto(users).
		Values(builder.Assign(userName, expr.Text("Alice")), builder.Assign(userAge, expr.Int(30))).
		Values(builder.Assign(userAge, expr.Null(types.Integer())), builder.Assign(userName, expr.Text("Bob"))).
		Returning(col(userID)).
		Build()
	require.NoError(t, err)
	require.Len(t, q.Rows, 2)
	assert.Equal(t, "Bob", q.Rows[1][0].(*expr.Literal).Value)
	assert.Equal(t, []types.LogicalType{types.Integer()}, q.ResultTypes())

	tests := []struct {
		name string
		b    *builder.InsertBuilder
		is   error
	}{
		{
			"nullable into non-nullable",
			builder.InsertInto(users).Values(builder.Assign(userName, expr.Null(types.Text()))),
			typedsql.ErrNullabilityMismatch,
		},
		{
			"wrong type",
			builder.InsertInto(users).Values(builder.Assign(userName, expr.Int(1))),
			typedsql.ErrTypeMismatch,
		},
		{
			"foreign column",
			builder.InsertInto(users).Values(builder.Assign(postTitle, expr.Text("x"))),
			typedsql.ErrUnboundColumn,
		},
		{
			"missing required column",
			builder.InsertInto(users).Values(builder.Assign(userAge, expr.Int(1))),
			typedsql.ErrInvalidQuery,
		},
		{
			"rows differ",
			builder.InsertInto(users).
				Values(builder.Assign(userName, expr.Text("a"))).
				Values(builder.Assign(userName, expr.Text("b")), builder.Assign(userAge, expr.Int(2))),
			typedsql.ErrInvalidQuery,
		},
		{
			"column value",
			builder.InsertInto(users).Values(builder.Assign(userName, col(userName))),
			typedsql.ErrUnboundColumn,
		},
		{
			"assigned twice",
			builder.InsertInto(users).Values(builder.Assign(userName, expr.Text("a")), builder.Assign(userName, expr.Text("b"))),
			typedsql.ErrInvalidQuery,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.b.Build()
			require.Error(t, err)
			assert.Nil(t, q)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
		})
	}
}

func TestUpdateDelete(t *testing.T) {
	up, err := builder.Update(users).
		Set(userAge, expr.Must(expr.Add(col(userAge), expr.Int(1)))).
		Where(expr.Must(expr.Eq(col(userName), expr.Text("Bob")))).
		Returning(col(userAge)).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []types.LogicalType{types.Nullable(types.Integer())}, up.ResultTypes())

	_, err = builder.Update(users).Build()
	assert.ErrorIs(t, err, typedsql.ErrInvalidQuery)

	_, err = builder.Update(users).Set(userName, col(userAge)).Build()
	assert.True(t, typedsql.IsTypeMismatch(err))

	_, err = builder.Update(users).Set(userName, expr.Null(types.Null())).Build()
	assert.True(t, typedsql.IsNullabilityMismatch(err))

	_, err = builder.Update(users).Set(userAge, expr.Null(types.Null())).Build()
	assert.NoError(t, err)

	_, err = builder.Update(users).Set(userName, expr.Text("x")).Where(col(userName)).Build()
	assert.True(t, typedsql.IsNonBooleanCondition(err))

	_, err = builder.Update(users).Set(userName, col(postTitle)).Build()
	assert.True(t, typedsql.IsUnboundColumn(err))

	del, err := builder.DeleteFrom(posts).Where(expr.Must(expr.Eq(col(postUser), expr.Int(7)))).Build()
	require.NoError(t, err)
	assert.Empty(t, del.ResultTypes())

	_, err = builder.DeleteFrom(posts).Where(expr.Must(expr.Eq(col(userName), expr.Text("x")))).Build()
	assert.True(t, typedsql.IsUnboundColumn(err))

	_, err = builder.DeleteFrom(posts).Returning(col(userName)).Build()
	assert.True(t, typedsql.IsUnboundColumn(err))
}

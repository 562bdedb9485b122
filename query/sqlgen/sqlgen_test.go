package sqlgen_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/expr"
	"github.com/satishbabariya/typedsql/query/sqlgen"
	"github.com/satishbabariya/typedsql/query/types"
	"github.com/satishbabariya/typedsql/schema"
)

var testSchema = schema.MustNewRegistry(
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
		Name:       "users",
		PrimaryKey: []string{"id"},
		Columns: []schema.ColumnDef{
			{Name: "id", Type: types.Integer(), HasDefault: true},
			{Name: "name", Type: types.Text()},
			{Name: "age", Type: types.Nullable(types.Integer())},
		},
	},
	schema.TableDef{
		Name:       "events",
		PrimaryKey: []string{"id"},
		Columns: []schema.ColumnDef{
			{Name: "id", Type: types.Integer(), HasDefault: true},
			{Name: "at", Type: types.Timestamp(), Default: "CURRENT_TIMESTAMP"},
			{Name: "note", Type: types.Nullable(types.Text())},
		},
	},
)

var (
	users = testSchema.MustTable("users")
	posts = testSchema.MustTable("posts")

	userID   = expr.Col(users.MustColumn("id"))
	userName = expr.Col(users.MustColumn("name"))
	userAge  = expr.Col(users.MustColumn("age"))

	postID    = expr.Col(posts.MustColumn("id"))
	postUser  = expr.Col(posts.MustColumn("user_id"))
	postTitle = expr.Col(posts.MustColumn("title"))
)

func render(t *testing.T, d dialect.Name, q builder.Query) *sqlgen.Query {
	t.Helper()
	out, err := sqlgen.NewRenderer(dialect.MustGet(string(d))).Render(q)
	require.NoError(t, err)
	return out
}

func TestRenderSelect(t *testing.T) {
	q := builder.Select(userName, userAge).
		From(users).
		Where(expr.Must(expr.Gt(userAge, expr.Int(18)))).
		MustBuild()

	tests := []struct {
		dialect dialect.Name
		want    string
	}{
		{dialect.SQLite, `SELECT "name", "age" FROM "users" WHERE "age" > ?`},
		{dialect.Postgres, `SELECT "name", "age" FROM "users" WHERE "age" > $1`},
		{dialect.MySQL, "SELECT `name`, `age` FROM `users` WHERE `age` > ?"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			out := render(t, tt.dialect, q)
			assert.Equal(t, tt.want, out.SQL)
			if diff := cmp.Diff([]interface{}{int64(18)}, out.Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, []types.LogicalType{types.Integer()}, out.ArgTypes)
		})
	}
}

func TestRenderJoin(t *testing.T) {
	q := builder.Select(userName, postTitle).
		From(users).
		JoinOn(posts).
		Where(
			expr.Must(expr.Gt(userAge, expr.Int(18))),
			expr.Must(expr.Like(postTitle, expr.Text("Go%"))),
		).
		OrderBy(builder.Desc(postID).NullsLast()).
		Limit(10).
		Offset(5).
		MustBuild()

	out := render(t, dialect.Postgres, q)
	want := `SELECT "users"."name", "posts"."title" FROM "users" ` +
		`INNER JOIN "posts" ON "users"."id" = "posts"."user_id" ` +
		`WHERE ("users"."age" > $1) AND ("posts"."title" LIKE $2) ` +
		`ORDER BY "posts"."id" DESC NULLS LAST LIMIT $3 OFFSET $4`
	assert.Equal(t, want, out.SQL)
	if diff := cmp.Diff([]interface{}{int64(18), "Go%", int64(10), int64(5)}, out.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	_, err := sqlgen.NewRenderer(dialect.MustGet("mysql")).Render(q)
	require.Error(t, err)
	assert.True(t, typedsql.IsUnsupportedOperation(err))
}

func TestBindListsMatchAcrossDialects(t *testing.T) {
	q := builder.Select(userName, expr.As(expr.CountStar(), "n")).
		From(users).
		LeftJoin(posts, expr.Must(expr.Eq(postUser, userID))).
		Where(expr.Must(expr.In(userAge, expr.Int(20), expr.Int(30), expr.Null(types.Integer())))).
		GroupBy(userName).
		Having(expr.Must(expr.Gt(expr.CountStar(), expr.Int(2)))).
		Limit(3).
		MustBuild()

	pg := render(t, dialect.Postgres, q)
	for _, d := range []dialect.Name{dialect.MySQL, dialect.SQLite} {
		out := render(t, d, q)
		if diff := cmp.Diff(pg.Args, out.Args); diff != "" {
			t.Errorf("%s args differ from postgres (-pg +%s):\n%s", d, d, diff)
		}
		assert.Equal(t, pg.ArgTypes, out.ArgTypes)
	}
	assert.Equal(t, []interface{}{int64(20), int64(30), nil, int64(2), int64(3)}, pg.Args)
	assert.Equal(t, `SELECT "users"."name", COUNT(*) AS "n" FROM "users" `+
		`LEFT JOIN "posts" ON "posts"."user_id" = "users"."id" `+
		`WHERE "users"."age" IN ($1, $2, $3) GROUP BY "users"."name" HAVING COUNT(*) > $4 LIMIT $5`, pg.SQL)
}

func TestRenderOffsetWithoutLimit(t *testing.T) {
	q := builder.Select(userName).From(users).Offset(5).MustBuild()

	assert.Equal(t, `SELECT "name" FROM "users" OFFSET $1`, render(t, dialect.Postgres, q).SQL)
	assert.Equal(t, `SELECT "name" FROM "users" LIMIT -1 OFFSET ?`, render(t, dialect.SQLite, q).SQL)
	assert.Equal(t, "SELECT `name` FROM `users` LIMIT 18446744073709551615 OFFSET ?", render(t, dialect.MySQL, q).SQL)
}

func TestRenderExpressions(t *testing.T) {
	shout := expr.As(expr.Must(expr.Concat(userName, expr.Text("!"))), "shout")
	q := builder.Select(shout).From(users).MustBuild()
	assert.Equal(t, `SELECT "name" || $1 AS "shout" FROM "users"`, render(t, dialect.Postgres, q).SQL)
	assert.Equal(t, "SELECT CONCAT(`name`, ?) AS `shout` FROM `users`", render(t, dialect.MySQL, q).SQL)

	empty := builder.Select(userName).From(users).Where(expr.Must(expr.In(userID))).MustBuild()
	out := render(t, dialect.SQLite, empty)
	assert.Equal(t, `SELECT "name" FROM "users" WHERE 1 = 0`, out.SQL)
	assert.Empty(t, out.Args)

	notEmpty := builder.Select(userName).From(users).Where(expr.Must(expr.NotIn(userID))).MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE 1 = 1`, render(t, dialect.SQLite, notEmpty).SQL)

	negated := builder.Select(userName).
		From(users).
		Where(expr.Must(expr.Not(expr.Must(expr.Or(
			expr.IsNull(userAge),
			expr.Must(expr.Lt(expr.Must(expr.Mul(userAge, expr.Int(2))), expr.Int(40))),
		))))).
		MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE NOT ("age" IS NULL OR (("age" * ?) < ?))`,
		render(t, dialect.SQLite, negated).SQL)

	distinct := builder.Select(expr.CountDistinct(userName), expr.Now()).From(users).MustBuild()
	assert.Equal(t, `SELECT COUNT(DISTINCT "name"), CURRENT_TIMESTAMP FROM "users"`, render(t, dialect.SQLite, distinct).SQL)
}

func TestRenderNestedOperators(t *testing.T) {
	doubleNeg := builder.Select(userName).
		From(users).
		Where(expr.Must(expr.Lt(expr.Must(expr.Neg(expr.Must(expr.Neg(userID)))), expr.Int(0)))).
		MustBuild()
	out := render(t, dialect.SQLite, doubleNeg)
	assert.Equal(t, `SELECT "name" FROM "users" WHERE (-(-"id")) < ?`, out.SQL)
	assert.NotContains(t, out.SQL, "--")

	inIsTrue := builder.Select(userName).
		From(users).
		Where(expr.Must(expr.Eq(expr.Must(expr.In(userID, expr.Int(1), expr.Int(2))), expr.Bool(true)))).
		MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE ("id" IN ($1, $2)) = $3`, render(t, dialect.Postgres, inIsTrue).SQL)

	sub := builder.Select(postUser).From(posts).MustBuild()
	inQuery := builder.Select(userName).
		From(users).
		Where(expr.Must(expr.Ne(expr.Must(expr.InQuery(userID, sub)), expr.Bool(false)))).
		MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE ("id" IN (SELECT "user_id" FROM "posts")) <> ?`,
		render(t, dialect.SQLite, inQuery).SQL)
}

func TestRenderUnsupported(t *testing.T) {
	ilike := builder.Select(userName).
		From(users).
		Where(expr.Must(expr.ILike(userName, expr.Text("a%")))).
		MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE "name" ILIKE $1`, render(t, dialect.Postgres, ilike).SQL)

	right := builder.Select(userName).
		From(users).
		RightJoin(posts, expr.Must(expr.Eq(postUser, userID))).
		MustBuild()

	returning := builder.DeleteFrom(users).Returning(userID).MustBuild()

	tests := []struct {
		name    string
		dialect dialect.Name
		query   builder.Query
	}{
		{"ilike on sqlite", dialect.SQLite, ilike},
		{"ilike on mysql", dialect.MySQL, ilike},
		{"right join on sqlite", dialect.SQLite, right},
		{"returning on mysql", dialect.MySQL, returning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := sqlgen.NewRenderer(dialect.MustGet(string(tt.dialect))).Render(tt.query)
			require.Error(t, err)
			assert.Nil(t, out)
			var unsupported *typedsql.UnsupportedOperationError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, string(tt.dialect), unsupported.Dialect)
		})
	}
}

func TestRenderSubquery(t *testing.T) {
	sub := builder.Select(postUser).
		From(posts).
		Where(expr.Must(expr.Like(postTitle, expr.Text("Go%")))).
		MustBuild()
	q := builder.Select(userName).
		From(users).
		Where(
			expr.Must(expr.Gt(userAge, expr.Int(21))),
			expr.Must(expr.InQuery(userID, sub)),
		).
		MustBuild()

	out := render(t, dialect.SQLite, q)
	assert.Equal(t, `SELECT "name" FROM "users" WHERE ("age" > ?) AND "id" IN (SELECT "user_id" FROM "posts" WHERE "title" LIKE ?)`, out.SQL)
	assert.Equal(t, []interface{}{int64(21), "Go%"}, out.Args)

	correlated := builder.Select(postID).
		From(posts).
		Outer(users).
		Where(expr.Must(expr.Eq(postUser, userID))).
		MustBuild()
	exists := builder.Select(userName).From(users).Where(expr.Exists(correlated)).MustBuild()
	assert.Equal(t, `SELECT "name" FROM "users" WHERE EXISTS (SELECT "posts"."id" FROM "posts" WHERE "posts"."user_id" = "users"."id")`,
		render(t, dialect.Postgres, exists).SQL)
}

func TestRenderInsert(t *testing.T) {
	name := users.MustColumn("name")
	age := users.MustColumn("age")
	q := builder.InsertInto(users).
		Values(builder.Assign(name, expr.Text("Alice")), builder.Assign(age, expr.Int(30))).
		Values(builder.Assign(name, expr.Text("Bob")), builder.Assign(age, expr.Null(types.Integer()))).
		Returning(userID).
		MustBuild()

	out := render(t, dialect.Postgres, q)
	assert.Equal(t, `INSERT INTO "users" ("name", "age") VALUES ($1, $2), ($3, $4) RETURNING "id"`, out.SQL)
	assert.Equal(t, []interface{}{"Alice", int64(30), "Bob", nil}, out.Args)

	_, err := sqlgen.NewRenderer(dialect.MustGet("mysql")).Render(q)
	assert.True(t, typedsql.IsUnsupportedOperation(err))

	ignore := builder.InsertInto(users).
		Values(builder.Assign(name, expr.Text("Alice"))).
		OnConflictDoNothing().
		MustBuild()
	assert.Equal(t, `INSERT INTO "users" ("name") VALUES (?) ON CONFLICT DO NOTHING`, render(t, dialect.SQLite, ignore).SQL)
	assert.Equal(t, "INSERT IGNORE INTO `users` (`name`) VALUES (?)", render(t, dialect.MySQL, ignore).SQL)

	defaults := builder.InsertInto(testSchema.MustTable("events")).MustBuild()
	assert.Equal(t, `INSERT INTO "events" DEFAULT VALUES`, render(t, dialect.Postgres, defaults).SQL)
	assert.Equal(t, "INSERT INTO `events` () VALUES ()", render(t, dialect.MySQL, defaults).SQL)
}

func TestRenderUpdateDelete(t *testing.T) {
	up := builder.Update(users).
		Set(users.MustColumn("age"), expr.Must(expr.Add(userAge, expr.Int(1)))).
		Where(expr.Must(expr.Eq(userName, expr.Text("Bob")))).
		MustBuild()
	out := render(t, dialect.SQLite, up)
	assert.Equal(t, `UPDATE "users" SET "age" = "age" + ? WHERE "name" = ?`, out.SQL)
	assert.Equal(t, []interface{}{int64(1), "Bob"}, out.Args)

	del := builder.DeleteFrom(users).Where(expr.IsNull(userAge)).MustBuild()
	assert.Equal(t, "DELETE FROM `users` WHERE `age` IS NULL", render(t, dialect.MySQL, del).SQL)

	all := builder.DeleteFrom(posts).Returning(postID, postTitle).MustBuild()
	assert.Equal(t, `DELETE FROM "posts" RETURNING "id", "title"`, render(t, dialect.SQLite, all).SQL)
}

func TestCreateTable(t *testing.T) {
	tests := []struct {
		dialect string
		table   string
		exists  bool
		want    string
	}{
		{
			"postgres", "users", true,
			`CREATE TABLE IF NOT EXISTS "users" ("id" BIGINT GENERATED BY DEFAULT AS IDENTITY, "name" TEXT NOT NULL, "age" BIGINT, PRIMARY KEY ("id"))`,
		},
		{
			"sqlite", "users", false,
			`CREATE TABLE "users" ("id" INTEGER PRIMARY KEY, "name" TEXT NOT NULL, "age" INTEGER)`,
		},
		{
			"mysql", "posts", false,
			"CREATE TABLE `posts` (`id` BIGINT NOT NULL AUTO_INCREMENT, `user_id` BIGINT NOT NULL, `title` TEXT NOT NULL, " +
				"PRIMARY KEY (`id`), FOREIGN KEY (`user_id`) REFERENCES `users` (`id`))",
		},
		{
			"mysql", "events", false,
			"CREATE TABLE `events` (`id` BIGINT NOT NULL AUTO_INCREMENT, `at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6), " +
				"`note` TEXT, PRIMARY KEY (`id`))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.dialect+"/"+tt.table, func(t *testing.T) {
			got, err := sqlgen.CreateTable(dialect.MustGet(tt.dialect), nil, testSchema.MustTable(tt.table), tt.exists)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateSchemaOrdersByForeignKey(t *testing.T) {
	stmts, err := sqlgen.CreateSchema(dialect.MustGet("sqlite"), nil, testSchema, true)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], `"users"`)
	assert.Contains(t, stmts[1], `"posts"`)
	assert.Contains(t, stmts[2], `"events"`)

	assert.Equal(t, `DROP TABLE IF EXISTS "users"`, sqlgen.DropTable(dialect.MustGet("postgres"), "users", true))
}

func TestArrayColumnsNeedPostgres(t *testing.T) {
	reg := schema.MustNewRegistry(schema.TableDef{
		Name: "tagged",
		Columns: []schema.ColumnDef{
			{Name: "tags", Type: types.Array(types.Text())},
		},
	})
	got, err := sqlgen.CreateTable(dialect.MustGet("postgres"), nil, reg.MustTable("tagged"), false)
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "tagged" ("tags" TEXT[] NOT NULL)`, got)

	_, err = sqlgen.CreateTable(dialect.MustGet("sqlite"), nil, reg.MustTable("tagged"), false)
	assert.Error(t, err)
}

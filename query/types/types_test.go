package types_test

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/types"
)

func TestLogicalTypeString(t *testing.T) {
	tests := []struct {
		typ  types.LogicalType
		want string
	}{
		{types.Integer(), "Integer"},
		{types.Nullable(types.Text()), "Nullable(Text)"},
		{types.Nullable(types.Nullable(types.Text())), "Nullable(Text)"},
		{types.Array(types.Nullable(types.Integer())), "Array(Nullable(Integer))"},
		{types.Custom("money"), "Custom(money)"},
		{types.Null(), "Null"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestCompatibility(t *testing.T) {
	assert.True(t, types.Compatible(types.Integer(), types.Nullable(types.Integer())))
	assert.True(t, types.Compatible(types.Null(), types.Text()))
	assert.False(t, types.Compatible(types.Integer(), types.Text()))
	assert.False(t, types.Compatible(types.Array(types.Integer()), types.Array(types.Text())))

	typeOK, nullOK := types.Assignable(types.Nullable(types.Integer()), types.Integer())
	assert.True(t, typeOK)
	assert.False(t, nullOK)

	typeOK, nullOK = types.Assignable(types.Integer(), types.Nullable(types.Integer()))
	assert.True(t, typeOK)
	assert.True(t, nullOK)

	assert.True(t, types.Nullable(types.Integer()).Base().Equal(types.Integer()))
	assert.True(t, types.Float().IsNumeric())
	assert.False(t, types.Bool().IsOrderable())
	assert.False(t, types.JSON().IsOrderable())
}

func TestNormalize(t *testing.T) {
	v, err := types.Normalize(types.Integer(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = types.Normalize(types.Nullable(types.Text()), (*string)(nil))
	require.NoError(t, err)
	assert.Nil(t, v)

	s := "alice"
	v, err = types.Normalize(types.Nullable(types.Text()), &s)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	v, err = types.Normalize(types.Integer(), sql.NullInt64{Int64: 7, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)

	_, err = types.Normalize(types.Integer(), nil)
	assert.Error(t, err)

	_, err = types.Normalize(types.Integer(), "42")
	assert.Error(t, err)

	v, err = types.Normalize(types.Array(types.Integer()), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, v)

	v, err = types.Normalize(types.JSON(), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"a":1}`), v)

	id := uuid.New()
	v, err = types.Normalize(types.UUID(), id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)
}

func TestDecodeRoundTrip(t *testing.T) {
	reg := types.NewRegistry()
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	id := uuid.MustParse("6f1c1a8e-8d4b-4c55-9b0a-2d3f1c2b9e11")

	tests := []struct {
		name  string
		typ   types.LogicalType
		value any
	}{
		{"integer", types.Integer(), int64(9)},
		{"float", types.Float(), 2.5},
		{"text", types.Text(), "hello"},
		{"bool", types.Bool(), true},
		{"timestamp", types.Timestamp(), when},
		{"bytes", types.Bytes(), []byte{0x01, 0x02}},
		{"uuid", types.UUID(), id},
		{"json", types.JSON(), json.RawMessage(`{"k":"v"}`)},
		{"nullable text", types.Nullable(types.Text()), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range []dialect.Name{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
				encoded, err := reg.Encode(tt.typ, tt.value)
				require.NoError(t, err)
				bound, err := reg.DriverValue(d, tt.typ, encoded)
				require.NoError(t, err)
				decoded, err := reg.Decode(d, tt.typ, types.Cell{Value: bound})
				require.NoError(t, err, d)
				assert.Equal(t, tt.value, decoded, d)
			}
		})
	}
}

func TestDecodeNumeric(t *testing.T) {
	reg := types.NewRegistry()
	v, err := reg.Decode(dialect.Postgres, types.Numeric(), types.Cell{Value: []byte("12.50"), Tag: "NUMERIC"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(v.(decimal.Decimal)))
}

func TestDecodeNullability(t *testing.T) {
	reg := types.NewRegistry()

	v, err := reg.Decode(dialect.SQLite, types.Nullable(types.Integer()), types.Cell{Value: nil, Tag: "INTEGER"})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = reg.Decode(dialect.SQLite, types.Integer(), types.Cell{Value: nil, Tag: "INTEGER"})
	assert.Error(t, err)
}

func TestDecodeTagMismatch(t *testing.T) {
	reg := types.NewRegistry()
	_, err := reg.Decode(dialect.Postgres, types.Integer(), types.Cell{Value: "abc", Tag: "TEXT"})
	assert.Error(t, err)

	v, err := reg.Decode(dialect.Postgres, types.Integer(), types.Cell{Value: int64(1), Tag: "INT4"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = reg.Decode(dialect.MySQL, types.Text(), types.Cell{Value: []byte("x"), Tag: "VARCHAR"})
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	assert.True(t, reg.Accepts(dialect.SQLite, types.Text(), "varchar(255)"))
	assert.True(t, reg.Accepts(dialect.MySQL, types.Integer(), "UNSIGNED BIGINT"))
	assert.False(t, reg.Accepts(dialect.MySQL, types.Array(types.Integer()), "JSON"))
}

func TestPostgresArrays(t *testing.T) {
	reg := types.NewRegistry()
	typ := types.Array(types.Nullable(types.Integer()))

	v, err := reg.Decode(dialect.Postgres, typ, types.Cell{Value: []byte("{1,NULL,3}"), Tag: "_INT8"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(3)}, v)

	v, err = reg.Decode(dialect.Postgres, types.Array(types.Text()), types.Cell{Value: []byte(`{a,"b c"}`), Tag: "_TEXT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b c"}, v)

	v, err = reg.Decode(dialect.Postgres, types.Array(types.Timestamp()), types.Cell{
		Value: []byte(`{"2024-03-01 12:30:00+00","2024-03-02 08:00:00.5+05:30","1900-01-01 00:00:00+00:19:32"}`),
		Tag:   "_TIMESTAMPTZ",
	})
	require.NoError(t, err)
	stamps := v.([]time.Time)
	require.Len(t, stamps, 3)
	assert.True(t, stamps[0].Equal(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)))
	assert.True(t, stamps[1].Equal(time.Date(2024, 3, 2, 2, 30, 0, 500_000_000, time.UTC)))
	assert.True(t, stamps[2].Equal(time.Date(1899, 12, 31, 23, 40, 28, 0, time.UTC)))

	bound, err := reg.DriverValue(dialect.Postgres, types.Array(types.Integer()), []int64{1, 2})
	require.NoError(t, err)
	text, err := bound.(pq.GenericArray).Value()
	require.NoError(t, err)
	assert.Equal(t, "{1,2}", text)

	_, err = reg.DriverValue(dialect.MySQL, types.Array(types.Integer()), []int64{1})
	assert.Error(t, err)
}

func TestCustomType(t *testing.T) {
	reg := types.NewRegistry()
	err := reg.Register("cents", types.Codec{
		Decode: func(src any) (any, error) {
			n, ok := src.(int64)
			if !ok {
				return nil, assert.AnError
			}
			return decimal.New(n, -2), nil
		},
		SQLType: func(dialect.Name) (string, error) { return "BIGINT", nil },
	})
	require.NoError(t, err)
	assert.Error(t, reg.Register("cents", types.Codec{Decode: func(any) (any, error) { return nil, nil }}))

	v, err := reg.Decode(dialect.SQLite, types.Custom("cents"), types.Cell{Value: int64(1250)})
	require.NoError(t, err)
	assert.Equal(t, "12.5", v.(decimal.Decimal).String())

	ddl, err := reg.SQLType(dialect.MySQL, types.Custom("cents"))
	require.NoError(t, err)
	assert.Equal(t, "BIGINT", ddl)

	_, err = reg.Decode(dialect.SQLite, types.Custom("unknown"), types.Cell{Value: int64(1)})
	assert.Error(t, err)
}

func TestSQLType(t *testing.T) {
	reg := types.NewRegistry()
	ddl, err := reg.SQLType(dialect.Postgres, types.Array(types.Text()))
	require.NoError(t, err)
	assert.Equal(t, "TEXT[]", ddl)

	ddl, err = reg.SQLType(dialect.SQLite, types.Nullable(types.Timestamp()))
	require.NoError(t, err)
	assert.Equal(t, "TIMESTAMP", ddl)

	_, err = reg.SQLType(dialect.SQLite, types.Array(types.Text()))
	assert.Error(t, err)
}

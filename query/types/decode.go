package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/satishbabariya/typedsql/dialect"
)

// timestamp layouts produced by the SQLite and MySQL drivers, and by
// Postgres timestamptz text output, whose offsets may carry hours only or
// seconds as well
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

func decodeScalar(k Kind, src any) (any, error) {
	switch k {
	case KindInteger:
		switch x := src.(type) {
		case []byte:
			return strconv.ParseInt(string(x), 10, 64)
		case string:
			return strconv.ParseInt(x, 10, 64)
		case float64:
			if x == math.Trunc(x) && x >= math.MinInt64 && x <= math.MaxInt64 {
				return int64(x), nil
			}
		default:
			if n, err := toInt64(src); err == nil {
				return n, nil
			}
		}
	case KindFloat:
		switch x := src.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case []byte:
			return strconv.ParseFloat(string(x), 64)
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case KindNumeric:
		switch x := src.(type) {
		case decimal.Decimal:
			return x, nil
		case []byte:
			return decimal.NewFromString(string(x))
		case string:
			return decimal.NewFromString(x)
		case int64:
			return decimal.NewFromInt(x), nil
		case float64:
			return decimal.NewFromFloat(x), nil
		}
	case KindText:
		switch x := src.(type) {
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		}
	case KindBool:
		switch x := src.(type) {
		case bool:
			return x, nil
		case int64:
			switch x {
			case 0:
				return false, nil
			case 1:
				return true, nil
			}
		case []byte:
			return parseBool(string(x))
		case string:
			return parseBool(x)
		}
	case KindTimestamp:
		switch x := src.(type) {
		case time.Time:
			return x, nil
		case int64:
			return time.Unix(x, 0).UTC(), nil
		case []byte:
			return parseTime(string(x))
		case string:
			return parseTime(x)
		}
	case KindBytes:
		switch x := src.(type) {
		case []byte:
			return append([]byte(nil), x...), nil
		case string:
			return []byte(x), nil
		}
	case KindUUID:
		switch x := src.(type) {
		case uuid.UUID:
			return x, nil
		case [16]byte:
			return uuid.UUID(x), nil
		case []byte:
			if len(x) == 16 {
				return uuid.FromBytes(x)
			}
			return uuid.ParseBytes(x)
		case string:
			return uuid.Parse(x)
		}
	case KindJSON:
		var b []byte
		switch x := src.(type) {
		case json.RawMessage:
			b = x
		case []byte:
			b = x
		case string:
			b = []byte(x)
		default:
			return nil, fmt.Errorf("cannot decode %T as %s", src, k)
		}
		if !json.Valid(b) {
			return nil, fmt.Errorf("invalid json document")
		}
		return json.RawMessage(append([]byte(nil), b...)), nil
	}
	return nil, fmt.Errorf("cannot decode %T as %s", src, k)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1", "y", "yes", "on":
		return true, nil
	case "f", "false", "0", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// normalizeTag upper-cases a declared type and strips its length or
// precision suffix: "varchar(255)" becomes "VARCHAR".
func normalizeTag(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if i := strings.IndexByte(tag, '('); i >= 0 {
		tag = strings.TrimSpace(tag[:i])
	}
	return strings.TrimPrefix(tag, "UNSIGNED ")
}

var tagTable = map[dialect.Name]map[Kind][]string{
	dialect.Postgres: {
		KindInteger:   {"INT2", "INT4", "INT8", "SMALLINT", "INTEGER", "BIGINT", "SERIAL", "BIGSERIAL", "OID"},
		KindFloat:     {"FLOAT4", "FLOAT8", "REAL", "DOUBLE PRECISION"},
		KindNumeric:   {"NUMERIC", "DECIMAL", "MONEY"},
		KindText:      {"TEXT", "VARCHAR", "BPCHAR", "CHAR", "NAME", "CITEXT"},
		KindBool:      {"BOOL", "BOOLEAN"},
		KindTimestamp: {"TIMESTAMP", "TIMESTAMPTZ", "DATE"},
		KindBytes:     {"BYTEA"},
		KindUUID:      {"UUID"},
		KindJSON:      {"JSON", "JSONB"},
	},
	dialect.MySQL: {
		KindInteger:   {"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "YEAR"},
		KindFloat:     {"FLOAT", "DOUBLE", "REAL"},
		KindNumeric:   {"DECIMAL", "NUMERIC"},
		KindText:      {"CHAR", "VARCHAR", "TEXT", "TINYTEXT", "MEDIUMTEXT", "LONGTEXT", "ENUM", "SET"},
		KindBool:      {"TINYINT", "BOOL", "BOOLEAN", "BIT"},
		KindTimestamp: {"DATETIME", "TIMESTAMP", "DATE"},
		KindBytes:     {"BLOB", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB", "BINARY", "VARBINARY"},
		KindUUID:      {"CHAR", "VARCHAR", "BINARY", "UUID"},
		KindJSON:      {"JSON"},
	},
}

// sqliteAccepts follows SQLite's type affinity rules: declared types are
// free-form and matched by substring.
func sqliteAccepts(k Kind, tag string) bool {
	has := func(subs ...string) bool {
		for _, s := range subs {
			if strings.Contains(tag, s) {
				return true
			}
		}
		return false
	}
	switch k {
	case KindInteger:
		return has("INT")
	case KindFloat:
		return has("REAL", "FLOA", "DOUB", "NUMERIC", "DECIMAL")
	case KindNumeric:
		return has("NUMERIC", "DECIMAL", "INT", "REAL", "DOUB")
	case KindText:
		return has("CHAR", "CLOB", "TEXT")
	case KindBool:
		return has("BOOL", "INT")
	case KindTimestamp:
		return has("DATE", "TIME", "TEXT", "INT")
	case KindBytes:
		return has("BLOB")
	case KindUUID:
		return has("UUID", "CHAR", "TEXT", "BLOB")
	case KindJSON:
		return has("JSON", "TEXT")
	}
	return false
}

var ddlTypes = map[dialect.Name]map[Kind]string{
	dialect.Postgres: {
		KindInteger:   "BIGINT",
		KindFloat:     "DOUBLE PRECISION",
		KindNumeric:   "NUMERIC",
		KindText:      "TEXT",
		KindBool:      "BOOLEAN",
		KindTimestamp: "TIMESTAMP",
		KindBytes:     "BYTEA",
		KindUUID:      "UUID",
		KindJSON:      "JSONB",
	},
	dialect.MySQL: {
		KindInteger:   "BIGINT",
		KindFloat:     "DOUBLE",
		KindNumeric:   "DECIMAL(65,30)",
		KindText:      "TEXT",
		KindBool:      "BOOLEAN",
		KindTimestamp: "DATETIME(6)",
		KindBytes:     "LONGBLOB",
		KindUUID:      "CHAR(36)",
		KindJSON:      "JSON",
	},
	dialect.SQLite: {
		KindInteger:   "INTEGER",
		KindFloat:     "REAL",
		KindNumeric:   "NUMERIC",
		KindText:      "TEXT",
		KindBool:      "BOOLEAN",
		KindTimestamp: "TIMESTAMP",
		KindBytes:     "BLOB",
		KindUUID:      "TEXT",
		KindJSON:      "TEXT",
	},
}

// Package dialect describes the SQL syntax rules of each supported backend.
package dialect

import (
	"fmt"
	"net/url"
	"strings"
)

// Name identifies a backend.
type Name string

const (
	// Postgres is the PostgreSQL backend.
	Postgres Name = "postgres"
	// MySQL is the MySQL/MariaDB backend.
	MySQL Name = "mysql"
	// SQLite is the SQLite backend.
	SQLite Name = "sqlite"
)

// Feature is an optional SQL construct a backend may or may not support.
type Feature string

const (
	FeatureReturning        Feature = "RETURNING"
	FeatureILike            Feature = "ILIKE"
	FeatureArrays           Feature = "array types"
	FeatureNullsOrdering    Feature = "NULLS FIRST/LAST"
	FeatureRightJoin        Feature = "RIGHT JOIN"
	FeatureOnConflict       Feature = "ON CONFLICT"
	FeatureInsertIgnore     Feature = "INSERT IGNORE"
	FeatureDefaultValues    Feature = "DEFAULT VALUES"
	FeatureTransactionalDDL Feature = "transactional DDL"
)

// Dialect is the backend descriptor consulted by the renderer, the type
// registry and the migration ledger.
type Dialect interface {
	// Name returns the backend name.
	Name() Name
	// DriverName returns the database/sql driver name registered for the backend.
	DriverName() string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// Placeholder returns the bind placeholder for the n-th (1-based) argument.
	Placeholder(n int) string
	// Supports reports whether the backend can express the feature.
	Supports(f Feature) bool
	// OffsetWithoutLimit returns the LIMIT operand required before OFFSET
	// when the query has no limit, or "" if none is needed.
	OffsetWithoutLimit() string
}

// Get returns the dialect for a provider name.
func Get(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pg":
		return postgres{}, nil
	case "mysql", "mariadb":
		return mysql{}, nil
	case "sqlite", "sqlite3":
		return sqlite{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %q", name)
	}
}

// MustGet is like Get but panics on unknown names.
func MustGet(name string) Dialect {
	d, err := Get(name)
	if err != nil {
		panic(err)
	}
	return d
}

// FromURL infers the dialect from a connection URL. Bare file paths and
// "file:" URLs are treated as SQLite.
func FromURL(raw string) (Dialect, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty database url")
	}
	// mysql DSNs (user:pass@tcp(host)/db) are not URLs
	if strings.Contains(raw, "@tcp(") || strings.Contains(raw, "@unix(") {
		return mysql{}, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		if strings.HasSuffix(raw, ".db") || strings.HasSuffix(raw, ".sqlite") || raw == ":memory:" {
			return sqlite{}, nil
		}
		return nil, fmt.Errorf("cannot infer dialect from %q", raw)
	}
	if u.Scheme == "file" {
		return sqlite{}, nil
	}
	return Get(u.Scheme)
}

// quote wraps name in q, doubling any embedded q.
func quote(name string, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

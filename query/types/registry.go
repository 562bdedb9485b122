package types

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"

	"github.com/satishbabariya/typedsql/dialect"
)

// Cell is one raw value read from a result row together with the backend's
// declared type name for its column. An empty Tag skips the tag check.
type Cell struct {
	Value any
	Tag   string
}

// Codec teaches the registry a custom type.
type Codec struct {
	// Encode converts a Go value into the canonical value of the type.
	// Nil means values pass through unchanged.
	Encode func(v any) (any, error)
	// Decode converts a raw cell value. Required.
	Decode func(src any) (any, error)
	// DriverValue converts a canonical value into a bind argument for the
	// backend. Nil means the canonical value is bound as is.
	DriverValue func(d dialect.Name, v any) (any, error)
	// Accepts reports whether a declared column type carries the type.
	// Nil accepts every tag.
	Accepts func(d dialect.Name, tag string) bool
	// SQLType returns the column type used in DDL.
	SQLType func(d dialect.Name) (string, error)
}

// Registry resolves logical types to encoders, decoders and DDL types.
// Builtin kinds are always known; custom types are added with Register.
type Registry struct {
	mu     sync.RWMutex
	custom map[string]Codec
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]Codec)}
}

// Register adds a custom type. Registering a name twice is an error.
func (r *Registry) Register(name string, c Codec) error {
	if name == "" {
		return fmt.Errorf("custom type name is empty")
	}
	if c.Decode == nil {
		return fmt.Errorf("custom type %s: decoder is required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[name]; ok {
		return fmt.Errorf("custom type %s already registered", name)
	}
	r.custom[name] = c
	return nil
}

// Lookup returns the codec of a custom type.
func (r *Registry) Lookup(name string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.custom[name]
	return c, ok
}

// Encode converts v into the canonical value of t.
func (r *Registry) Encode(t LogicalType, v any) (any, error) {
	switch t.Kind() {
	case KindInvalid:
		return nil, fmt.Errorf("invalid logical type")
	case KindNullable:
		v = deref(v)
		if v == nil {
			return nil, nil
		}
		return r.Encode(t.Elem(), v)
	case KindNull:
		if deref(v) != nil {
			return nil, fmt.Errorf("cannot use %T as Null", v)
		}
		return nil, nil
	case KindArray:
		items, ok := elements(deref(v))
		if !ok {
			return nil, fmt.Errorf("cannot use %T as %s", v, t)
		}
		for i, it := range items {
			ev, err := r.Encode(t.Elem(), it)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = ev
		}
		return typedSlice(t.Elem(), items), nil
	case KindCustom:
		c, ok := r.Lookup(t.Name())
		if !ok || c.Encode == nil {
			return v, nil
		}
		return c.Encode(v)
	}
	v = deref(v)
	if v == nil {
		return nil, fmt.Errorf("null value for non-nullable %s", t)
	}
	return normalizeScalar(t.Kind(), v)
}

// DriverValue converts canonical value v of type t into a bind argument for
// backend d.
func (r *Registry) DriverValue(d dialect.Name, t LogicalType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t.Kind() {
	case KindNullable:
		return r.DriverValue(d, t.Elem(), v)
	case KindArray:
		if d != dialect.Postgres {
			return nil, fmt.Errorf("%s: array values are not supported", d)
		}
		items, ok := elements(v)
		if !ok {
			return nil, fmt.Errorf("cannot bind %T as %s", v, t)
		}
		for i, it := range items {
			ev, err := r.DriverValue(d, t.Elem(), it)
			if err != nil {
				return nil, err
			}
			items[i] = ev
		}
		return pq.Array(items), nil
	case KindJSON:
		if raw, ok := v.(json.RawMessage); ok {
			return string(raw), nil
		}
	case KindUUID, KindNumeric:
		if s, ok := v.(fmt.Stringer); ok {
			return s.String(), nil
		}
	case KindCustom:
		if c, ok := r.Lookup(t.Name()); ok && c.DriverValue != nil {
			return c.DriverValue(d, v)
		}
	}
	return v, nil
}

// Decode converts a raw cell into the canonical value of t.
func (r *Registry) Decode(d dialect.Name, t LogicalType, c Cell) (any, error) {
	if c.Value == nil {
		if t.IsNullable() {
			return nil, nil
		}
		return nil, fmt.Errorf("null value for non-nullable %s", t)
	}
	if t.Kind() == KindNullable {
		t = t.Elem()
	}
	if t.Kind() == KindNull {
		return nil, fmt.Errorf("non-null value for Null")
	}
	if c.Tag != "" && !r.Accepts(d, t, c.Tag) {
		return nil, fmt.Errorf("column type %s does not carry %s", c.Tag, t)
	}
	switch t.Kind() {
	case KindArray:
		return r.decodeArray(d, t, c.Value)
	case KindCustom:
		codec, ok := r.Lookup(t.Name())
		if !ok {
			return nil, fmt.Errorf("custom type %s is not registered", t.Name())
		}
		return codec.Decode(c.Value)
	}
	return decodeScalar(t.Kind(), c.Value)
}

func (r *Registry) decodeArray(d dialect.Name, t LogicalType, src any) (any, error) {
	var raw []any
	switch x := src.(type) {
	case []byte, string:
		var ns []sql.NullString
		if err := (pq.GenericArray{A: &ns}).Scan(x); err != nil {
			return nil, err
		}
		raw = make([]any, len(ns))
		for i, n := range ns {
			if n.Valid {
				raw[i] = n.String
			}
		}
	default:
		items, ok := elements(src)
		if !ok {
			return nil, fmt.Errorf("cannot decode %T as %s", src, t)
		}
		raw = items
	}
	out := make([]any, len(raw))
	for i, it := range raw {
		v, err := r.Decode(d, t.Elem(), Cell{Value: it})
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return typedSlice(t.Elem(), out), nil
}

// Accepts reports whether a column whose declared type is tag can carry
// values of t on backend d.
func (r *Registry) Accepts(d dialect.Name, t LogicalType, tag string) bool {
	tag = normalizeTag(tag)
	switch t.Kind() {
	case KindNullable:
		return r.Accepts(d, t.Elem(), tag)
	case KindArray:
		if d != dialect.Postgres {
			return false
		}
		if tag == "ARRAY" {
			return true
		}
		if !strings.HasPrefix(tag, "_") {
			return false
		}
		return r.Accepts(d, t.Elem(), tag[1:])
	case KindCustom:
		c, ok := r.Lookup(t.Name())
		if !ok {
			return false
		}
		return c.Accepts == nil || c.Accepts(d, tag)
	}
	if d == dialect.SQLite {
		return sqliteAccepts(t.Kind(), tag)
	}
	for _, name := range tagTable[d][t.Kind()] {
		if name == tag {
			return true
		}
	}
	return false
}

// SQLType returns the column type used for t in CREATE TABLE on backend d.
func (r *Registry) SQLType(d dialect.Name, t LogicalType) (string, error) {
	switch t.Kind() {
	case KindNullable:
		return r.SQLType(d, t.Elem())
	case KindArray:
		if d != dialect.Postgres {
			return "", fmt.Errorf("%s: array columns are not supported", d)
		}
		elem, err := r.SQLType(d, t.Elem())
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case KindCustom:
		c, ok := r.Lookup(t.Name())
		if !ok || c.SQLType == nil {
			return "", fmt.Errorf("custom type %s has no column type", t.Name())
		}
		return c.SQLType(d)
	}
	if s, ok := ddlTypes[d][t.Kind()]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%s has no column type on %s", t, d)
}

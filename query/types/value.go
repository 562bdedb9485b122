package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical Go representations of each kind:
//
//	Integer   int64
//	Float     float64
//	Numeric   decimal.Decimal
//	Text      string
//	Bool      bool
//	Timestamp time.Time
//	Bytes     []byte
//	UUID      uuid.UUID
//	JSON      json.RawMessage
//	Nullable  nil or the canonical value of the wrapped type
//	Array     a slice of the canonical element type, or []any when the
//	          element type is nullable, an array or custom
//
// Normalize converts v into the canonical representation of t. Custom
// types are returned unchanged.
func Normalize(t LogicalType, v any) (any, error) {
	return defaultRegistry.Encode(t, v)
}

func normalizeScalar(k Kind, v any) (any, error) {
	switch k {
	case KindInteger:
		return toInt64(v)
	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		}
		if n, err := toInt64(v); err == nil {
			return float64(n.(int64)), nil
		}
	case KindNumeric:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case *decimal.Decimal:
			if x != nil {
				return *x, nil
			}
		case string:
			d, err := decimal.NewFromString(x)
			if err != nil {
				return nil, fmt.Errorf("invalid numeric %q: %w", x, err)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(x), nil
		}
		if n, err := toInt64(v); err == nil {
			return decimal.NewFromInt(n.(int64)), nil
		}
	case KindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTimestamp:
		if ts, ok := v.(time.Time); ok {
			return ts, nil
		}
	case KindBytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	case KindUUID:
		switch x := v.(type) {
		case uuid.UUID:
			return x, nil
		case [16]byte:
			return uuid.UUID(x), nil
		case string:
			id, err := uuid.Parse(x)
			if err != nil {
				return nil, fmt.Errorf("invalid uuid %q: %w", x, err)
			}
			return id, nil
		}
	case KindJSON:
		switch x := v.(type) {
		case json.RawMessage:
			if !json.Valid(x) {
				return nil, fmt.Errorf("invalid json document")
			}
			return x, nil
		case []byte:
			if !json.Valid(x) {
				return nil, fmt.Errorf("invalid json document")
			}
			return json.RawMessage(x), nil
		case string:
			if !json.Valid([]byte(x)) {
				return nil, fmt.Errorf("invalid json document")
			}
			return json.RawMessage(x), nil
		default:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, err
			}
			return json.RawMessage(b), nil
		}
	case KindNull:
		if v == nil {
			return nil, nil
		}
	}
	// sql.Null* and friends
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		if dv == nil {
			return nil, fmt.Errorf("null value for non-nullable %s", k)
		}
		if _, same := dv.(driver.Valuer); !same {
			return normalizeScalar(k, dv)
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, k)
}

func toInt64(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), nil
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, KindInteger)
}

// deref follows pointers; a nil pointer yields nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		if _, ok := rv.Interface().(driver.Valuer); ok {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// elements returns the items of a slice or array value other than []byte.
func elements(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// typedSlice converts canonical element values into the canonical slice for
// an array of elem.
func typedSlice(elem LogicalType, items []any) any {
	if elem.IsNullable() {
		return items
	}
	switch elem.Kind() {
	case KindInteger:
		return collect[int64](items)
	case KindFloat:
		return collect[float64](items)
	case KindNumeric:
		return collect[decimal.Decimal](items)
	case KindText:
		return collect[string](items)
	case KindBool:
		return collect[bool](items)
	case KindTimestamp:
		return collect[time.Time](items)
	case KindBytes:
		return collect[[]byte](items)
	case KindUUID:
		return collect[uuid.UUID](items)
	case KindJSON:
		return collect[json.RawMessage](items)
	}
	return items
}

func collect[T any](items []any) []T {
	out := make([]T, len(items))
	for i, it := range items {
		out[i] = it.(T)
	}
	return out
}

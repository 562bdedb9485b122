package decode

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Into assigns a decoded row to a T.
//
// When T is a struct, exported fields receive the row positionally in
// declaration order; fields tagged `db:"-"` are skipped. NULL requires a
// pointer or interface field. Numeric values are widened or narrowed to the
// field's numeric kind, and fields implementing sql.Scanner scan the value.
// When T is not a struct the row must have exactly one value.
func Into[T any](row Row) (T, error) {
	var out T
	v := reflect.ValueOf(&out).Elem()

	if v.Kind() != reflect.Struct || isScanner(v) || scalarRow(row, v.Type()) {
		if len(row) != 1 {
			return out, fmt.Errorf("decode: cannot assign %d values to %s", len(row), v.Type())
		}
		if err := assign(v, row[0]); err != nil {
			return out, fmt.Errorf("decode: position 0: %w", err)
		}
		return out, nil
	}

	fields := positionalFields(v.Type())
	if len(fields) != len(row) {
		return out, fmt.Errorf("decode: %s has %d fields, row has %d values", v.Type(), len(fields), len(row))
	}
	for i, index := range fields {
		f := v.FieldByIndex(index)
		if err := assign(f, row[i]); err != nil {
			return out, fmt.Errorf("decode: position %d (%s.%s): %w", i, v.Type(), v.Type().FieldByIndex(index).Name, err)
		}
	}
	return out, nil
}

// IntoAll is Into over every row.
func IntoAll[T any](rows []Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		t, err := Into[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// scalarRow reports whether row holds one value of struct type typ itself,
// such as a time.Time.
func scalarRow(row Row, typ reflect.Type) bool {
	return len(row) == 1 && row[0] != nil && reflect.TypeOf(row[0]).AssignableTo(typ)
}

func positionalFields(typ reflect.Type) [][]int {
	var out [][]int
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Tag.Get("db") == "-" {
			continue
		}
		out = append(out, field.Index)
	}
	return out
}

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

func isScanner(v reflect.Value) bool {
	return v.CanAddr() && v.Addr().Type().Implements(scannerType)
}

func assign(dst reflect.Value, value any) error {
	if value != nil && reflect.TypeOf(value).AssignableTo(dst.Type()) {
		dst.Set(reflect.ValueOf(value))
		return nil
	}
	if isScanner(dst) {
		return dst.Addr().Interface().(sql.Scanner).Scan(value)
	}

	if value == nil {
		switch dst.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return fmt.Errorf("NULL cannot be stored in %s", dst.Type())
	}

	src := reflect.ValueOf(value)
	if dst.Kind() == reflect.Pointer && src.Type() != dst.Type() {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch {
	case numeric(src.Kind()) && numeric(dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
	case src.Kind() == dst.Kind() && src.Type().ConvertibleTo(dst.Type()):
		// named types sharing an underlying type, e.g. type Email string
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot store %T in %s", value, dst.Type())
	}
	return nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

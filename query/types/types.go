// Package types defines the backend-independent logical types carried by
// columns and expressions, and the registry that maps them to each
// backend's wire and DDL representation.
package types

import "strings"

// Kind is the tag of a LogicalType.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindNumeric
	KindText
	KindBool
	KindTimestamp
	KindBytes
	KindUUID
	KindJSON
	// KindNull is the type of an untyped NULL literal.
	KindNull
	KindNullable
	KindArray
	KindCustom
)

var kindNames = [...]string{
	KindInvalid:   "Invalid",
	KindInteger:   "Integer",
	KindFloat:     "Float",
	KindNumeric:   "Numeric",
	KindText:      "Text",
	KindBool:      "Bool",
	KindTimestamp: "Timestamp",
	KindBytes:     "Bytes",
	KindUUID:      "UUID",
	KindJSON:      "JSON",
	KindNull:      "Null",
	KindNullable:  "Nullable",
	KindArray:     "Array",
	KindCustom:    "Custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// LogicalType is an immutable type tag. The zero value is invalid.
type LogicalType struct {
	kind Kind
	elem *LogicalType
	name string
}

func Integer() LogicalType   { return LogicalType{kind: KindInteger} }
func Float() LogicalType     { return LogicalType{kind: KindFloat} }
func Numeric() LogicalType   { return LogicalType{kind: KindNumeric} }
func Text() LogicalType      { return LogicalType{kind: KindText} }
func Bool() LogicalType      { return LogicalType{kind: KindBool} }
func Timestamp() LogicalType { return LogicalType{kind: KindTimestamp} }
func Bytes() LogicalType     { return LogicalType{kind: KindBytes} }
func UUID() LogicalType      { return LogicalType{kind: KindUUID} }
func JSON() LogicalType      { return LogicalType{kind: KindJSON} }

// Null is the type of a NULL literal with no declared type. It is
// compatible with every nullable type.
func Null() LogicalType { return LogicalType{kind: KindNull} }

// Nullable wraps t. Nullable(Nullable(T)) is Nullable(T).
func Nullable(t LogicalType) LogicalType {
	if t.kind == KindNullable || t.kind == KindNull {
		return t
	}
	e := t
	return LogicalType{kind: KindNullable, elem: &e}
}

// Array returns the type of a one-dimensional array of t.
func Array(t LogicalType) LogicalType {
	e := t
	return LogicalType{kind: KindArray, elem: &e}
}

// Custom returns a user-defined type resolved through Registry.Register.
func Custom(name string) LogicalType {
	return LogicalType{kind: KindCustom, name: name}
}

// NullableIf returns Nullable(t) when nullable is set and t otherwise.
func NullableIf(t LogicalType, nullable bool) LogicalType {
	if nullable {
		return Nullable(t)
	}
	return t
}

func (t LogicalType) Kind() Kind { return t.kind }

// Name returns the name of a custom type.
func (t LogicalType) Name() string { return t.name }

// Elem returns the wrapped type of Nullable and Array types.
func (t LogicalType) Elem() LogicalType {
	if t.elem == nil {
		return LogicalType{}
	}
	return *t.elem
}

func (t LogicalType) IsValid() bool { return t.kind != KindInvalid }

// IsNullable reports whether values of t may be NULL.
func (t LogicalType) IsNullable() bool {
	return t.kind == KindNullable || t.kind == KindNull
}

// Base strips one Nullable wrapper.
func (t LogicalType) Base() LogicalType {
	if t.kind == KindNullable {
		return *t.elem
	}
	return t
}

func (t LogicalType) IsNull() bool    { return t.kind == KindNull }
func (t LogicalType) IsBool() bool    { return t.Base().kind == KindBool }
func (t LogicalType) IsText() bool    { return t.Base().kind == KindText }
func (t LogicalType) IsArray() bool   { return t.Base().kind == KindArray }
func (t LogicalType) IsInteger() bool { return t.Base().kind == KindInteger }

// IsNumeric reports whether arithmetic is defined on t.
func (t LogicalType) IsNumeric() bool {
	switch t.Base().kind {
	case KindInteger, KindFloat, KindNumeric:
		return true
	}
	return false
}

// IsOrderable reports whether <, <=, >, >=, MIN and MAX are defined on t.
func (t LogicalType) IsOrderable() bool {
	switch t.Base().kind {
	case KindInteger, KindFloat, KindNumeric, KindText, KindTimestamp, KindUUID, KindNull:
		return true
	}
	return false
}

// Equal reports structural equality.
func (t LogicalType) Equal(o LogicalType) bool {
	if t.kind != o.kind || t.name != o.name {
		return false
	}
	if t.elem == nil || o.elem == nil {
		return t.elem == nil && o.elem == nil
	}
	return t.elem.Equal(*o.elem)
}

func (t LogicalType) String() string {
	switch t.kind {
	case KindNullable, KindArray:
		return t.kind.String() + "(" + t.elem.String() + ")"
	case KindCustom:
		return "Custom(" + t.name + ")"
	default:
		return t.kind.String()
	}
}

// Compatible reports whether a and b may be compared or combined: their
// non-nullable bases are equal, or one of them is the untyped Null.
func Compatible(a, b LogicalType) bool {
	if a.kind == KindNull || b.kind == KindNull {
		return true
	}
	return a.Base().Equal(b.Base())
}

// Assignable reports whether a value of type value may be stored in a column
// of type target. typeOK is false when the base types differ; nullOK is
// false when a nullable value targets a non-nullable column.
func Assignable(value, target LogicalType) (typeOK, nullOK bool) {
	typeOK = Compatible(value, target)
	nullOK = !value.IsNullable() || target.IsNullable()
	return typeOK, nullOK
}

// Join returns the names of ts separated by ", ".
func Join(ts ...LogicalType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

// Strings returns the names of ts.
func Strings(ts ...LogicalType) []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return names
}

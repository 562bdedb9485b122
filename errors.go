package typedsql

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for every failure category. Typed errors below match them
// through errors.Is.
var (
	// ErrTypeMismatch is returned when an operator is applied to operands of
	// incompatible logical types.
	ErrTypeMismatch = errors.New("typedsql: type mismatch")

	// ErrUnboundColumn is returned when a query references a column whose
	// table is neither the source nor one of its joins.
	ErrUnboundColumn = errors.New("typedsql: unbound column")

	// ErrNonBooleanCondition is returned when a filter, having or join
	// condition does not evaluate to Bool.
	ErrNonBooleanCondition = errors.New("typedsql: non-boolean condition")

	// ErrNullabilityMismatch is returned when a nullable value is assigned to
	// a non-nullable column.
	ErrNullabilityMismatch = errors.New("typedsql: nullability mismatch")

	// ErrUnsupportedOperation is returned when a backend cannot express a
	// construct used by the query.
	ErrUnsupportedOperation = errors.New("typedsql: unsupported operation")

	// ErrDecode is returned when a result row does not match the expected shape.
	ErrDecode = errors.New("typedsql: decode error")

	// ErrMigrationFailed is returned when applying or reverting a migration fails.
	ErrMigrationFailed = errors.New("typedsql: migration failed")

	// ErrInvalidQuery is returned for structural query errors not covered by a
	// more specific category (missing FROM, negative LIMIT, ...).
	ErrInvalidQuery = errors.New("typedsql: invalid query")
)

// TypeMismatchError describes an operator applied to incompatible operands.
type TypeMismatchError struct {
	Op       string
	Expected string
	Actual   []string
}

func (e *TypeMismatchError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("typedsql: type mismatch in %s: expected %s, got %s",
			e.Op, e.Expected, strings.Join(e.Actual, ", "))
	}
	return fmt.Sprintf("typedsql: type mismatch in %s: incompatible operands %s",
		e.Op, strings.Join(e.Actual, ", "))
}

// Is reports whether target is ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// UnboundColumnError names a column that is not reachable from the query.
type UnboundColumnError struct {
	Table  string
	Column string
	Clause string
}

func (e *UnboundColumnError) Error() string {
	return fmt.Sprintf("typedsql: column %s.%s in %s is not bound to the query source or its joins",
		e.Table, e.Column, e.Clause)
}

// Is reports whether target is ErrUnboundColumn.
func (e *UnboundColumnError) Is(target error) bool { return target == ErrUnboundColumn }

// NonBooleanConditionError describes a condition of the wrong type.
type NonBooleanConditionError struct {
	Clause string
	Actual string
}

func (e *NonBooleanConditionError) Error() string {
	return fmt.Sprintf("typedsql: %s condition must be Bool, got %s", e.Clause, e.Actual)
}

// Is reports whether target is ErrNonBooleanCondition.
func (e *NonBooleanConditionError) Is(target error) bool { return target == ErrNonBooleanCondition }

// NullabilityMismatchError describes a nullable value assigned to a
// non-nullable column.
type NullabilityMismatchError struct {
	Table  string
	Column string
	Actual string
}

func (e *NullabilityMismatchError) Error() string {
	return fmt.Sprintf("typedsql: cannot assign %s to non-nullable column %s.%s",
		e.Actual, e.Table, e.Column)
}

// Is reports whether target is ErrNullabilityMismatch.
func (e *NullabilityMismatchError) Is(target error) bool { return target == ErrNullabilityMismatch }

// UnsupportedOperationError names a construct a backend cannot render.
type UnsupportedOperationError struct {
	Dialect   string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("typedsql: %s is not supported by %s", e.Operation, e.Dialect)
}

// Is reports whether target is ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// DecodeError describes a result cell that cannot be decoded into the
// expected logical type. Position is zero-based.
type DecodeError struct {
	Position int
	Expected string
	Actual   string
	Cause    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("typedsql: decode column %d: expected %s, got %s", e.Position, e.Expected, e.Actual)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Unwrap returns the underlying conversion error, if any.
func (e *DecodeError) Unwrap() error { return e.Cause }

// MigrationError reports the migration that failed and why. The ledger is
// left exactly as it was before the failing migration started.
type MigrationError struct {
	Version   string
	Name      string
	Direction string
	Cause     error
}

func (e *MigrationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("typedsql: migration %s (%s) %s failed: %v", e.Version, e.Name, e.Direction, e.Cause)
	}
	return fmt.Sprintf("typedsql: migration %s %s failed: %v", e.Version, e.Direction, e.Cause)
}

// Is reports whether target is ErrMigrationFailed.
func (e *MigrationError) Is(target error) bool { return target == ErrMigrationFailed }

// Unwrap returns the underlying execution error.
func (e *MigrationError) Unwrap() error { return e.Cause }

// InvalidQueryError describes a structural problem with a query.
type InvalidQueryError struct {
	Clause  string
	Message string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("typedsql: invalid %s: %s", e.Clause, e.Message)
}

// Is reports whether target is ErrInvalidQuery.
func (e *InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }

// IsTypeMismatch reports whether err is a type mismatch.
func IsTypeMismatch(err error) bool { return errors.Is(err, ErrTypeMismatch) }

// IsUnboundColumn reports whether err is an unbound column error.
func IsUnboundColumn(err error) bool { return errors.Is(err, ErrUnboundColumn) }

// IsNonBooleanCondition reports whether err is a non-boolean condition error.
func IsNonBooleanCondition(err error) bool { return errors.Is(err, ErrNonBooleanCondition) }

// IsNullabilityMismatch reports whether err is a nullability mismatch.
func IsNullabilityMismatch(err error) bool { return errors.Is(err, ErrNullabilityMismatch) }

// IsUnsupportedOperation reports whether err is an unsupported operation error.
func IsUnsupportedOperation(err error) bool { return errors.Is(err, ErrUnsupportedOperation) }

// IsDecode reports whether err is a decode error.
func IsDecode(err error) bool { return errors.Is(err, ErrDecode) }

// IsMigrationFailed reports whether err is a migration failure.
func IsMigrationFailed(err error) bool { return errors.Is(err, ErrMigrationFailed) }

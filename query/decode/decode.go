// Package decode converts raw result rows into the row shape a query
// promises. Decoding is positional: the n-th cell is decoded as the n-th
// result type, and column names are never consulted.
package decode

import (
	"fmt"

	"github.com/satishbabariya/typedsql"
	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/query/builder"
	"github.com/satishbabariya/typedsql/query/types"
)

// Row is one decoded row. Each value is the canonical Go representation of
// its logical type, or nil for NULL.
type Row []any

// Decoder decodes rows of one statically known shape. It holds no mutable
// state and is safe for concurrent use.
type Decoder struct {
	reg      *types.Registry
	dialect  dialect.Name
	expected []types.LogicalType
}

// New creates a decoder for rows of the expected types read from backend d.
// A nil registry uses types.Default().
func New(reg *types.Registry, d dialect.Dialect, expected []types.LogicalType) *Decoder {
	if reg == nil {
		reg = types.Default()
	}
	return &Decoder{
		reg:      reg,
		dialect:  d.Name(),
		expected: append([]types.LogicalType(nil), expected...),
	}
}

// ForSelect creates a decoder for the rows of q.
func ForSelect(reg *types.Registry, d dialect.Dialect, q builder.Query) *Decoder {
	return New(reg, d, q.ResultTypes())
}

// Types returns the expected row shape.
func (d *Decoder) Types() []types.LogicalType {
	return append([]types.LogicalType(nil), d.expected...)
}

// Decode decodes one row. The first position that does not fit its type
// fails the whole row with a *typedsql.DecodeError.
func (d *Decoder) Decode(cells []types.Cell) (Row, error) {
	if len(cells) != len(d.expected) {
		return nil, &typedsql.DecodeError{
			Position: min(len(cells), len(d.expected)),
			Expected: fmt.Sprintf("%d columns", len(d.expected)),
			Actual:   fmt.Sprintf("%d columns", len(cells)),
		}
	}
	row := make(Row, len(cells))
	for i, c := range cells {
		v, err := d.reg.Decode(d.dialect, d.expected[i], c)
		if err != nil {
			return nil, &typedsql.DecodeError{
				Position: i,
				Expected: d.expected[i].String(),
				Actual:   describe(c),
				Cause:    err,
			}
		}
		row[i] = v
	}
	return row, nil
}

// DecodeAll decodes rows in order, stopping at the first failure.
func (d *Decoder) DecodeAll(rows [][]types.Cell) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for n, cells := range rows {
		row, err := d.Decode(cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func describe(c types.Cell) string {
	switch {
	case c.Value == nil:
		return "NULL"
	case c.Tag != "":
		return c.Tag
	default:
		return fmt.Sprintf("%T", c.Value)
	}
}

package frame

import (
	"fmt"
	"sort"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

// Kind enumerates the supported column value types.
type Kind int

const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindBool
)

// String returns the dtype label used in profiles, reports, and validation.
func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// KindFromLabel resolves a dtype label back to a Kind.
func KindFromLabel(label string) (Kind, bool) {
	switch label {
	case "string":
		return KindString, true
	case "int64":
		return KindInt64, true
	case "float64":
		return KindFloat64, true
	case "bool":
		return KindBool, true
	default:
		return KindString, false
	}
}

// Column is a typed value vector with an explicit null mask. Only the slice
// matching Kind is populated.
type Column struct {
	Name    string
	Kind    Kind
	Ints    []int64
	Floats  []float64
	Strings []string
	Bools   []bool
	Valid   []bool
}

// NewIntColumn builds a fully-valid int64 column.
func NewIntColumn(name string, values []int64) *Column {
	return &Column{Name: name, Kind: KindInt64, Ints: values, Valid: allValid(len(values))}
}

// NewFloatColumn builds a fully-valid float64 column.
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: KindFloat64, Floats: values, Valid: allValid(len(values))}
}

// NewStringColumn builds a fully-valid string column.
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: KindString, Strings: values, Valid: allValid(len(values))}
}

// NewBoolColumn builds a fully-valid bool column.
func NewBoolColumn(name string, values []bool) *Column {
	return &Column{Name: name, Kind: KindBool, Bools: values, Valid: allValid(len(values))}
}

// NewEmptyColumn builds a column of the given kind with capacity for appends.
func NewEmptyColumn(name string, kind Kind) *Column {
	return &Column{Name: name, Kind: kind}
}

func allValid(n int) []bool {
	valid := make([]bool, n)
	for i := range valid {
		valid[i] = true
	}
	return valid
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	return len(c.Valid)
}

// IsNull reports whether row i holds a null.
func (c *Column) IsNull(i int) bool {
	return !c.Valid[i]
}

// SetNull marks row i as null.
func (c *Column) SetNull(i int) {
	c.Valid[i] = false
}

// NullCount returns the number of null rows.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Value returns the value at row i, or nil for a null.
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.Kind {
	case KindInt64:
		return c.Ints[i]
	case KindFloat64:
		return c.Floats[i]
	case KindBool:
		return c.Bools[i]
	default:
		return c.Strings[i]
	}
}

// AppendNull appends a null row.
func (c *Column) AppendNull() {
	switch c.Kind {
	case KindInt64:
		c.Ints = append(c.Ints, 0)
	case KindFloat64:
		c.Floats = append(c.Floats, 0)
	case KindBool:
		c.Bools = append(c.Bools, false)
	default:
		c.Strings = append(c.Strings, "")
	}
	c.Valid = append(c.Valid, false)
}

// AppendInt appends an int64 value. The column kind must match.
func (c *Column) AppendInt(v int64) {
	c.Ints = append(c.Ints, v)
	c.Valid = append(c.Valid, true)
}

// AppendFloat appends a float64 value.
func (c *Column) AppendFloat(v float64) {
	c.Floats = append(c.Floats, v)
	c.Valid = append(c.Valid, true)
}

// AppendString appends a string value.
func (c *Column) AppendString(v string) {
	c.Strings = append(c.Strings, v)
	c.Valid = append(c.Valid, true)
}

// AppendBool appends a bool value.
func (c *Column) AppendBool(v bool) {
	c.Bools = append(c.Bools, v)
	c.Valid = append(c.Valid, true)
}

// ToFloat converts an int64 column to float64 in place, preserving the null
// mask. Missingness injection on integer data goes through this path so
// nulls live in a numeric column, not an integer one.
func (c *Column) ToFloat() {
	if c.Kind != KindInt64 {
		return
	}
	floats := make([]float64, len(c.Ints))
	for i, v := range c.Ints {
		floats[i] = float64(v)
	}
	c.Kind = KindFloat64
	c.Floats = floats
	c.Ints = nil
}

// IsNumeric reports whether the column holds numeric values.
func (c *Column) IsNumeric() bool {
	return c.Kind == KindInt64 || c.Kind == KindFloat64
}

// Frame is an ordered collection of equal-length columns.
type Frame struct {
	cols   []*Column
	byName map[string]*Column
}

// New builds a frame from columns, preserving their order. Column lengths
// must agree and names must be unique.
func New(cols []*Column) (*Frame, error) {
	f := &Frame{byName: make(map[string]*Column, len(cols))}
	rows := -1
	for _, c := range cols {
		if _, dup := f.byName[c.Name]; dup {
			return nil, errors.NewConsistencyError(errors.CodeSchemaMismatch,
				fmt.Sprintf("duplicate column name: %s", c.Name))
		}
		if rows >= 0 && c.Len() != rows {
			return nil, errors.NewConsistencyError(errors.CodeSchemaMismatch,
				fmt.Sprintf("column '%s' has %d rows, expected %d", c.Name, c.Len(), rows))
		}
		rows = c.Len()
		f.cols = append(f.cols, c)
		f.byName[c.Name] = c
	}
	return f, nil
}

// NumRows returns the row count.
func (f *Frame) NumRows() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// NumCols returns the column count.
func (f *Frame) NumCols() int {
	return len(f.cols)
}

// Columns returns the columns in frame order.
func (f *Frame) Columns() []*Column {
	return f.cols
}

// Column returns the named column, or nil.
func (f *Frame) Column(name string) *Column {
	return f.byName[name]
}

// Names returns the column names in frame order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// SortedNames returns the column names sorted lexicographically.
func (f *Frame) SortedNames() []string {
	names := f.Names()
	sort.Strings(names)
	return names
}

// SortColumns returns a frame with the same columns reordered
// lexicographically by name. Row order is preserved; columns are shared,
// not copied.
func (f *Frame) SortColumns() *Frame {
	cols := make([]*Column, len(f.cols))
	copy(cols, f.cols)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	sorted, _ := New(cols)
	return sorted
}

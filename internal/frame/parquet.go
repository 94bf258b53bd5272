package frame

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

const parquetWriteBatch = 256

func parquetNode(kind Kind) parquet.Node {
	switch kind {
	case KindInt64:
		return parquet.Optional(parquet.Int(64))
	case KindFloat64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case KindBool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// parquetSchema builds the file schema. Group fields serialize in
// lexicographic order; logical column order is owned by the frame.
func parquetSchema(f *Frame) *parquet.Schema {
	group := parquet.Group{}
	for _, c := range f.Columns() {
		group[c.Name] = parquetNode(c.Kind)
	}
	return parquet.NewSchema("data", group)
}

// encodeParquet writes the frame to w in parquet encoding.
func encodeParquet(w io.Writer, f *Frame) error {
	schema := parquetSchema(f)

	// Leaf index per column name, in the file's physical column order.
	colIndex := make(map[string]int, f.NumCols())
	for i, path := range schema.Columns() {
		colIndex[path[0]] = i
	}

	pw := parquet.NewGenericWriter[any](w, schema)
	batch := make([]parquet.Row, 0, parquetWriteBatch)
	for i := 0; i < f.NumRows(); i++ {
		row := make(parquet.Row, f.NumCols())
		for _, c := range f.Columns() {
			ci := colIndex[c.Name]
			row[ci] = parquetValue(c, i).Level(0, definitionLevel(c, i), ci)
		}
		batch = append(batch, row)
		if len(batch) == parquetWriteBatch {
			if _, err := pw.WriteRows(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if _, err := pw.WriteRows(batch); err != nil {
			return err
		}
	}
	return pw.Close()
}

func definitionLevel(c *Column, i int) int {
	if c.IsNull(i) {
		return 0
	}
	return 1
}

func parquetValue(c *Column, i int) parquet.Value {
	if c.IsNull(i) {
		return parquet.ValueOf(nil)
	}
	switch c.Kind {
	case KindInt64:
		return parquet.Int64Value(c.Ints[i])
	case KindFloat64:
		return parquet.DoubleValue(c.Floats[i])
	case KindBool:
		return parquet.BooleanValue(c.Bools[i])
	default:
		return parquet.ByteArrayValue([]byte(c.Strings[i]))
	}
}

// ReadParquet decodes a parquet file into a frame. Columns come back in the
// file's physical (lexicographic) order.
func ReadParquet(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open %s", path))
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to stat %s", path))
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
			fmt.Sprintf("failed to parse %s", path))
	}

	schema := pf.Schema()
	fields := schema.Fields()
	cols := make([]*Column, len(fields))
	for i, field := range fields {
		kind, err := kindFromParquet(field.Type().Kind())
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
				fmt.Sprintf("unsupported column '%s' in %s", field.Name(), path))
		}
		cols[i] = NewEmptyColumn(field.Name(), kind)
	}

	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, cols); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
				fmt.Sprintf("failed to read %s", path))
		}
	}
	return New(cols)
}

func readRowGroup(rg parquet.RowGroup, cols []*Column) error {
	rows := rg.Rows()
	defer rows.Close()

	buf := make([]parquet.Row, 256)
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			for _, v := range row {
				if err := appendParquetValue(cols[v.Column()], v); err != nil {
					return err
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func kindFromParquet(k parquet.Kind) (Kind, error) {
	switch k {
	case parquet.Boolean:
		return KindBool, nil
	case parquet.Int32, parquet.Int64:
		return KindInt64, nil
	case parquet.Float, parquet.Double:
		return KindFloat64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return KindString, nil
	default:
		return KindString, fmt.Errorf("unsupported parquet kind %s", k)
	}
}

func appendParquetValue(col *Column, v parquet.Value) error {
	if v.IsNull() {
		col.AppendNull()
		return nil
	}
	switch col.Kind {
	case KindInt64:
		switch v.Kind() {
		case parquet.Int32:
			col.AppendInt(int64(v.Int32()))
		case parquet.Int64:
			col.AppendInt(v.Int64())
		default:
			return fmt.Errorf("value kind %s in int64 column '%s'", v.Kind(), col.Name)
		}
	case KindFloat64:
		switch v.Kind() {
		case parquet.Float:
			col.AppendFloat(float64(v.Float()))
		case parquet.Double:
			col.AppendFloat(v.Double())
		default:
			return fmt.Errorf("value kind %s in float64 column '%s'", v.Kind(), col.Name)
		}
	case KindBool:
		col.AppendBool(v.Boolean())
	default:
		col.AppendString(string(v.ByteArray()))
	}
	return nil
}

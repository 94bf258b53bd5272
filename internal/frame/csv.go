package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
)

// typesSidecarSuffix names the pinned dtype annotation written next to the
// CSV fallback. Text-encoded data does not carry types, so the annotation is
// what keeps a CSV round-trip from depending on inference.
const typesSidecarSuffix = ".types.json"

// encodeCSV writes the frame as delimited text with a header row. Nulls are
// encoded as empty cells.
func encodeCSV(w io.Writer, f *Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return err
	}
	record := make([]string, f.NumCols())
	for i := 0; i < f.NumRows(); i++ {
		for j, c := range f.Columns() {
			record[j] = formatCell(c, i)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(c *Column, i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Kind {
	case KindInt64:
		return strconv.FormatInt(c.Ints[i], 10)
	case KindFloat64:
		return strconv.FormatFloat(c.Floats[i], 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(c.Bools[i])
	default:
		return c.Strings[i]
	}
}

// writeTypesSidecar pins the column dtypes alongside a CSV file.
func writeTypesSidecar(csvPath string, f *Frame) error {
	types := make(map[string]string, f.NumCols())
	for _, c := range f.Columns() {
		types[c.Name] = c.Kind.String()
	}
	return jsonio.Write(csvPath+typesSidecarSuffix, types)
}

// ReadCSV decodes a CSV file into a frame. Column types come from the
// sidecar annotation when present; otherwise they are inferred from the
// cell values (legacy fallback).
func ReadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to open %s", path))
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
			fmt.Sprintf("failed to parse %s", path))
	}
	if len(records) == 0 {
		return nil, errors.NewIOError(errors.CodeParseFailed,
			fmt.Sprintf("%s has no header row", path))
	}
	header := records[0]
	rows := records[1:]

	kinds := make([]Kind, len(header))
	if sidecar, err := readTypesSidecar(path); err == nil && sidecar != nil {
		for j, name := range header {
			kind, ok := KindFromLabel(sidecar[name])
			if !ok {
				kind = inferKind(rows, j)
			}
			kinds[j] = kind
		}
	} else {
		for j := range header {
			kinds[j] = inferKind(rows, j)
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		col := NewEmptyColumn(name, kinds[j])
		for _, record := range rows {
			if err := appendCell(col, record[j]); err != nil {
				return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
					fmt.Sprintf("failed to parse %s column '%s'", path, name))
			}
		}
		cols[j] = col
	}
	return New(cols)
}

func readTypesSidecar(csvPath string) (map[string]string, error) {
	sidecarPath := csvPath + typesSidecarSuffix
	if _, err := os.Stat(sidecarPath); err != nil {
		return nil, err
	}
	var types map[string]string
	if err := jsonio.Read(sidecarPath, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// inferKind picks the narrowest type every non-empty cell in the column
// parses as: int64, then float64, then bool, then string.
func inferKind(rows [][]string, j int) Kind {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, record := range rows {
		cell := record[j]
		if cell == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if cell != "true" && cell != "false" {
				isBool = false
			}
		}
	}
	if !seen {
		return KindString
	}
	switch {
	case isInt:
		return KindInt64
	case isFloat:
		return KindFloat64
	case isBool:
		return KindBool
	default:
		return KindString
	}
}

func appendCell(col *Column, cell string) error {
	if cell == "" {
		col.AppendNull()
		return nil
	}
	switch col.Kind {
	case KindInt64:
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return err
		}
		col.AppendInt(v)
	case KindFloat64:
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		col.AppendFloat(v)
	case KindBool:
		v, err := strconv.ParseBool(cell)
		if err != nil {
			return err
		}
		col.AppendBool(v)
	default:
		col.AppendString(cell)
	}
	return nil
}

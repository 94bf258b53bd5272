package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// dtypeWhitelists maps each declared schema type to the stored dtype labels
// it accepts. Declared booleans additionally accept integer-coded labels;
// datetimes are stored as strings and checked by parsing.
var dtypeWhitelists = map[string][]string{
	"string":   {"string"},
	"float":    {"float64"},
	"integer":  {"int64"},
	"boolean":  {"bool", "int64"},
	"datetime": {"string"},
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Validate strictly checks the run's data file against the resolved schema:
// exact column-set equality, per-type dtype whitelist, nullability, and
// numeric range constraints. A passing run writes validation_report.json;
// any violation raises before a report is written.
func Validate(runDir string, cfg *config.Resolved) error {
	dataPath, err := frame.Locate(runDir)
	if err != nil {
		return err
	}
	f, err := frame.Read(dataPath)
	if err != nil {
		return err
	}

	if err := checkColumnSet(f, cfg.Columns); err != nil {
		return err
	}

	sortedCols := make([]string, len(cfg.Columns))
	copy(sortedCols, cfg.Columns)
	sort.Strings(sortedCols)

	for _, name := range sortedCols {
		def := cfg.Defs[name]
		col := f.Column(name)

		if def.Type != "" {
			if err := checkColumnType(col, def.Type); err != nil {
				return err
			}
		}
		if def.Nullable != nil && !*def.Nullable && col.NullCount() > 0 {
			return errors.NewConsistencyError(errors.CodeNullViolation,
				fmt.Sprintf("column '%s' is not nullable but contains nulls", name))
		}
		if def.Type == "float" || def.Type == "integer" {
			if err := checkRange(col, def); err != nil {
				return err
			}
		}
	}

	report := models.ValidationReport{
		Status:      "pass",
		RowCount:    f.NumRows(),
		ColumnCount: f.NumCols(),
	}
	return jsonio.WriteAtomic(filepath.Join(runDir, models.ValidationReportFile), &report)
}

// checkColumnSet enforces exact equality between the data's columns and the
// schema's columns, naming both the missing and the extra columns.
func checkColumnSet(f *frame.Frame, schemaCols []string) error {
	schemaSet := make(map[string]struct{}, len(schemaCols))
	for _, name := range schemaCols {
		schemaSet[name] = struct{}{}
	}
	dataSet := make(map[string]struct{}, f.NumCols())
	for _, name := range f.Names() {
		dataSet[name] = struct{}{}
	}

	var missing, extra []string
	for name := range schemaSet {
		if _, ok := dataSet[name]; !ok {
			missing = append(missing, name)
		}
	}
	for name := range dataSet {
		if _, ok := schemaSet[name]; !ok {
			extra = append(extra, name)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)

	msg := "schema column mismatch:"
	if len(missing) > 0 {
		msg += fmt.Sprintf(" missing columns: %v;", missing)
	}
	if len(extra) > 0 {
		msg += fmt.Sprintf(" extra columns: %v;", extra)
	}
	return errors.NewConsistencyError(errors.CodeSchemaMismatch, msg)
}

func checkColumnType(col *frame.Column, declaredType string) error {
	whitelist, ok := dtypeWhitelists[declaredType]
	if !ok {
		return errors.NewConsistencyError(errors.CodeUnsupportedType,
			fmt.Sprintf("column '%s' type '%s' is not a supported schema type", col.Name, declaredType))
	}

	actual := col.Kind.String()
	if declaredType == "datetime" {
		// Accept any stored value that parses as a timestamp.
		if !containsLabel(whitelist, actual) {
			return errors.NewConsistencyError(errors.CodeTypeMismatch,
				fmt.Sprintf("column '%s' type mismatch: expected datetime, got %s", col.Name, actual))
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				continue
			}
			if !parsesAsTimestamp(col.Strings[i]) {
				return errors.NewConsistencyError(errors.CodeTypeMismatch,
					fmt.Sprintf("column '%s' type mismatch: expected datetime, value '%s' is not parseable",
						col.Name, col.Strings[i]))
			}
		}
		return nil
	}

	if !containsLabel(whitelist, actual) {
		return errors.NewConsistencyError(errors.CodeTypeMismatch,
			fmt.Sprintf("column '%s' type mismatch: expected %s, got %s", col.Name, declaredType, actual))
	}
	return nil
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func parsesAsTimestamp(value string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// checkRange enforces declared min/max over non-null values.
func checkRange(col *frame.Column, def config.ColumnDef) error {
	if def.Min == nil && def.Max == nil {
		return nil
	}
	for _, v := range col.NumericValues() {
		if def.Min != nil && v < *def.Min {
			return errors.NewConsistencyError(errors.CodeRangeViolation,
				fmt.Sprintf("column '%s' violates min constraint: %v", col.Name, *def.Min))
		}
		if def.Max != nil && v > *def.Max {
			return errors.NewConsistencyError(errors.CodeRangeViolation,
				fmt.Sprintf("column '%s' violates max constraint: %v", col.Name, *def.Max))
		}
	}
	return nil
}

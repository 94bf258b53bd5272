package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
	"github.com/syntheticlab/dataforge/tests/helpers"
)

func writeRunData(t *testing.T, runDir string, cols []*frame.Column) {
	t.Helper()
	f, err := frame.New(cols)
	require.NoError(t, err)
	_, err = frame.WriteData(runDir, f)
	require.NoError(t, err)
}

func TestValidatePass(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := generateRun(t, env, "finance_transactions", "2025-01-01T00-00-00Z", 100, 0.05)
	_, cfg := helpers.ResolveFinance(t, 100, 0.05)

	require.NoError(t, Validate(runDir, cfg))

	var report models.ValidationReport
	require.NoError(t, jsonio.Read(filepath.Join(runDir, models.ValidationReportFile), &report))
	assert.Equal(t, "pass", report.Status)
	assert.Equal(t, 100, report.RowCount)
	assert.Equal(t, 6, report.ColumnCount)
}

func TestValidateExtraColumn(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewIntColumn("a", []int64{1, 2}),
		frame.NewIntColumn("extra", []int64{1, 2}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml":   map[string]interface{}{"row_count": 2},
		"schema.yaml":    map[string]interface{}{"columns": map[string]interface{}{"a": map[string]interface{}{"type": "integer"}}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConsistency))
	assert.Contains(t, err.Error(), "extra columns: [extra]")
	// A failing run never produces a report.
	assert.NoFileExists(t, filepath.Join(runDir, models.ValidationReportFile))
}

func TestValidateMissingColumn(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewIntColumn("a", []int64{1}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml": map[string]interface{}{"row_count": 1},
		"schema.yaml": map[string]interface{}{"columns": map[string]interface{}{
			"a": map[string]interface{}{"type": "integer"},
			"b": map[string]interface{}{"type": "string"},
		}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns: [b]")
}

func TestValidateTypeMismatch(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewStringColumn("a", []string{"x"}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml":   map[string]interface{}{"row_count": 1},
		"schema.yaml":    map[string]interface{}{"columns": map[string]interface{}{"a": map[string]interface{}{"type": "integer"}}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")
}

func TestValidateBooleanAcceptsIntegerCoding(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewIntColumn("flag", []int64{0, 1, 0}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml":   map[string]interface{}{"row_count": 3},
		"schema.yaml":    map[string]interface{}{"columns": map[string]interface{}{"flag": map[string]interface{}{"type": "boolean"}}},
		"evolution.yaml": map[string]interface{}{},
	})

	require.NoError(t, Validate(runDir, cfg))
}

func TestValidateUnsupportedType(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewStringColumn("a", []string{"x"}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml":   map[string]interface{}{"row_count": 1},
		"schema.yaml":    map[string]interface{}{"columns": map[string]interface{}{"a": map[string]interface{}{"type": "decimal"}}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a supported schema type")
}

func TestValidateNullability(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	col := frame.NewFloatColumn("x", []float64{1.0, 2.0})
	col.SetNull(1)
	writeRunData(t, runDir, []*frame.Column{col})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml": map[string]interface{}{"row_count": 2},
		"schema.yaml": map[string]interface{}{"columns": map[string]interface{}{
			"x": map[string]interface{}{"type": "float", "nullable": false},
		}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not nullable")

	// Declared nullable, the same data passes.
	cfg = resolveDocs(t, map[string]interface{}{
		"dataset.yaml": map[string]interface{}{"row_count": 2},
		"schema.yaml": map[string]interface{}{"columns": map[string]interface{}{
			"x": map[string]interface{}{"type": "float", "nullable": true},
		}},
		"evolution.yaml": map[string]interface{}{},
	})
	require.NoError(t, Validate(runDir, cfg))
}

func TestValidateRangeViolation(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewFloatColumn("x", []float64{5.0, 1500.0}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml": map[string]interface{}{"row_count": 2},
		"schema.yaml": map[string]interface{}{"columns": map[string]interface{}{
			"x": map[string]interface{}{
				"type":        "float",
				"constraints": map[string]interface{}{"min": 0.0, "max": 1000.0},
			},
		}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max constraint")
}

func TestValidateDatetimeParsing(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewStringColumn("ts", []string{"2025-01-01T00:00:00Z", "not-a-date"}),
	})

	cfg := resolveDocs(t, map[string]interface{}{
		"dataset.yaml":   map[string]interface{}{"row_count": 2},
		"schema.yaml":    map[string]interface{}{"columns": map[string]interface{}{"ts": map[string]interface{}{"type": "datetime"}}},
		"evolution.yaml": map[string]interface{}{},
	})

	err := Validate(runDir, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-date")
}

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
	"github.com/syntheticlab/dataforge/tests/helpers"
)

func TestEvaluateWithoutPrior(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v1")
	amount := frame.NewFloatColumn("amount", []float64{10.0, 20.0, 30.0})
	amount.SetNull(2)
	writeRunData(t, runDir, []*frame.Column{
		amount,
		frame.NewStringColumn("label", []string{"a", "b", "a"}),
	})

	require.NoError(t, Evaluate(runDir))

	var report models.EvaluationReport
	require.NoError(t, jsonio.Read(filepath.Join(runDir, models.EvaluationReportFile), &report))

	assert.Equal(t, 3, report.RowCount)
	assert.Equal(t, 2, report.ColumnCount)
	assert.Nil(t, report.DatasetDrift.RowCountDrift)
	assert.Nil(t, report.DatasetDrift.ColumnCountDrift)

	q := report.Quality["amount"]
	assert.InDelta(t, 0.333333, q.MissingRatio, 1e-9)
	assert.Equal(t, 2, q.Cardinality)
	require.NotNil(t, q.Stats.Mean)
	assert.Equal(t, 15.0, *q.Stats.Mean)

	// Quality is populated, drift is explicitly absent.
	d := report.Drift["amount"]
	assert.Nil(t, d.MeanDrift)
	assert.Nil(t, d.MissingRatioDrift)
	assert.Nil(t, d.CardinalityDrift)

	// Non-numeric columns carry null stats, not zeros.
	assert.Nil(t, report.Quality["label"].Stats.Mean)
}

func TestEvaluateWithPrior(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v2")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewFloatColumn("amount", []float64{20.0, 40.0}),
	})

	priorMean := 25.0
	priorMin := 10.0
	priorMax := 40.0
	prior := models.Profile{
		SourceVersion: "v1",
		RowCount:      3,
		ColumnCount:   2,
		Columns: map[string]models.ColumnProfile{
			"amount": {
				DType:        "float64",
				MissingRatio: 0.25,
				Cardinality:  3,
				Stats:        models.ColumnStats{Mean: &priorMean, Min: &priorMin, Max: &priorMax},
			},
		},
	}
	require.NoError(t, jsonio.Write(filepath.Join(runDir, models.PriorProfileFile), &prior))

	require.NoError(t, Evaluate(runDir))

	var report models.EvaluationReport
	require.NoError(t, jsonio.Read(filepath.Join(runDir, models.EvaluationReportFile), &report))

	require.NotNil(t, report.DatasetDrift.RowCountDrift)
	assert.Equal(t, 1, *report.DatasetDrift.RowCountDrift)
	require.NotNil(t, report.DatasetDrift.ColumnCountDrift)
	assert.Equal(t, 1, *report.DatasetDrift.ColumnCountDrift)

	d := report.Drift["amount"]
	require.NotNil(t, d.MeanDrift)
	assert.Equal(t, 5.0, *d.MeanDrift)
	require.NotNil(t, d.MinDrift)
	assert.Equal(t, 10.0, *d.MinDrift)
	require.NotNil(t, d.MaxDrift)
	assert.Equal(t, 0.0, *d.MaxDrift)
	// Prior had no std, so std drift stays null even with a current value.
	assert.Nil(t, d.StdDrift)
	require.NotNil(t, d.MissingRatioDrift)
	assert.Equal(t, 0.25, *d.MissingRatioDrift)
	require.NotNil(t, d.CardinalityDrift)
	assert.Equal(t, 1, *d.CardinalityDrift)
}

func TestEvaluateColumnAbsentFromPrior(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	runDir := env.RunDir("d", "v2")
	writeRunData(t, runDir, []*frame.Column{
		frame.NewFloatColumn("brand_new", []float64{1.0}),
	})

	prior := models.Profile{
		SourceVersion: "v1",
		RowCount:      1,
		ColumnCount:   1,
		Columns:       map[string]models.ColumnProfile{},
	}
	require.NoError(t, jsonio.Write(filepath.Join(runDir, models.PriorProfileFile), &prior))

	require.NoError(t, Evaluate(runDir))

	var report models.EvaluationReport
	require.NoError(t, jsonio.Read(filepath.Join(runDir, models.EvaluationReportFile), &report))
	d := report.Drift["brand_new"]
	assert.Nil(t, d.MeanDrift)
	assert.Nil(t, d.MissingRatioDrift)
	assert.Nil(t, d.CardinalityDrift)
}

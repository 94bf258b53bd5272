package pipeline

import (
	"math"
	"os"
	"path/filepath"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// Evaluate recomputes the per-column statistics over the current run's data
// and, when a prior profile is present in the run directory, computes
// absolute-difference drift per statistic and per column plus dataset-level
// row/column-count drift. No thresholds, no verdict; drift fields are
// explicitly null when the prior side is absent.
func Evaluate(runDir string) error {
	dataPath, err := frame.Locate(runDir)
	if err != nil {
		return err
	}
	f, err := frame.Read(dataPath)
	if err != nil {
		return err
	}

	var prior *models.Profile
	priorPath := filepath.Join(runDir, models.PriorProfileFile)
	if info, err := os.Stat(priorPath); err == nil && info.Mode().IsRegular() {
		var p models.Profile
		if err := jsonio.Read(priorPath, &p); err != nil {
			return err
		}
		prior = &p
	}

	quality := make(map[string]models.ColumnQuality, f.NumCols())
	drift := make(map[string]models.ColumnDrift, f.NumCols())
	for _, name := range f.SortedNames() {
		col := f.Column(name)
		q := models.ColumnQuality{
			MissingRatio: col.MissingRatio(),
			Cardinality:  col.Cardinality(),
			Stats:        col.Stats(),
		}
		quality[name] = q
		drift[name] = columnDrift(q, prior, name)
	}

	report := models.EvaluationReport{
		RowCount:     f.NumRows(),
		ColumnCount:  f.NumCols(),
		DatasetDrift: datasetDrift(f, prior),
		Quality:      quality,
		Drift:        drift,
	}
	return jsonio.WriteAtomic(filepath.Join(runDir, models.EvaluationReportFile), &report)
}

// columnDrift returns all-null drift when there is no prior profile or the
// column is absent from it.
func columnDrift(q models.ColumnQuality, prior *models.Profile, name string) models.ColumnDrift {
	if prior == nil {
		return models.ColumnDrift{}
	}
	pc, ok := prior.Columns[name]
	if !ok {
		return models.ColumnDrift{}
	}

	missDrift := frame.Round6(math.Abs(q.MissingRatio - pc.MissingRatio))
	cardDrift := absInt(q.Cardinality - pc.Cardinality)
	return models.ColumnDrift{
		MeanDrift:         statDrift(q.Stats.Mean, pc.Stats.Mean),
		StdDrift:          statDrift(q.Stats.Std, pc.Stats.Std),
		MinDrift:          statDrift(q.Stats.Min, pc.Stats.Min),
		MaxDrift:          statDrift(q.Stats.Max, pc.Stats.Max),
		MissingRatioDrift: &missDrift,
		CardinalityDrift:  &cardDrift,
	}
}

// statDrift computes an absolute difference only when both sides are
// present; otherwise null.
func statDrift(current, prior *float64) *float64 {
	if current == nil || prior == nil {
		return nil
	}
	d := frame.Round6(math.Abs(*current - *prior))
	return &d
}

func datasetDrift(f *frame.Frame, prior *models.Profile) models.DatasetDrift {
	if prior == nil {
		return models.DatasetDrift{}
	}
	rowDrift := absInt(f.NumRows() - prior.RowCount)
	colDrift := absInt(f.NumCols() - prior.ColumnCount)
	return models.DatasetDrift{RowCountDrift: &rowDrift, ColumnCountDrift: &colDrift}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

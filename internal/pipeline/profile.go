package pipeline

import (
	"path/filepath"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// Profile computes descriptive statistics over the prior run's data and
// freezes them into the current run directory as prior_profile.json. The
// snapshot is copied in, not referenced, so later analysis over this run
// never depends on the prior run directory's continued existence.
func Profile(runDir, priorRunDir string) error {
	dataPath, err := frame.Locate(priorRunDir)
	if err != nil {
		return err
	}
	f, err := frame.Read(dataPath)
	if err != nil {
		return err
	}

	columns := make(map[string]models.ColumnProfile, f.NumCols())
	for _, name := range f.SortedNames() {
		col := f.Column(name)
		columns[name] = models.ColumnProfile{
			DType:        col.Kind.String(),
			MissingRatio: col.MissingRatio(),
			Cardinality:  col.Cardinality(),
			Stats:        col.Stats(),
		}
	}

	profile := models.Profile{
		SourceVersion: filepath.Base(filepath.Clean(priorRunDir)),
		RowCount:      f.NumRows(),
		ColumnCount:   f.NumCols(),
		Columns:       columns,
	}
	return jsonio.WriteAtomic(filepath.Join(runDir, models.PriorProfileFile), &profile)
}

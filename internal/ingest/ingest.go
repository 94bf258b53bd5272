package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/pkg/errors"
)

// Ingest onboards an external tabular file into an empty run directory in a
// deterministic, auditable way: columns are reordered lexicographically with
// row order preserved, and exactly one recognized encoding is written with
// the same atomic-write-plus-fallback discipline as the generator.
func Ingest(inputPath, runDir string) error {
	info, err := os.Stat(inputPath)
	if err != nil || !info.Mode().IsRegular() {
		return errors.NewNotFoundError(errors.CodeDataFileNotFound,
			fmt.Sprintf("input path does not exist or is not a file: %s", inputPath))
	}
	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".csv" && ext != ".parquet" {
		return errors.NewConfigError(errors.CodeInvalidField,
			"input path must be a .csv or .parquet file")
	}

	dirInfo, err := os.Stat(runDir)
	if err != nil || !dirInfo.IsDir() {
		return errors.NewNotFoundError(errors.CodeArtifactNotFound,
			fmt.Sprintf("run directory does not exist or is not a directory: %s", runDir))
	}
	entries, err := os.ReadDir(runDir)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to list run directory: %s", runDir))
	}
	if len(entries) > 0 {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			fmt.Sprintf("run directory must be empty: %s", runDir))
	}

	f, err := frame.Read(inputPath)
	if err != nil {
		return err
	}
	if f.NumRows() == 0 || f.NumCols() == 0 {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			"input dataset is empty")
	}

	_, err = frame.WriteData(runDir, f.SortColumns())
	return err
}

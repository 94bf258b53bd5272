package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// Locate finds the single data file in a run directory. Exactly one of the
// two recognized encodings must exist; both or neither is an error.
func Locate(dir string) (string, error) {
	parquetPath := filepath.Join(dir, models.DataParquetFile)
	csvPath := filepath.Join(dir, models.DataCSVFile)

	hasParquet := isRegularFile(parquetPath)
	hasCSV := isRegularFile(csvPath)

	switch {
	case hasParquet && hasCSV:
		return "", errors.NewConsistencyError(errors.CodeAmbiguousData,
			fmt.Sprintf("ambiguous data files: both %s and %s exist in %s",
				models.DataParquetFile, models.DataCSVFile, dir))
	case hasParquet:
		return parquetPath, nil
	case hasCSV:
		return csvPath, nil
	default:
		return "", errors.NewNotFoundError(errors.CodeDataFileNotFound,
			fmt.Sprintf("no data file found in %s (searched for %s, %s)",
				dir, models.DataParquetFile, models.DataCSVFile))
	}
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Read decodes a data file by extension.
func Read(path string) (*Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ReadParquet(path)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, errors.NewIOError(errors.CodeParseFailed,
			fmt.Sprintf("unsupported data file type: %s", path))
	}
}

// WriteData persists the frame into dir, parquet first with a CSV fallback
// on any parquet write failure. Each attempt goes through a temp file in the
// same directory followed by a rename, so the directory holds either a
// complete data file or none. Returns the file name actually written.
func WriteData(dir string, f *Frame) (string, error) {
	if err := writeEncoded(dir, models.DataParquetFile, f, encodeParquetTo); err == nil {
		return models.DataParquetFile, nil
	}

	if err := writeEncoded(dir, models.DataCSVFile, f, encodeCSVTo); err != nil {
		return "", errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write data as parquet or csv in %s", dir))
	}
	if err := writeTypesSidecar(filepath.Join(dir, models.DataCSVFile), f); err != nil {
		return "", err
	}
	return models.DataCSVFile, nil
}

func encodeParquetTo(file *os.File, f *Frame) error { return encodeParquet(file, f) }
func encodeCSVTo(file *os.File, f *Frame) error     { return encodeCSV(file, f) }

func writeEncoded(dir, name string, f *Frame, encode func(*os.File, *Frame) error) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, f); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

package jsonio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

// Read decodes the JSON document at path into v.
func Read(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WrapError(err, errors.ErrorTypeNotFound, errors.CodeArtifactNotFound,
				fmt.Sprintf("file not found: %s", path))
		}
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to read %s", path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
			fmt.Sprintf("failed to parse %s", path))
	}
	return nil
}

// Write marshals v with two-space indentation and writes it to path.
// encoding/json serializes map keys in sorted order, which keeps the output
// bytes deterministic for map-shaped documents.
func Write(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to encode %s", path))
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write %s", path))
	}
	return nil
}

// WriteAtomic marshals v and commits it to path via a temp file in the same
// directory, an fsync, and a rename. A reader can observe the old content or
// the new content, never a partial file.
func WriteAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to encode %s", path))
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to create temp file in %s", dir))
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to write %s", tmpPath))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to sync %s", tmpPath))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to close %s", tmpPath))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			fmt.Sprintf("failed to rename %s to %s", tmpPath, path))
	}
	return nil
}

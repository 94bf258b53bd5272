package pipeline

import (
	"time"

	"github.com/syntheticlab/dataforge/pkg/errors"
)

// versionTimestampLayout formats a UTC timestamp with second precision so
// that lexicographic order matches chronological order.
const versionTimestampLayout = "2006-01-02T15-04-05Z"

// ResolveVersion returns the version identifier for a run: the explicit run
// id when given, otherwise a deterministic UTC timestamp.
func ResolveVersion(datasetName, runID string) (string, error) {
	if datasetName == "" {
		return "", errors.NewConfigError(errors.CodeInvalidField,
			"dataset name must be a non-empty string")
	}
	if runID != "" {
		return runID, nil
	}
	return time.Now().UTC().Format(versionTimestampLayout), nil
}

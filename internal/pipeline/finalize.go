package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

var requiredArtifacts = []string{
	models.ConfigsSnapshotFile,
	models.RunMetadataFile,
	models.ValidationReportFile,
	models.EvaluationReportFile,
}

// Finalize seals the run: it verifies that every required artifact is
// present and consistent, composes the immutable manifest, and commits it
// atomically. A manifest already present makes any re-finalization fail; a
// run's manifest, once written, is permanent.
func Finalize(datasetDir, runDir string, docs config.Documents) error {
	finalPath := filepath.Join(runDir, models.FinalMetadataFile)
	if _, err := os.Stat(finalPath); err == nil {
		return errors.NewConsistencyError(errors.CodeAlreadyFinalized,
			fmt.Sprintf("run is already finalized: %s", finalPath))
	}

	dataPath, err := frame.Locate(runDir)
	if err != nil {
		return err
	}

	for _, name := range requiredArtifacts {
		info, err := os.Stat(filepath.Join(runDir, name))
		if err != nil || !info.Mode().IsRegular() {
			return errors.NewNotFoundError(errors.CodeArtifactNotFound,
				fmt.Sprintf("missing required artifact: %s", name))
		}
	}

	if err := checkSnapshot(runDir, docs); err != nil {
		return err
	}

	absRunDir, err := filepath.Abs(runDir)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeIO, errors.CodeReadFailed,
			fmt.Sprintf("failed to resolve run directory: %s", runDir))
	}

	manifest := models.Manifest{
		Artifacts: map[string]string{
			"data":              filepath.Base(dataPath),
			"configs_snapshot":  models.ConfigsSnapshotFile,
			"run_metadata":      models.RunMetadataFile,
			"validation_report": models.ValidationReportFile,
			"evaluation_report": models.EvaluationReportFile,
		},
		Dataset:        filepath.Base(filepath.Clean(datasetDir)),
		FinalizedAtUTC: time.Now().UTC().Format(time.RFC3339),
		RunDir:         absRunDir,
	}
	return jsonio.WriteAtomic(finalPath, &manifest)
}

// checkSnapshot re-verifies the persisted configuration snapshot against the
// configuration the caller supplies, guarding against mutation between
// stages. Both sides are normalized through a JSON round-trip before the
// deep comparison.
func checkSnapshot(runDir string, docs config.Documents) error {
	var snapshot interface{}
	if err := jsonio.Read(filepath.Join(runDir, models.ConfigsSnapshotFile), &snapshot); err != nil {
		return err
	}
	supplied, err := normalizeJSON(docs)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(snapshot, supplied) {
		return errors.NewConsistencyError(errors.CodeSnapshotMismatch,
			fmt.Sprintf("%s does not match provided configs", models.ConfigsSnapshotFile))
	}
	return nil
}

func normalizeJSON(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
			"failed to normalize configuration for snapshot comparison")
	}
	var normalized interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIO, errors.CodeParseFailed,
			"failed to normalize configuration for snapshot comparison")
	}
	return normalized, nil
}

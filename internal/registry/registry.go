package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// Update appends a version record to the dataset registry, driven solely by
// the finalized manifest, never by filesystem scanning. Both the manifest
// and the registry document must already exist; the target dataset must
// already have an entry; a version present in the history is rejected.
// The whole document is rewritten atomically with deterministic key order.
func Update(finalManifestPath, registryPath string) error {
	if !isRegularFile(finalManifestPath) {
		return errors.NewNotFoundError(errors.CodeArtifactNotFound,
			fmt.Sprintf("final manifest not found: %s", finalManifestPath))
	}
	if !isRegularFile(registryPath) {
		return errors.NewNotFoundError(errors.CodeRegistryNotFound,
			fmt.Sprintf("registry file not found: %s", registryPath))
	}

	var manifest models.Manifest
	if err := jsonio.Read(finalManifestPath, &manifest); err != nil {
		return err
	}
	if manifest.Dataset == "" || manifest.RunDir == "" || manifest.FinalizedAtUTC == "" {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			"final manifest missing required fields (dataset, run_dir, finalized_at_utc)")
	}

	version := filepath.Base(filepath.Clean(manifest.RunDir))
	if version == "" || version == "." || version == string(filepath.Separator) {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			"could not derive version from run_dir in final manifest")
	}

	var reg models.Registry
	if err := jsonio.Read(registryPath, &reg); err != nil {
		return err
	}
	if reg.Datasets == nil {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			fmt.Sprintf("%s must contain a 'datasets' object", registryPath))
	}

	entry, ok := reg.Datasets[manifest.Dataset]
	if !ok {
		return errors.NewNotFoundError(errors.CodeDatasetNotFound,
			fmt.Sprintf("dataset '%s' not found in registry; refusing to create implicit entry", manifest.Dataset))
	}

	for _, record := range entry.Versions {
		if record.Version == version {
			return errors.NewConsistencyError(errors.CodeDuplicateVersion,
				fmt.Sprintf("version '%s' already present in registry for dataset '%s'", version, manifest.Dataset))
		}
	}

	entry.Versions = append(entry.Versions, models.VersionRecord{
		FinalizedAtUTC: manifest.FinalizedAtUTC,
		RunDir:         manifest.RunDir,
		Version:        version,
	})
	entry.LatestVersion = version
	reg.Datasets[manifest.Dataset] = entry

	return jsonio.WriteAtomic(registryPath, &reg)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
	"github.com/syntheticlab/dataforge/tests/helpers"
)

func runFullPipeline(t *testing.T, env *helpers.TestEnvironment, registryPath, version, priorRunDir string) string {
	t.Helper()
	docs, cfg := helpers.ResolveFinance(t, 300, 0.02)
	datasetDir := env.DatasetDir("finance_transactions")
	runDir := env.RunDir("finance_transactions", version)

	require.NoError(t, jsonio.WriteAtomic(filepath.Join(runDir, models.ConfigsSnapshotFile), docs))
	require.NoError(t, jsonio.WriteAtomic(filepath.Join(runDir, models.RunMetadataFile), &models.RunMetadata{
		Dataset: "finance_transactions",
		Version: version,
	}))

	runner := NewRunner(env.Logger, datasetDir, runDir, registryPath, docs, cfg)
	require.Equal(t, StatePending, runner.State())
	require.NoError(t, runner.Run(priorRunDir))
	require.Equal(t, StateRegistered, runner.State())
	return runDir
}

func TestRunnerFirstRun(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	registryPath := env.RegistryPath("finance_transactions")

	runDir := runFullPipeline(t, env, registryPath, "2025-01-01T00-00-00Z", "")

	// No prior run, so no prior profile was written.
	assert.NoFileExists(t, filepath.Join(runDir, models.PriorProfileFile))

	for _, name := range []string{
		models.ValidationReportFile,
		models.EvaluationReportFile,
		models.FinalMetadataFile,
	} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}

	var reg models.Registry
	require.NoError(t, jsonio.Read(registryPath, &reg))
	entry := reg.Datasets["finance_transactions"]
	assert.Equal(t, "2025-01-01T00-00-00Z", entry.LatestVersion)
	require.Len(t, entry.Versions, 1)
	assert.Equal(t, "2025-01-01T00-00-00Z", entry.Versions[0].Version)
}

func TestRunnerSecondRunProfilesAndDrifts(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	registryPath := env.RegistryPath("finance_transactions")

	firstRun := runFullPipeline(t, env, registryPath, "2025-01-01T00-00-00Z", "")
	secondRun := runFullPipeline(t, env, registryPath, "2025-01-02T00-00-00Z", firstRun)

	var profile models.Profile
	require.NoError(t, jsonio.Read(filepath.Join(secondRun, models.PriorProfileFile), &profile))
	assert.Equal(t, "2025-01-01T00-00-00Z", profile.SourceVersion)
	assert.Equal(t, 300, profile.RowCount)

	var report models.EvaluationReport
	require.NoError(t, jsonio.Read(filepath.Join(secondRun, models.EvaluationReportFile), &report))
	require.NotNil(t, report.DatasetDrift.RowCountDrift)
	assert.Equal(t, 0, *report.DatasetDrift.RowCountDrift)
	require.NotNil(t, report.Drift["amount"].MeanDrift)
	require.NotNil(t, report.Drift["amount"].MissingRatioDrift)
	assert.Equal(t, 0.0, *report.Drift["amount"].MissingRatioDrift)

	var reg models.Registry
	require.NoError(t, jsonio.Read(registryPath, &reg))
	entry := reg.Datasets["finance_transactions"]
	assert.Equal(t, "2025-01-02T00-00-00Z", entry.LatestVersion)
	assert.Len(t, entry.Versions, 2)
}

func TestRunnerStopsAtFirstFailure(t *testing.T) {
	env := helpers.NewTestEnvironment(t)
	registryPath := env.RegistryPath("finance_transactions")

	docs := helpers.FinanceDocuments(100, 0.02)
	docs[config.EvolutionConfigFile] = map[string]interface{}{}
	cfg := resolveDocs(t, docs)

	datasetDir := env.DatasetDir("finance_transactions")
	runDir := env.RunDir("finance_transactions", "2025-01-01T00-00-00Z")
	require.NoError(t, jsonio.WriteAtomic(filepath.Join(runDir, models.ConfigsSnapshotFile), docs))
	require.NoError(t, jsonio.WriteAtomic(filepath.Join(runDir, models.RunMetadataFile), &models.RunMetadata{}))

	runner := NewRunner(env.Logger, datasetDir, runDir, registryPath, docs, cfg)
	err := runner.Run("")
	require.Error(t, err)

	// Generation failed, so no later stage ran and no artifacts appeared.
	assert.Equal(t, StateProfiled, runner.State())
	assert.NoFileExists(t, filepath.Join(runDir, models.ValidationReportFile))
	assert.NoFileExists(t, filepath.Join(runDir, models.FinalMetadataFile))

	var reg models.Registry
	require.NoError(t, jsonio.Read(registryPath, &reg))
	assert.Empty(t, reg.Datasets["finance_transactions"].Versions)
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/observability/logging"
	"github.com/syntheticlab/dataforge/internal/pipeline"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/models"
)

type RunOptions struct {
	Dataset string
	RunID   string
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full pipeline for a dataset",
		Long: `Run the ordered pipeline stages (profile, generate, validate, evaluate,
finalize, register) for one dataset version.`,
		Example: `  # Run with a deterministic UTC-timestamp version
  dataforge run --dataset finance_transactions

  # Reproduce a specific version
  dataforge run --dataset finance_transactions --run-id 2025-01-01T00-00-00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dataset, "dataset", "d", "", "Dataset name (must match a directory under datasets/)")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Version identifier; defaults to the current UTC timestamp")
	cmd.MarkFlagRequired("dataset")

	return cmd
}

func runPipeline(opts *RunOptions) error {
	root, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return err
	}
	logger := newLogger()

	datasetDir := filepath.Join(root, "datasets", opts.Dataset)
	if info, err := os.Stat(datasetDir); err != nil || !info.IsDir() {
		return fmt.Errorf("dataset directory not found: %s", datasetDir)
	}
	if !isWithinDir(root, datasetDir) {
		return fmt.Errorf("dataset directory escapes project root: %s", datasetDir)
	}

	docs, err := config.Load(datasetDir)
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(docs)
	if err != nil {
		return err
	}

	version, err := pipeline.ResolveVersion(opts.Dataset, opts.RunID)
	if err != nil {
		return err
	}
	runDir := filepath.Join(root, "runs", opts.Dataset, version)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}

	fields := logrus.Fields{"dataset": opts.Dataset, "version": version, "run_dir": runDir}
	logger.WithFields(fields).Info("pipeline_start")

	if err := snapshotRunContext(root, datasetDir, runDir, opts.Dataset, version, docs); err != nil {
		return err
	}

	priorRunDir := latestPriorRun(filepath.Join(root, "runs", opts.Dataset), version)
	registryPath := filepath.Join(root, "registry", "datasets.json")

	runner := pipeline.NewRunner(logger, datasetDir, runDir, registryPath, docs, cfg)
	if err := runner.Run(priorRunDir); err != nil {
		return err
	}

	logger.WithFields(fields).Info("pipeline_end")
	return nil
}

func newLogger() *logrus.Logger {
	return logging.New(logging.Config{
		Enabled: viper.GetBool("logging.enabled"),
		Level:   viper.GetString("logging.level"),
	})
}

// snapshotRunContext persists the verbatim configuration snapshot and the
// run metadata before any stage executes.
func snapshotRunContext(root, datasetDir, runDir, dataset, version string, docs config.Documents) error {
	metadata := models.RunMetadata{
		Dataset:      dataset,
		Version:      version,
		RunID:        uuid.NewString(),
		TimestampUTC: time.Now().UTC().Format(time.RFC3339),
		ProjectRoot:  root,
		DatasetDir:   datasetDir,
		RunDir:       runDir,
		ExecutionOrder: []string{
			string(pipeline.StageProfile),
			string(pipeline.StageGenerate),
			string(pipeline.StageValidate),
			string(pipeline.StageEvaluate),
			string(pipeline.StageFinalize),
			string(pipeline.StageRegister),
		},
	}
	if err := jsonio.WriteAtomic(filepath.Join(runDir, models.ConfigsSnapshotFile), docs); err != nil {
		return err
	}
	return jsonio.WriteAtomic(filepath.Join(runDir, models.RunMetadataFile), &metadata)
}

// latestPriorRun returns the run directory of the latest version strictly
// below the current one, or empty when this is the first run.
func latestPriorRun(runsBase, version string) string {
	entries, err := os.ReadDir(runsBase)
	if err != nil {
		return ""
	}
	var priors []string
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() < version {
			priors = append(priors, entry.Name())
		}
	}
	if len(priors) == 0 {
		return ""
	}
	sort.Sort(sort.Reverse(sort.StringSlice(priors)))
	return filepath.Join(runsBase, priors[0])
}

func isWithinDir(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

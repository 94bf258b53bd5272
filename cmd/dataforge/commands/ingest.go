package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/syntheticlab/dataforge/internal/ingest"
)

type IngestOptions struct {
	Input  string
	RunDir string
}

func NewIngestCmd() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Onboard an external dataset into an empty run directory",
		Example: `  # Ingest an external CSV
  dataforge ingest --input ./export.csv --run-dir runs/external/2025-01-01T00-00-00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Input file (.csv or .parquet)")
	cmd.Flags().StringVar(&opts.RunDir, "run-dir", "", "Target run directory (must exist and be empty)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("run-dir")

	return cmd
}

func runIngest(opts *IngestOptions) error {
	logger := newLogger()
	fields := logrus.Fields{"input": opts.Input, "run_dir": opts.RunDir, "stage": "ingestion"}
	logger.WithFields(fields).Info("stage_start")
	if err := ingest.Ingest(opts.Input, opts.RunDir); err != nil {
		logger.WithFields(fields).WithField("error", err.Error()).Error("stage_error")
		return err
	}
	logger.WithFields(fields).Info("stage_end")
	return nil
}

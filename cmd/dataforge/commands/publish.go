package commands

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syntheticlab/dataforge/internal/publish"
)

type PublishOptions struct {
	RunDir    string
	DatasetID string
	Bucket    string
	Region    string
	Prefix    string
	Endpoint  string
}

func NewPublishCmd() *cobra.Command {
	opts := &PublishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a finalized run to the dataset host",
		Long: `Upload the data file and final manifest of a finalized run, plus a
generated metadata descriptor, to an S3-compatible dataset host.`,
		Example: `  dataforge publish --run-dir runs/finance_transactions/2025-01-01T00-00-00Z \
    --dataset-id acme/finance-transactions --bucket datasets`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.RunDir, "run-dir", "", "Finalized run directory")
	cmd.Flags().StringVar(&opts.DatasetID, "dataset-id", "", "External dataset identifier")
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "Target bucket (default from config)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "Bucket region (default from config)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Key prefix (default from config)")
	cmd.Flags().StringVar(&opts.Endpoint, "endpoint", "", "S3-compatible endpoint override")
	cmd.MarkFlagRequired("run-dir")
	cmd.MarkFlagRequired("dataset-id")

	return cmd
}

func runPublish(ctx context.Context, opts *PublishOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger()

	cfg := &publish.Config{
		Bucket:   firstNonEmpty(opts.Bucket, viper.GetString("publish.bucket")),
		Region:   firstNonEmpty(opts.Region, viper.GetString("publish.region")),
		Prefix:   firstNonEmpty(opts.Prefix, viper.GetString("publish.prefix")),
		Endpoint: firstNonEmpty(opts.Endpoint, viper.GetString("publish.endpoint")),
		ForcePathStyle: viper.GetBool("publish.force_path_style"),
	}
	publisher, err := publish.New(cfg, logger)
	if err != nil {
		return err
	}

	fields := logrus.Fields{"run_dir": opts.RunDir, "dataset_id": opts.DatasetID, "stage": "publish"}
	logger.WithFields(fields).Info("stage_start")
	if err := publisher.Publish(ctx, opts.RunDir, opts.DatasetID); err != nil {
		logger.WithFields(fields).WithField("error", err.Error()).Error("stage_error")
		return err
	}
	logger.WithFields(fields).Info("stage_end")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

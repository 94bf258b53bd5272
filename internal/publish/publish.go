package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"

	"github.com/syntheticlab/dataforge/internal/frame"
	"github.com/syntheticlab/dataforge/internal/utils/jsonio"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// stageDirName is the staging directory created inside the run directory.
// Staged files are removed on success and left in place for inspection on
// failure.
const stageDirName = "publish_stage"

// descriptorFile is the generated dataset descriptor uploaded with the data.
const descriptorFile = "dataset-metadata.json"

// Config holds the hosting target. Credentials come from the standard AWS
// chain unless explicitly overridden.
type Config struct {
	Bucket          string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region          string `json:"region" yaml:"region" mapstructure:"region"`
	Prefix          string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint" mapstructure:"endpoint"`
	ForcePathStyle  bool   `json:"force_path_style" yaml:"force_path_style" mapstructure:"force_path_style"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// descriptor is the metadata document generated alongside each upload.
type descriptor struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Version        string `json:"version"`
	FinalizedAtUTC string `json:"finalized_at_utc"`
}

// Publisher uploads finalized runs to an S3-compatible dataset host.
type Publisher struct {
	config   *Config
	uploader *s3manager.Uploader
	logger   *logrus.Logger
}

// New creates a publisher for the given hosting target.
func New(cfg *Config, logger *logrus.Logger) (*Publisher, error) {
	if cfg == nil {
		return nil, errors.NewConfigError(errors.CodeMissingConfig, "publish config cannot be nil")
	}
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError(errors.CodeMissingField, "publish bucket is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Publisher{config: cfg, logger: logger}, nil
}

// Connect establishes the AWS session.
func (p *Publisher) Connect() error {
	if p.uploader != nil {
		return nil
	}
	awsConfig := &aws.Config{Region: aws.String(p.config.Region)}
	if p.config.AccessKeyID != "" && p.config.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			p.config.AccessKeyID, p.config.SecretAccessKey, "")
	}
	if p.config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(p.config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(p.config.ForcePathStyle)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeExternal, errors.CodeAuthFailed,
			"failed to create AWS session")
	}
	p.uploader = s3manager.NewUploader(sess)
	return nil
}

// Publish uploads a finalized run: the data file, the final manifest, and a
// generated descriptor. At most one retry on failure. Staged files are
// cleaned up on success and left for inspection on failure.
func (p *Publisher) Publish(ctx context.Context, runDir, datasetID string) error {
	if datasetID == "" || strings.HasPrefix(datasetID, "/") {
		return errors.NewConfigError(errors.CodeInvalidField,
			"dataset id must be a non-empty identifier without a leading slash")
	}
	info, err := os.Stat(runDir)
	if err != nil || !info.IsDir() {
		return errors.NewNotFoundError(errors.CodeArtifactNotFound,
			fmt.Sprintf("run directory does not exist or is not a directory: %s", runDir))
	}

	manifestPath := filepath.Join(runDir, models.FinalMetadataFile)
	if _, err := os.Stat(manifestPath); err != nil {
		return errors.NewConsistencyError(errors.CodeNotFinalized,
			fmt.Sprintf("%s not found in run directory; run must be finalized before upload", models.FinalMetadataFile))
	}
	dataPath, err := frame.Locate(runDir)
	if err != nil {
		return err
	}

	var manifest models.Manifest
	if err := jsonio.Read(manifestPath, &manifest); err != nil {
		return err
	}
	if manifest.Dataset == "" || manifest.FinalizedAtUTC == "" {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			"final manifest missing required fields: dataset and/or finalized_at_utc")
	}
	version := filepath.Base(filepath.Clean(runDir))

	if err := p.Connect(); err != nil {
		return err
	}

	stageDir, err := p.stageFiles(runDir, dataPath, manifestPath, descriptor{
		ID:             datasetID,
		Title:          manifest.Dataset,
		Version:        version,
		FinalizedAtUTC: manifest.FinalizedAtUTC,
	})
	if err != nil {
		return err
	}

	keyPrefix := path.Join(p.config.Prefix, datasetID, version)
	uploadErr := p.uploadAll(ctx, stageDir, keyPrefix)
	if uploadErr != nil {
		// Single retry with backoff, never silent
		p.logger.WithFields(logrus.Fields{
			"dataset_id": datasetID,
			"version":    version,
			"error":      uploadErr.Error(),
		}).Warn("upload_retry")
		time.Sleep(2 * time.Second)
		uploadErr = p.uploadAll(ctx, stageDir, keyPrefix)
	}
	if uploadErr != nil {
		return errors.WrapError(uploadErr, errors.ErrorTypeExternal, errors.CodeUploadFailed,
			"upload failed after one retry; staged files left in "+stageDir)
	}

	return os.RemoveAll(stageDir)
}

// stageFiles copies the allowed artifacts into a fresh staging directory.
func (p *Publisher) stageFiles(runDir, dataPath, manifestPath string, desc descriptor) (string, error) {
	stageDir := filepath.Join(runDir, stageDirName)
	if err := os.RemoveAll(stageDir); err != nil {
		return "", errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to clear staging directory "+stageDir)
	}
	if err := os.Mkdir(stageDir, 0o755); err != nil {
		return "", errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
			"failed to create staging directory "+stageDir)
	}

	for _, src := range []string{dataPath, manifestPath} {
		if err := copyFile(src, filepath.Join(stageDir, filepath.Base(src))); err != nil {
			return "", errors.WrapError(err, errors.ErrorTypeIO, errors.CodeWriteFailed,
				"failed to stage "+src)
		}
	}
	if err := jsonio.Write(filepath.Join(stageDir, descriptorFile), &desc); err != nil {
		return "", err
	}
	return stageDir, nil
}

func (p *Publisher) uploadAll(ctx context.Context, stageDir, keyPrefix string) error {
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file, err := os.Open(filepath.Join(stageDir, entry.Name()))
		if err != nil {
			return err
		}
		_, err = p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(p.config.Bucket),
			Key:    aws.String(path.Join(keyPrefix, entry.Name())),
			Body:   file,
		})
		file.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

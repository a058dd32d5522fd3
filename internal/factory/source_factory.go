package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mikey/spam-detector/internal/adapters/source"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates artifact sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateArtifactSource creates an artifact source based on the configuration.
// An unknown source type is an error; a backend that cannot be reached yields a
// source that fails every fetch.
func (f *SourceFactory) CreateArtifactSource(ctx context.Context) (core.ArtifactSource, error) {
	artifacts := f.cfg.GetArtifacts()

	var (
		src core.ArtifactSource
		err error
	)

	switch artifacts.Source {
	case "file":
		return source.NewFileSource(artifacts.Dir, f.logger), nil
	case "sqlite":
		// mode=ro keeps the driver from creating a missing database file
		dsn := "file:" + artifacts.SQLitePath + "?mode=ro"
		src, err = source.NewSQLSource(ctx, source.DialectSQLite, dsn, artifacts.Table, f.logger)
	case "mysql":
		src, err = source.NewSQLSource(ctx, source.DialectMySQL, artifacts.MySQLDSN, artifacts.Table, f.logger)
	case "postgres":
		src, err = source.NewSQLSource(ctx, source.DialectPostgres, artifacts.PostgresDSN, artifacts.Table, f.logger)
	case "s3":
		s3cfg := f.cfg.GetS3()
		if s3cfg.Bucket == "" {
			return nil, fmt.Errorf("artifacts.s3.bucket is required for the s3 source")
		}
		src, err = f.createS3Source(ctx, s3cfg)
	case "gcs":
		gcs := f.cfg.GetGCS()
		if gcs.Bucket == "" {
			return nil, fmt.Errorf("artifacts.gcs.bucket is required for the gcs source")
		}
		src, err = source.NewGCSSource(ctx, gcs.Bucket, gcs.Prefix, gcs.CredentialsFile, f.logger)
	default:
		return nil, fmt.Errorf("unsupported artifact source: %s", artifacts.Source)
	}

	if err != nil {
		f.logger.Error("Artifact source unreachable",
			zap.String("source", artifacts.Source),
			zap.Error(err))
		return source.NewUnreachableSource(artifacts.Source, err), nil
	}
	return src, nil
}

func (f *SourceFactory) createS3Source(ctx context.Context, s3cfg config.S3Config) (core.ArtifactSource, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s3cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return source.NewS3Source(s3.NewFromConfig(awsCfg), s3cfg.Bucket, s3cfg.Prefix, f.logger), nil
}

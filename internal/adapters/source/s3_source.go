package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mikey/spam-detector/internal/core"
	"go.uber.org/zap"
)

// S3API is the subset of the S3 client used by S3Source
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads artifacts from an S3 bucket
type S3Source struct {
	client S3API
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3Source creates a source reading objects from bucket under prefix
func NewS3Source(client S3API, bucket string, prefix string, logger *zap.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

var _ core.ArtifactSource = (*S3Source)(nil)

// Fetch downloads the object holding the artifact called name
func (s *S3Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := path.Join(s.prefix, name)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return nil, core.NotFound(name, err)
		}
		return nil, fmt.Errorf("failed to get s3 object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object %s: %w", key, err)
	}

	s.logger.Debug("Downloaded artifact from S3",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Describe returns the bucket and prefix of the source
func (s *S3Source) Describe() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/mikey/spam-detector/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCSSource reads artifacts from a Google Cloud Storage bucket
type GCSSource struct {
	service *storage.Service
	bucket  string
	prefix  string
	logger  *zap.Logger
}

// NewGCSSource creates a source reading objects from bucket under prefix.
// Without a credentials file the application default credentials are used.
func NewGCSSource(ctx context.Context, bucket string, prefix string, credentialsFile string, logger *zap.Logger) (*GCSSource, error) {
	opts := []option.ClientOption{option.WithScopes(storage.DevstorageReadOnlyScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	service, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewGCSSourceFromService(service, bucket, prefix, logger), nil
}

// NewGCSSourceFromService wraps an existing storage service
func NewGCSSourceFromService(service *storage.Service, bucket string, prefix string, logger *zap.Logger) *GCSSource {
	return &GCSSource{
		service: service,
		bucket:  bucket,
		prefix:  prefix,
		logger:  logger,
	}
}

var _ core.ArtifactSource = (*GCSSource)(nil)

// Fetch downloads the object holding the artifact called name
func (s *GCSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	object := path.Join(s.prefix, name)

	resp, err := s.service.Objects.Get(s.bucket, object).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, core.NotFound(name, err)
		}
		return nil, fmt.Errorf("failed to download gcs object %s: %w", object, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gcs object %s: %w", object, err)
	}

	s.logger.Debug("Downloaded artifact from GCS",
		zap.String("bucket", s.bucket),
		zap.String("object", object),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Describe returns the bucket and prefix of the source
func (s *GCSSource) Describe() string {
	return "gs://" + path.Join(s.bucket, s.prefix)
}

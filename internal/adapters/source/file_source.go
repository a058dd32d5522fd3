package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mikey/spam-detector/internal/core"
	"go.uber.org/zap"
)

// FileSource reads artifacts from a directory on local disk
type FileSource struct {
	dir    string
	logger *zap.Logger
}

// NewFileSource creates a source rooted at dir
func NewFileSource(dir string, logger *zap.Logger) *FileSource {
	return &FileSource{
		dir:    dir,
		logger: logger,
	}
}

var _ core.ArtifactSource = (*FileSource)(nil)

// Fetch reads the artifact file called name
func (s *FileSource) Fetch(_ context.Context, name string) ([]byte, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, core.NotFound(name, err)
		}
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}

	s.logger.Debug("Read artifact file", zap.String("path", path), zap.Int("bytes", len(data)))
	return data, nil
}

// Describe returns the directory the source reads from
func (s *FileSource) Describe() string {
	return "file:" + s.dir
}

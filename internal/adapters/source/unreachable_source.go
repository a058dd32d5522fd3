package source

import (
	"context"
	"fmt"

	"github.com/mikey/spam-detector/internal/core"
)

// UnreachableSource stands in for a source whose backend could not be reached
// at startup. Every fetch fails, so the loader reports the feature unavailable
// instead of the process exiting.
type UnreachableSource struct {
	desc string
	err  error
}

// NewUnreachableSource creates a source that always fails with err
func NewUnreachableSource(desc string, err error) *UnreachableSource {
	return &UnreachableSource{desc: desc, err: err}
}

var _ core.ArtifactSource = (*UnreachableSource)(nil)

// Fetch always returns the setup error
func (s *UnreachableSource) Fetch(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("artifact source %s unavailable: %w", s.desc, s.err)
}

// Describe returns the name of the source that failed
func (s *UnreachableSource) Describe() string {
	return s.desc
}

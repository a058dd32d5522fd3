package ports

import (
	"context"

	"github.com/mikey/spam-detector/internal/core"
)

// Detector is the part of the detection service used by front-ends
type Detector interface {
	// Submit answers one "analyze this text" request
	Submit(ctx context.Context, text string) *core.Outcome

	// AnalyzeEmail classifies a received message
	AnalyzeEmail(ctx context.Context, email *core.Email) (*core.InferenceResult, error)

	// Available reports whether the artifacts could be loaded
	Available(ctx context.Context) bool
}

// Frontend defines the interface for the ways users reach the detector
type Frontend interface {
	// Start starts the front-end service
	Start() error

	// Stop stops the front-end service
	Stop() error
}

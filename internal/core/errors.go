package core

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactNotFound is returned when an artifact is missing from its storage location
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactCorrupt is returned when an artifact exists but cannot be deserialized
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	// ErrEmptyInput is the validation warning for blank submissions
	ErrEmptyInput = errors.New("please enter an email message to analyze")
	// ErrTransformFailure marks a failure inside the vectorizer
	ErrTransformFailure = errors.New("transform failure")
	// ErrPredictionFailure marks a failure inside the classifier
	ErrPredictionFailure = errors.New("prediction failure")
)

// LoadError describes why an artifact could not be loaded
type LoadError struct {
	Artifact string
	Kind     error // ErrArtifactNotFound or ErrArtifactCorrupt
	Err      error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Kind)
	}
	return fmt.Sprintf("load %s: %v: %v", e.Artifact, e.Kind, e.Err)
}

func (e *LoadError) Is(target error) bool {
	return target == e.Kind
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InferenceError wraps a failure during transform or predict
type InferenceError struct {
	Kind error // ErrTransformFailure or ErrPredictionFailure
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *InferenceError) Is(target error) bool {
	return target == e.Kind
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// NotFound wraps err so that it matches ErrArtifactNotFound.
// Sources use it to report a missing object in their own terms.
func NotFound(name string, err error) error {
	return &LoadError{Artifact: name, Kind: ErrArtifactNotFound, Err: err}
}

// Corrupt wraps err so that it matches ErrArtifactCorrupt
func Corrupt(name string, err error) error {
	return &LoadError{Artifact: name, Kind: ErrArtifactCorrupt, Err: err}
}

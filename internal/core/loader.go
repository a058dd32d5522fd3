package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Artifacts is the classifier and vectorizer pair shared by all inference calls
type Artifacts struct {
	Classifier Classifier
	Vectorizer Vectorizer
}

// ArtifactLoader loads the artifact pair once per process.
// The first call to Load does the work, concurrent and later callers
// observe the same pair or the same error. A failed load is never retried.
type ArtifactLoader struct {
	source         ArtifactSource
	decoder        ArtifactDecoder
	modelName      string
	vectorizerName string
	logger         *zap.Logger

	once      sync.Once
	artifacts *Artifacts
	err       error
}

// NewArtifactLoader creates a loader reading modelName and vectorizerName from source
func NewArtifactLoader(
	source ArtifactSource,
	decoder ArtifactDecoder,
	modelName string,
	vectorizerName string,
	logger *zap.Logger,
) *ArtifactLoader {
	return &ArtifactLoader{
		source:         source,
		decoder:        decoder,
		modelName:      modelName,
		vectorizerName: vectorizerName,
		logger:         logger,
	}
}

// Load returns the cached artifact pair, loading it on first use
func (l *ArtifactLoader) Load(ctx context.Context) (*Artifacts, error) {
	l.once.Do(func() {
		l.artifacts, l.err = l.load(ctx)
		if l.err != nil {
			l.logger.Error("Failed to load artifacts",
				zap.String("source", l.source.Describe()),
				zap.Error(l.err))
			return
		}
		l.logger.Info("Loaded artifacts",
			zap.String("source", l.source.Describe()),
			zap.String("model", l.modelName),
			zap.String("vectorizer", l.vectorizerName))
	})
	return l.artifacts, l.err
}

// ModelName returns the name the classifier is stored under
func (l *ArtifactLoader) ModelName() string {
	return l.modelName
}

func (l *ArtifactLoader) load(ctx context.Context) (*Artifacts, error) {
	data, err := l.fetch(ctx, l.modelName)
	if err != nil {
		return nil, err
	}
	classifier, err := l.decoder.DecodeClassifier(data)
	if err != nil {
		return nil, Corrupt(l.modelName, err)
	}

	data, err = l.fetch(ctx, l.vectorizerName)
	if err != nil {
		return nil, err
	}
	vectorizer, err := l.decoder.DecodeVectorizer(data)
	if err != nil {
		return nil, Corrupt(l.vectorizerName, err)
	}

	return &Artifacts{Classifier: classifier, Vectorizer: vectorizer}, nil
}

func (l *ArtifactLoader) fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := l.source.Fetch(ctx, name)
	if err == nil {
		return data, nil
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return nil, err
	}
	// Anything the source could not classify as missing is treated as unreadable
	return nil, Corrupt(name, err)
}

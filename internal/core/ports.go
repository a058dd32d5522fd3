package core

import (
	"context"
)

// Vectorizer turns raw text into feature rows
type Vectorizer interface {
	// Transform returns one feature row per document
	Transform(docs []string) ([]SparseVector, error)
}

// Classifier is a trained model consumed through predict and predict_proba
type Classifier interface {
	// Predict returns one class value per row
	Predict(rows []SparseVector) ([]int, error)

	// PredictProba returns one probability distribution over classes per row
	PredictProba(rows []SparseVector) ([][]float64, error)
}

// ArtifactSource reads serialized artifacts from wherever they are stored.
// A missing artifact must be reported with an error matching ErrArtifactNotFound.
type ArtifactSource interface {
	// Fetch returns the raw bytes stored under name
	Fetch(ctx context.Context, name string) ([]byte, error)

	// Describe returns a short human readable location, used in logs
	Describe() string
}

// ArtifactDecoder deserializes raw artifact bytes
type ArtifactDecoder interface {
	DecodeClassifier(data []byte) (Classifier, error)
	DecodeVectorizer(data []byte) (Vectorizer, error)
}

// TextPreparer cleans submitted text before it reaches the vectorizer
type TextPreparer interface {
	PrepareText(text string) string
}

// SenderWhitelist decides whether mail from a sender skips classification
type SenderWhitelist interface {
	IsWhitelisted(from string) bool
}

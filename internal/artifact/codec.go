// Package artifact decodes the serialized classifier and vectorizer produced by
// the training pipeline. Artifacts are JSON documents with a "kind" field and
// may be gzip compressed.
package artifact

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mikey/spam-detector/internal/core"
)

const (
	KindTfidfVectorizer    = "tfidf_vectorizer"
	KindCountVectorizer    = "count_vectorizer"
	KindMultinomialNB      = "multinomial_nb"
	KindLogisticRegression = "logistic_regression"
)

var gzipMagic = []byte{0x1f, 0x8b}

type envelope struct {
	Kind string `json:"kind"`
}

// Codec implements core.ArtifactDecoder
type Codec struct{}

// NewCodec creates a new artifact codec
func NewCodec() *Codec {
	return &Codec{}
}

var _ core.ArtifactDecoder = (*Codec)(nil)

// DecodeVectorizer decodes a vectorizer artifact
func (c *Codec) DecodeVectorizer(data []byte) (core.Vectorizer, error) {
	raw, kind, err := open(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindTfidfVectorizer, KindCountVectorizer:
		var v TfidfVectorizer
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		if err := v.init(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", kind, err)
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("unsupported vectorizer kind: %q", kind)
	}
}

// DecodeClassifier decodes a classifier artifact
func (c *Codec) DecodeClassifier(data []byte) (core.Classifier, error) {
	raw, kind, err := open(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMultinomialNB:
		var m MultinomialNB
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", kind, err)
		}
		return &m, nil
	case KindLogisticRegression:
		var m LogisticRegression
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", kind, err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("unsupported classifier kind: %q", kind)
	}
}

// open decompresses data if needed and reads its kind
func open(data []byte) ([]byte, string, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decompress artifact: %w", err)
		}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, "", fmt.Errorf("failed to read artifact header: %w", err)
	}
	if env.Kind == "" {
		return nil, "", fmt.Errorf("artifact has no kind")
	}
	return data, env.Kind, nil
}

// checkRow verifies that a feature row fits a model with n features
func checkRow(row core.SparseVector, n int) error {
	if row.Dim != n {
		return fmt.Errorf("feature dimension mismatch: row has %d features, model expects %d", row.Dim, n)
	}
	if len(row.Indices) != len(row.Values) {
		return fmt.Errorf("malformed feature row: %d indices, %d values", len(row.Indices), len(row.Values))
	}
	for _, idx := range row.Indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("feature index %d out of range", idx)
		}
	}
	return nil
}

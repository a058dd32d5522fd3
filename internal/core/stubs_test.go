package core

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
)

type stubVectorizer struct {
	calls atomic.Int32
	err   error
	panic bool
}

func (v *stubVectorizer) Transform(docs []string) ([]SparseVector, error) {
	v.calls.Add(1)
	if v.panic {
		panic("index out of range")
	}
	if v.err != nil {
		return nil, v.err
	}
	rows := make([]SparseVector, len(docs))
	for i, doc := range docs {
		rows[i] = SparseVector{Dim: 1, Indices: []int{0}, Values: []float64{float64(len(doc))}}
	}
	return rows, nil
}

// stubClassifier returns class with probability prob for every row
type stubClassifier struct {
	class int
	prob  float64
	err   error
}

func (c *stubClassifier) Predict(rows []SparseVector) ([]int, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]int, len(rows))
	for i := range out {
		out[i] = c.class
	}
	return out, nil
}

func (c *stubClassifier) PredictProba(rows []SparseVector) ([][]float64, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float64, len(rows))
	for i := range out {
		if c.class == 1 {
			out[i] = []float64{1 - c.prob, c.prob}
		} else {
			out[i] = []float64{c.prob, 1 - c.prob}
		}
	}
	return out, nil
}

// keywordClassifier flags promotional text as spam
type keywordClassifier struct {
	text string
}

func (c *keywordClassifier) isPromo() bool {
	lower := strings.ToLower(c.text)
	for _, kw := range []string{"congratulations", "won", "click here"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (c *keywordClassifier) Predict(rows []SparseVector) ([]int, error) {
	if c.isPromo() {
		return []int{0}, nil
	}
	return []int{1}, nil
}

func (c *keywordClassifier) PredictProba(rows []SparseVector) ([][]float64, error) {
	if c.isPromo() {
		return [][]float64{{0.97, 0.03}}, nil
	}
	return [][]float64{{0.12, 0.88}}, nil
}

type stubSource struct {
	blobs   map[string][]byte
	fetches atomic.Int32
	err     error
}

func (s *stubSource) Fetch(_ context.Context, name string) ([]byte, error) {
	s.fetches.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	data, ok := s.blobs[name]
	if !ok {
		return nil, NotFound(name, errors.New("no such blob"))
	}
	return data, nil
}

func (s *stubSource) Describe() string {
	return "stub"
}

// stubDecoder accepts payloads "ok" and rejects anything else
type stubDecoder struct {
	decodes    atomic.Int32
	classifier Classifier
	vectorizer Vectorizer
}

func (d *stubDecoder) DecodeClassifier(data []byte) (Classifier, error) {
	d.decodes.Add(1)
	if string(data) != "ok" {
		return nil, errors.New("unexpected payload")
	}
	return d.classifier, nil
}

func (d *stubDecoder) DecodeVectorizer(data []byte) (Vectorizer, error) {
	d.decodes.Add(1)
	if string(data) != "ok" {
		return nil, errors.New("unexpected payload")
	}
	return d.vectorizer, nil
}

package artifact

import (
	"fmt"
	"math"

	"github.com/mikey/spam-detector/internal/core"
)

// MultinomialNB is a multinomial naive bayes classifier
type MultinomialNB struct {
	Kind           string      `json:"kind"`
	Classes        []int       `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

var _ core.Classifier = (*MultinomialNB)(nil)

func (m *MultinomialNB) validate() error {
	if len(m.Classes) < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", len(m.Classes))
	}
	if len(m.ClassLogPrior) != len(m.Classes) {
		return fmt.Errorf("class_log_prior has %d entries for %d classes", len(m.ClassLogPrior), len(m.Classes))
	}
	if len(m.FeatureLogProb) != len(m.Classes) {
		return fmt.Errorf("feature_log_prob has %d rows for %d classes", len(m.FeatureLogProb), len(m.Classes))
	}
	n := len(m.FeatureLogProb[0])
	if n == 0 {
		return fmt.Errorf("feature_log_prob has no features")
	}
	for i, row := range m.FeatureLogProb {
		if len(row) != n {
			return fmt.Errorf("feature_log_prob row %d has %d features, expected %d", i, len(row), n)
		}
	}
	return nil
}

// NumFeatures returns the number of features the model was trained on
func (m *MultinomialNB) NumFeatures() int {
	return len(m.FeatureLogProb[0])
}

// jointLogLikelihood returns the unnormalized log posterior of each class
func (m *MultinomialNB) jointLogLikelihood(row core.SparseVector) ([]float64, error) {
	if err := checkRow(row, m.NumFeatures()); err != nil {
		return nil, err
	}
	jll := make([]float64, len(m.Classes))
	for c := range m.Classes {
		jll[c] = m.ClassLogPrior[c] + row.Dot(m.FeatureLogProb[c])
	}
	return jll, nil
}

// Predict returns the most likely class for each row
func (m *MultinomialNB) Predict(rows []core.SparseVector) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		jll, err := m.jointLogLikelihood(row)
		if err != nil {
			return nil, err
		}
		out[i] = m.Classes[argmax(jll)]
	}
	return out, nil
}

// PredictProba returns the class posterior for each row, in Classes order
func (m *MultinomialNB) PredictProba(rows []core.SparseVector) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		jll, err := m.jointLogLikelihood(row)
		if err != nil {
			return nil, err
		}
		out[i] = softmax(jll)
	}
	return out, nil
}

// LogisticRegression is a linear model with a logistic link.
// Binary models carry a single coefficient row scoring Classes[1].
type LogisticRegression struct {
	Kind      string      `json:"kind"`
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

var _ core.Classifier = (*LogisticRegression)(nil)

func (m *LogisticRegression) validate() error {
	if len(m.Classes) < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", len(m.Classes))
	}
	rows := len(m.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(m.Coef) != rows {
		return fmt.Errorf("coef has %d rows, expected %d", len(m.Coef), rows)
	}
	if len(m.Intercept) != rows {
		return fmt.Errorf("intercept has %d entries, expected %d", len(m.Intercept), rows)
	}
	n := len(m.Coef[0])
	if n == 0 {
		return fmt.Errorf("coef has no features")
	}
	for i, row := range m.Coef {
		if len(row) != n {
			return fmt.Errorf("coef row %d has %d features, expected %d", i, len(row), n)
		}
	}
	return nil
}

// NumFeatures returns the number of features the model was trained on
func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coef[0])
}

func (m *LogisticRegression) proba(row core.SparseVector) ([]float64, error) {
	if err := checkRow(row, m.NumFeatures()); err != nil {
		return nil, err
	}
	if len(m.Coef) == 1 {
		p := sigmoid(row.Dot(m.Coef[0]) + m.Intercept[0])
		return []float64{1 - p, p}, nil
	}
	scores := make([]float64, len(m.Coef))
	for c, w := range m.Coef {
		scores[c] = row.Dot(w) + m.Intercept[c]
	}
	return softmax(scores), nil
}

// Predict returns the most likely class for each row
func (m *LogisticRegression) Predict(rows []core.SparseVector) ([]int, error) {
	out := make([]int, len(rows))
	for i, row := range rows {
		p, err := m.proba(row)
		if err != nil {
			return nil, err
		}
		out[i] = m.Classes[argmax(p)]
	}
	return out, nil
}

// PredictProba returns the class probabilities for each row, in Classes order
func (m *LogisticRegression) PredictProba(rows []core.SparseVector) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		p, err := m.proba(row)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func softmax(xs []float64) []float64 {
	top := xs[argmax(xs)]
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

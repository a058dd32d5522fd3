package core

import (
	"fmt"
	"math"
)

// Infer classifies a single piece of text with the given artifacts.
// Callers must reject blank text before calling Infer.
func Infer(classifier Classifier, vectorizer Vectorizer, text string) (result *InferenceResult, err error) {
	// Artifacts are opaque, a panic inside one fails this request only
	stage := ErrTransformFailure
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &InferenceError{Kind: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	rows, err := vectorizer.Transform([]string{text})
	if err != nil {
		return nil, &InferenceError{Kind: ErrTransformFailure, Err: err}
	}
	if len(rows) != 1 {
		return nil, &InferenceError{
			Kind: ErrTransformFailure,
			Err:  fmt.Errorf("expected 1 feature row, got %d", len(rows)),
		}
	}

	stage = ErrPredictionFailure
	classes, err := classifier.Predict(rows)
	if err != nil {
		return nil, &InferenceError{Kind: ErrPredictionFailure, Err: err}
	}
	if len(classes) != 1 {
		return nil, &InferenceError{
			Kind: ErrPredictionFailure,
			Err:  fmt.Errorf("expected 1 prediction, got %d", len(classes)),
		}
	}

	proba, err := classifier.PredictProba(rows)
	if err != nil {
		return nil, &InferenceError{Kind: ErrPredictionFailure, Err: err}
	}
	if len(proba) != 1 || len(proba[0]) == 0 {
		return nil, &InferenceError{
			Kind: ErrPredictionFailure,
			Err:  fmt.Errorf("classifier returned no probabilities"),
		}
	}

	return &InferenceResult{
		Label:      LabelFromClass(classes[0]),
		Confidence: confidencePercent(proba[0]),
	}, nil
}

// confidencePercent returns the largest class probability as a percentage in [0, 100]
func confidencePercent(dist []float64) float64 {
	best := 0.0
	for _, p := range dist {
		if !math.IsNaN(p) && p > best {
			best = p
		}
	}
	return math.Min(best*100, 100)
}

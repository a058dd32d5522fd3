package core

import (
	"fmt"
	"time"
)

// Label is the verdict assigned to a piece of email text
type Label int

const (
	// LabelSpam is assigned to anything the classifier does not mark as ham
	LabelSpam Label = iota
	// LabelLegitimate is ham
	LabelLegitimate
)

// hamClass is the class value the trained artifacts use for legitimate mail.
// Every other class value is spam.
const hamClass = 1

// LabelFromClass maps a raw class value produced by a classifier artifact to a Label
func LabelFromClass(class int) Label {
	if class == hamClass {
		return LabelLegitimate
	}
	return LabelSpam
}

// String returns the lower case name used in logs and API responses
func (l Label) String() string {
	switch l {
	case LabelLegitimate:
		return "legitimate"
	default:
		return "spam"
	}
}

// IsSpam reports whether the label is LabelSpam
func (l Label) IsSpam() bool {
	return l != LabelLegitimate
}

// SparseVector is a single row of features produced by a vectorizer.
// Indices are strictly increasing and all lie in [0, Dim).
type SparseVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// Dot returns the dot product of the vector with a dense weight row
func (v SparseVector) Dot(weights []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * weights[idx]
	}
	return sum
}

// Email represents an email message received by a mail front-end
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// Text returns the content fed to the vectorizer
func (e *Email) Text() string {
	if e.Subject == "" {
		return e.Body
	}
	return "Subject: " + e.Subject + "\n" + e.Body
}

// InferenceResult represents the outcome of classifying one piece of text
type InferenceResult struct {
	Label        Label
	Confidence   float64 // percent, within [0, 100]
	AnalyzedAt   time.Time
	ModelUsed    string
	ProcessingID string
}

// IsSpam reports whether the result is a spam verdict
func (r *InferenceResult) IsSpam() bool {
	return r.Label.IsSpam()
}

// ConfidenceDisplay formats the confidence with one decimal place
func (r *InferenceResult) ConfidenceDisplay() string {
	return fmt.Sprintf("%.1f%%", r.Confidence)
}

// OutcomeStatus tells the presentation layer which kind of answer a submission produced
type OutcomeStatus int

const (
	OutcomeResult OutcomeStatus = iota
	OutcomeWarning
	OutcomeError
	OutcomeUnavailable
)

// Outcome is the answer to a single "analyze this text" submission.
// Exactly one of Result or Message is meaningful, depending on Status.
type Outcome struct {
	Status  OutcomeStatus
	Result  *InferenceResult
	Message string
}

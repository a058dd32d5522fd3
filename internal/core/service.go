package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgUnavailable   = "Unable to load the spam detection model. Please check that the model files are available."
	msgAnalysisError = "Error during analysis: "
)

// DetectionService is the core service for spam detection
type DetectionService struct {
	loader        *ArtifactLoader
	textProcessor TextPreparer
	whitelist     SenderWhitelist
	logger        *zap.Logger
}

// NewDetectionService creates a new detection service
func NewDetectionService(
	loader *ArtifactLoader,
	textProcessor TextPreparer,
	whitelist SenderWhitelist,
	logger *zap.Logger,
) *DetectionService {
	return &DetectionService{
		loader:        loader,
		textProcessor: textProcessor,
		whitelist:     whitelist,
		logger:        logger,
	}
}

// Warmup loads the artifacts so that the first submission does not pay for it.
// The returned error is the same one every later submission will observe.
func (s *DetectionService) Warmup(ctx context.Context) error {
	_, err := s.loader.Load(ctx)
	return err
}

// Available reports whether the analysis feature can be used
func (s *DetectionService) Available(ctx context.Context) bool {
	return s.Warmup(ctx) == nil
}

// Analyze classifies text. Text that is blank once prepared yields
// ErrEmptyInput without touching the artifacts.
func (s *DetectionService) Analyze(ctx context.Context, text string) (*InferenceResult, error) {
	if s.textProcessor != nil {
		text = s.textProcessor.PrepareText(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	artifacts, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := Infer(artifacts.Classifier, artifacts.Vectorizer, text)
	if err != nil {
		s.logger.Error("Inference failed", zap.Error(err))
		return nil, err
	}
	result.AnalyzedAt = time.Now()
	result.ModelUsed = s.loader.ModelName()
	result.ProcessingID = uuid.New().String()

	s.logger.Debug("Analyzed text",
		zap.String("processing_id", result.ProcessingID),
		zap.String("label", result.Label.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}

// Submit answers a single user submission with a warning, a result, or a message
func (s *DetectionService) Submit(ctx context.Context, text string) *Outcome {
	result, err := s.Analyze(ctx, text)
	switch {
	case err == nil:
		return &Outcome{Status: OutcomeResult, Result: result}
	case errors.Is(err, ErrEmptyInput):
		return &Outcome{Status: OutcomeWarning, Message: err.Error()}
	case errors.Is(err, ErrArtifactNotFound), errors.Is(err, ErrArtifactCorrupt):
		return &Outcome{Status: OutcomeUnavailable, Message: msgUnavailable}
	default:
		return &Outcome{Status: OutcomeError, Message: msgAnalysisError + err.Error()}
	}
}

// AnalyzeEmail classifies a received message, skipping whitelisted senders
func (s *DetectionService) AnalyzeEmail(ctx context.Context, email *Email) (*InferenceResult, error) {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(email.From) {
		s.logger.Info("Skipping spam check for whitelisted domain",
			zap.String("sender_domain", senderDomain(email.From)),
			zap.String("action", "whitelist_bypass"))

		return &InferenceResult{
			Label:        LabelLegitimate,
			Confidence:   100,
			AnalyzedAt:   time.Now(),
			ModelUsed:    "whitelist",
			ProcessingID: uuid.New().String(),
		}, nil
	}

	return s.Analyze(ctx, email.Text())
}

func senderDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return ""
}

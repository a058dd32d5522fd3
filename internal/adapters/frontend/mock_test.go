package frontend

import (
	"context"
	"time"

	"github.com/mikey/spam-detector/internal/core"
	"github.com/stretchr/testify/mock"
)

type mockDetector struct {
	mock.Mock
}

func (m *mockDetector) Submit(ctx context.Context, text string) *core.Outcome {
	args := m.Called(ctx, text)
	return args.Get(0).(*core.Outcome)
}

func (m *mockDetector) AnalyzeEmail(ctx context.Context, email *core.Email) (*core.InferenceResult, error) {
	args := m.Called(ctx, email)
	result, _ := args.Get(0).(*core.InferenceResult)
	return result, args.Error(1)
}

func (m *mockDetector) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func spamResult(confidence float64) *core.InferenceResult {
	return &core.InferenceResult{
		Label:        core.LabelSpam,
		Confidence:   confidence,
		AnalyzedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ModelUsed:    "model.json",
		ProcessingID: "c0ffee00-0000-4000-8000-000000000001",
	}
}

func hamResult(confidence float64) *core.InferenceResult {
	return &core.InferenceResult{
		Label:        core.LabelLegitimate,
		Confidence:   confidence,
		AnalyzedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ModelUsed:    "model.json",
		ProcessingID: "c0ffee00-0000-4000-8000-000000000002",
	}
}

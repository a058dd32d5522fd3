package utils

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TextProcessor prepares submitted text for the vectorizer
type TextProcessor struct {
	logger       *zap.Logger
	maxInputSize int
}

// NewTextProcessor creates a new TextProcessor. A maxInputSize of 0 disables truncation.
func NewTextProcessor(logger *zap.Logger, maxInputSize int) *TextProcessor {
	return &TextProcessor{
		logger:       logger,
		maxInputSize: maxInputSize,
	}
}

// TruncateText cuts text to at most maxSize bytes without splitting a rune
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", cut),
		zap.Int("max_size", maxSize))

	return text[:cut]
}

// SanitizeUTF8 drops invalid UTF-8 sequences
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// PrepareText sanitizes then truncates text to the configured size
func (tp *TextProcessor) PrepareText(text string) string {
	return tp.TruncateText(tp.SanitizeUTF8(text), tp.maxInputSize)
}

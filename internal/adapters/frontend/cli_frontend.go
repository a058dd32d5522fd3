package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/ports"
	"go.uber.org/zap"
)

// ErrNoVerdict is returned by the CLI when a submission produced no result
var ErrNoVerdict = errors.New("no verdict")

// CLIFrontend implements a command-line interface for spam detection
type CLIFrontend struct {
	detector ports.Detector
	logger   *zap.Logger
	out      io.Writer
	verbose  bool
}

// NewCLIFrontend creates a new CLI front-end writing its report to out
func NewCLIFrontend(detector ports.Detector, logger *zap.Logger, out io.Writer, verbose bool) *CLIFrontend {
	return &CLIFrontend{
		detector: detector,
		logger:   logger,
		out:      out,
		verbose:  verbose,
	}
}

var _ ports.Frontend = (*CLIFrontend)(nil)

// CheckText analyzes pasted text and prints the outcome
func (f *CLIFrontend) CheckText(ctx context.Context, text string) (*core.Outcome, error) {
	f.logger.Debug("Checking text", zap.Int("bytes", len(text)))

	start := time.Now()
	outcome := f.detector.Submit(ctx, text)
	f.report(outcome, time.Since(start))

	if outcome.Status != core.OutcomeResult {
		return outcome, fmt.Errorf("%w: %s", ErrNoVerdict, outcome.Message)
	}
	return outcome, nil
}

// CheckMessage parses an RFC 5322 message and analyzes it the way the SMTP
// front-end would, including the sender whitelist
func (f *CLIFrontend) CheckMessage(ctx context.Context, r io.Reader) (*core.InferenceResult, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	email := &core.Email{
		From:    msg.Header.Get("From"),
		To:      splitAddresses(msg.Header.Get("To")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Headers: msg.Header,
	}

	fmt.Fprintf(f.out, "\n=== Email Summary ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	start := time.Now()
	result, err := f.detector.AnalyzeEmail(ctx, email)
	if err != nil {
		fmt.Fprintf(f.out, "\nError: %v\n", err)
		return nil, err
	}

	f.report(&core.Outcome{Status: core.OutcomeResult, Result: result}, time.Since(start))
	return result, nil
}

func (f *CLIFrontend) report(outcome *core.Outcome, duration time.Duration) {
	fmt.Fprintf(f.out, "\n=== Results ===\n")

	switch outcome.Status {
	case core.OutcomeResult:
		r := outcome.Result
		if r.IsSpam() {
			fmt.Fprintf(f.out, "Verdict: SPAM (potential spam detected)\n")
		} else {
			fmt.Fprintf(f.out, "Verdict: LEGITIMATE (ham)\n")
		}
		fmt.Fprintf(f.out, "Confidence: %s\n", r.ConfidenceDisplay())
		if f.verbose {
			fmt.Fprintf(f.out, "Model used: %s\n", r.ModelUsed)
			fmt.Fprintf(f.out, "Processing id: %s\n", r.ProcessingID)
			fmt.Fprintf(f.out, "Processing time: %v\n", duration)
		}
	case core.OutcomeWarning:
		fmt.Fprintf(f.out, "Warning: %s\n", outcome.Message)
	default:
		fmt.Fprintf(f.out, "Error: %s\n", outcome.Message)
	}
}

func splitAddresses(list string) []string {
	var out []string
	for _, addr := range strings.Split(list, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// Start is a no-op for the CLI front-end
func (f *CLIFrontend) Start() error {
	return nil
}

// Stop is a no-op for the CLI front-end
func (f *CLIFrontend) Stop() error {
	return nil
}

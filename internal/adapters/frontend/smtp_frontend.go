package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/ports"
	"go.uber.org/zap"
)

const (
	defaultSubjectPrefix   = "[**SPAM**] "
	defaultAnalysisTimeout = 10 * time.Second
	analysisErrorHeader    = "X-Spam-Analysis-Error"
)

// SMTPFrontend implements a Postfix style content filter: messages come in over
// SMTP, get classified and annotated, and are relayed to the next hop
type SMTPFrontend struct {
	detector ports.Detector
	logger   *zap.Logger
	cfg      config.SMTPConfig
	server   *smtp.Server
}

// NewSMTPFrontend creates a new SMTP content filter
func NewSMTPFrontend(detector ports.Detector, logger *zap.Logger, cfg config.SMTPConfig) *SMTPFrontend {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = defaultSubjectPrefix
	}
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = defaultAnalysisTimeout
	}

	return &SMTPFrontend{
		detector: detector,
		logger:   logger,
		cfg:      cfg,
	}
}

var _ ports.Frontend = (*SMTPFrontend)(nil)

// Start starts accepting SMTP connections in the background
func (f *SMTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.server = smtp.NewServer(&smtpBackend{frontend: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP front-end starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (f *SMTPFrontend) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// filter classifies one message and either rejects it or relays it annotated
func (f *SMTPFrontend) filter(sender string, recipients []string, raw []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		f.logger.Warn("Failed to extract text content", zap.Error(err))
	}

	email := &core.Email{
		From:    sender,
		To:      recipients,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    text,
		Headers: msg.Header,
	}

	senderDomain := "unknown"
	if at := strings.LastIndex(sender, "@"); at >= 0 {
		senderDomain = sender[at+1:]
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.AnalysisTimeout)
	defer cancel()

	result, analysisErr := f.detector.AnalyzeEmail(ctx, email)
	if analysisErr != nil {
		f.logger.Error("Failed to analyze email",
			zap.Error(analysisErr),
			zap.String("sender_domain", senderDomain))
	}

	if analysisErr == nil && result.IsSpam() && f.cfg.BlockSpam {
		f.logger.Info("Rejecting spam email",
			zap.String("sender_domain", senderDomain),
			zap.Float64("confidence", result.Confidence),
			zap.String("model", result.ModelUsed))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Rejected as spam (confidence: " + result.ConfidenceDisplay() + ")",
		}
	}

	annotated := f.annotate(raw, result, analysisErr)

	if f.cfg.RelayEnabled {
		if err := f.relay(sender, recipients, annotated); err != nil {
			f.logger.Error("Failed to relay email", zap.Error(err), zap.String("sender_domain", senderDomain))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 4, 1},
				Message:      "Next hop unavailable, try again later",
			}
		}
	} else {
		f.logger.Warn("Relay disabled, message accepted but not forwarded")
	}

	fields := []zap.Field{zap.String("sender_domain", senderDomain)}
	if result != nil {
		fields = append(fields,
			zap.String("label", result.Label.String()),
			zap.Float64("confidence", result.Confidence),
			zap.String("model", result.ModelUsed))
	}
	f.logger.Info("Processed email", fields...)

	return nil
}

// annotate prepends the verdict headers and, for spam, prefixes the subject.
// The original header order and body bytes are kept.
func (f *SMTPFrontend) annotate(raw []byte, result *core.InferenceResult, analysisErr error) []byte {
	header, body := splitMessage(raw)

	var out bytes.Buffer
	if analysisErr != nil || result == nil {
		fmt.Fprintf(&out, "%s: Unknown\r\n", f.cfg.StatusHeader)
		if analysisErr != nil {
			fmt.Fprintf(&out, "%s: %s\r\n", analysisErrorHeader, singleLine(analysisErr.Error()))
		}
	} else {
		status := "No"
		if result.IsSpam() {
			status = "Yes"
		}
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.StatusHeader, status)
		fmt.Fprintf(&out, "%s: %.1f\r\n", f.cfg.ConfidenceHeader, result.Confidence)
		fmt.Fprintf(&out, "%s: %s\r\n", f.cfg.LabelHeader, result.Label.String())

		if result.IsSpam() && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" {
			header = prefixSubject(header, f.cfg.SubjectPrefix)
		}
	}

	out.Write(header)
	out.Write(body)
	return out.Bytes()
}

// splitMessage splits raw at the end of the header block. The returned header
// keeps the line ending of its last field, body starts with the blank line.
func splitMessage(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+2:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+1:]
	}
	return raw, nil
}

// prefixSubject rewrites the Subject field of a header block, unfolding it
func prefixSubject(header []byte, prefix string) []byte {
	lines := bytes.SplitAfter(header, []byte("\n"))

	var out bytes.Buffer
	found := false
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if found || len(line) < 8 || !strings.EqualFold(string(line[:8]), "subject:") {
			out.Write(line)
			continue
		}
		found = true

		eol := "\r\n"
		if !bytes.HasSuffix(line, []byte("\r\n")) {
			eol = "\n"
		}

		field := append([]byte(nil), line...)
		value := strings.TrimSpace(string(line[8:]))
		for i+1 < len(lines) && len(lines[i+1]) > 0 && (lines[i+1][0] == ' ' || lines[i+1][0] == '\t') {
			i++
			field = append(field, lines[i]...)
			value += " " + strings.TrimSpace(string(lines[i]))
		}

		subject := decodeHeader(value)
		if strings.HasPrefix(subject, prefix) {
			out.Write(field)
			continue
		}
		fmt.Fprintf(&out, "Subject: %s%s", mime.QEncoding.Encode("utf-8", prefix+subject), eol)
	}

	if !found {
		fmt.Fprintf(&out, "Subject: %s\r\n", strings.TrimSpace(prefix))
	}
	return out.Bytes()
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// relay sends the processed email on to the next hop
func (f *SMTPFrontend) relay(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.cfg.RelayAddress, strconv.Itoa(f.cfg.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to next hop: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient", zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	frontend *SMTPFrontend
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{frontend: b.frontend}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	frontend   *SMTPFrontend
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.frontend.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}
	return s.frontend.filter(s.sender, s.recipients, raw)
}

func (s *smtpSession) Logout() error {
	return nil
}

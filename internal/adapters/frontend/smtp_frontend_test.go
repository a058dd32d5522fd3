package frontend

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const rawMessage = "From: alice@example.com\r\n" +
	"To: bob@example.org\r\n" +
	"Subject: Win money\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Claim your prize at noon.\r\n"

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		StatusHeader:     "X-Spam-Status",
		ConfidenceHeader: "X-Spam-Confidence",
		LabelHeader:      "X-Spam-Label",
		SubjectPrefix:    "[**SPAM**] ",
		AnalysisTimeout:  time.Second,
	}
}

func TestAnnotateHam(t *testing.T) {
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), testSMTPConfig())

	out := string(f.annotate([]byte(rawMessage), hamResult(88), nil))

	assert.True(t, strings.HasPrefix(out,
		"X-Spam-Status: No\r\nX-Spam-Confidence: 88.0\r\nX-Spam-Label: legitimate\r\n"))
	assert.True(t, strings.HasSuffix(out, rawMessage))
}

func TestAnnotateSpamPrefixesSubject(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg)

	out := string(f.annotate([]byte(rawMessage), spamResult(97), nil))

	assert.Contains(t, out, "X-Spam-Status: Yes\r\n")
	assert.Contains(t, out, "X-Spam-Label: spam\r\n")
	assert.Contains(t, out, "Subject: [**SPAM**] Win money\r\n")
	assert.NotContains(t, out, "Subject: Win money\r\n")
	assert.Contains(t, out, "From: alice@example.com\r\nTo: bob@example.org\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nClaim your prize at noon.\r\n"))
}

func TestAnnotateSubjectAlreadyPrefixed(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg)

	raw := strings.Replace(rawMessage, "Subject: Win money", "Subject: [**SPAM**] Win money", 1)
	out := string(f.annotate([]byte(raw), spamResult(97), nil))

	assert.Equal(t, 1, strings.Count(out, "[**SPAM**]"))
}

func TestAnnotateFoldedSubject(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg)

	raw := "Subject: Win\r\n big money\r\nFrom: a@b.c\r\n\r\nbody\r\n"
	out := string(f.annotate([]byte(raw), spamResult(97), nil))

	assert.Contains(t, out, "Subject: [**SPAM**] Win big money\r\nFrom: a@b.c\r\n")
}

func TestAnnotateHamKeepsSubject(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg)

	out := string(f.annotate([]byte(rawMessage), hamResult(60), nil))

	assert.NotContains(t, out, "[**SPAM**]")
}

func TestAnnotateAnalysisError(t *testing.T) {
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), testSMTPConfig())

	out := string(f.annotate([]byte(rawMessage), nil, errors.New("transform\nfailed")))

	assert.True(t, strings.HasPrefix(out, "X-Spam-Status: Unknown\r\nX-Spam-Analysis-Error: transform failed\r\n"))
	assert.NotContains(t, out, "X-Spam-Label")
}

func TestFilterRejectsSpam(t *testing.T) {
	detector := new(mockDetector)
	detector.On("AnalyzeEmail", mock.Anything, mock.Anything).Return(spamResult(97), nil)

	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f := NewSMTPFrontend(detector, zap.NewNop(), cfg)

	err := f.filter("alice@example.com", []string{"bob@example.org"}, []byte(rawMessage))

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 550, smtpErr.Code)
	assert.Contains(t, smtpErr.Message, "97.0%")
}

func TestFilterDoesNotRejectOnAnalysisError(t *testing.T) {
	detector := new(mockDetector)
	detector.On("AnalyzeEmail", mock.Anything, mock.Anything).Return(nil, core.ErrEmptyInput)

	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f := NewSMTPFrontend(detector, zap.NewNop(), cfg)

	assert.NoError(t, f.filter("alice@example.com", []string{"bob@example.org"}, []byte(rawMessage)))
}

func TestFilterMalformedMessage(t *testing.T) {
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), testSMTPConfig())

	err := f.filter("alice@example.com", []string{"bob@example.org"}, []byte("this is not a header\r\n"))

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 554, smtpErr.Code)
}

func TestSessionPassesEnvelope(t *testing.T) {
	detector := new(mockDetector)
	detector.On("AnalyzeEmail", mock.Anything, mock.MatchedBy(func(e *core.Email) bool {
		return e.From == "alice@example.com" &&
			len(e.To) == 1 && e.To[0] == "bob@example.org" &&
			e.Subject == "Win money" &&
			strings.Contains(e.Body, "Claim your prize")
	})).Return(hamResult(70), nil)

	f := NewSMTPFrontend(detector, zap.NewNop(), testSMTPConfig())
	s := &smtpSession{frontend: f}

	require.NoError(t, s.Mail("alice@example.com", nil))
	require.NoError(t, s.Rcpt("bob@example.org", nil))
	require.NoError(t, s.Data(strings.NewReader(rawMessage)))
	detector.AssertExpectations(t)

	s.Reset()
	assert.Empty(t, s.sender)
	assert.Empty(t, s.recipients)
}

type capturedMessage struct {
	from string
	to   []string
	data string
}

type captureBackend struct {
	messages chan capturedMessage
}

func (b *captureBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &captureSession{backend: b}, nil
}

type captureSession struct {
	backend *captureBackend
	msg     capturedMessage
}

func (s *captureSession) Reset() { s.msg = capturedMessage{} }

func (s *captureSession) Logout() error { return nil }

func (s *captureSession) Mail(from string, _ *smtp.MailOptions) error {
	s.msg.from = from
	return nil
}

func (s *captureSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.msg.to = append(s.msg.to, to)
	return nil
}

func (s *captureSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.data = string(data)
	s.backend.messages <- s.msg
	return nil
}

func startNextHop(t *testing.T) (*captureBackend, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	backend := &captureBackend{messages: make(chan capturedMessage, 1)}
	server := smtp.NewServer(backend)
	server.Domain = "localhost"
	go server.Serve(ln)
	t.Cleanup(func() { server.Close() })

	return backend, ln.Addr().(*net.TCPAddr).Port
}

func TestFilterRelaysAnnotatedMessage(t *testing.T) {
	nextHop, port := startNextHop(t)

	detector := new(mockDetector)
	detector.On("AnalyzeEmail", mock.Anything, mock.Anything).Return(hamResult(88), nil)

	cfg := testSMTPConfig()
	cfg.RelayEnabled = true
	cfg.RelayAddress = "127.0.0.1"
	cfg.RelayPort = port
	f := NewSMTPFrontend(detector, zap.NewNop(), cfg)

	require.NoError(t, f.filter("alice@example.com", []string{"bob@example.org"}, []byte(rawMessage)))

	select {
	case msg := <-nextHop.messages:
		assert.Equal(t, "alice@example.com", msg.from)
		assert.Equal(t, []string{"bob@example.org"}, msg.to)
		assert.Contains(t, msg.data, "X-Spam-Status: No")
		assert.Contains(t, msg.data, "X-Spam-Label: legitimate")
		assert.Contains(t, msg.data, "Claim your prize at noon.")
	case <-time.After(5 * time.Second):
		t.Fatal("message was not relayed")
	}
}

func TestFilterRelayUnavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	detector := new(mockDetector)
	detector.On("AnalyzeEmail", mock.Anything, mock.Anything).Return(hamResult(88), nil)

	cfg := testSMTPConfig()
	cfg.RelayEnabled = true
	cfg.RelayAddress = "127.0.0.1"
	cfg.RelayPort = port
	f := NewSMTPFrontend(detector, zap.NewNop(), cfg)

	err = f.filter("alice@example.com", []string{"bob@example.org"}, []byte(rawMessage))

	var smtpErr *smtp.SMTPError
	require.True(t, errors.As(err, &smtpErr))
	assert.Equal(t, 451, smtpErr.Code)
}

func TestStartStop(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	f := NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg)

	require.NoError(t, f.Start())
	assert.NoError(t, f.Stop())
}

func TestStartListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testSMTPConfig()
	cfg.ListenAddress = ln.Addr().String()

	assert.Error(t, NewSMTPFrontend(new(mockDetector), zap.NewNop(), cfg).Start())
}

package frontend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/ports"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// HTTPFrontend serves the single page detector and a JSON API
type HTTPFrontend struct {
	detector ports.Detector
	logger   *zap.Logger
	cfg      config.HTTPConfig
	engine   *gin.Engine
	server   *http.Server
}

// NewHTTPFrontend creates the web front-end and registers its routes
func NewHTTPFrontend(detector ports.Detector, logger *zap.Logger, cfg config.HTTPConfig) (*HTTPFrontend, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	f := &HTTPFrontend{
		detector: detector,
		logger:   logger,
		cfg:      cfg,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(logger), LimitBody(cfg.MaxBodyBytes))
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", f.index)
	engine.POST("/analyze", f.analyzeForm)
	engine.GET("/healthz", f.health)

	api := engine.Group("/api/v1")
	api.POST("/analyze", f.analyzeJSON)

	f.engine = engine
	return f, nil
}

var _ ports.Frontend = (*HTTPFrontend)(nil)

// Handler returns the router, mainly for tests
func (f *HTTPFrontend) Handler() http.Handler {
	return f.engine
}

// Start binds the listen address and serves in the background
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.server = &http.Server{
		Addr:         f.cfg.ListenAddress,
		Handler:      f.engine,
		ReadTimeout:  f.cfg.ReadTimeout,
		WriteTimeout: f.cfg.WriteTimeout,
	}

	f.logger.Info("HTTP front-end starting", zap.String("address", f.cfg.ListenAddress))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop waits for in-flight requests and shuts the server down
func (f *HTTPFrontend) Stop() error {
	if f.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return f.server.Shutdown(ctx)
}

type pageData struct {
	Available bool
	Text      string
	Warning   string
	Error     string
	Result    *core.InferenceResult
}

type formInput struct {
	Text string `form:"text"`
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Label             string    `json:"label"`
	IsSpam            bool      `json:"is_spam"`
	Confidence        float64   `json:"confidence"`
	ConfidenceDisplay string    `json:"confidence_display"`
	Model             string    `json:"model"`
	ProcessingID      string    `json:"processing_id"`
	AnalyzedAt        time.Time `json:"analyzed_at"`
}

type messageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (f *HTTPFrontend) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{
		Available: f.detector.Available(c.Request.Context()),
	})
}

func (f *HTTPFrontend) analyzeForm(c *gin.Context) {
	var form formInput
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", pageData{
			Available: true,
			Error:     "The submitted form could not be read.",
		})
		return
	}

	outcome := f.detector.Submit(c.Request.Context(), form.Text)

	data := pageData{Available: true, Text: form.Text}
	switch outcome.Status {
	case core.OutcomeResult:
		data.Result = outcome.Result
	case core.OutcomeWarning:
		data.Warning = outcome.Message
	case core.OutcomeUnavailable:
		data.Available = false
	default:
		data.Error = outcome.Message
	}

	c.HTML(statusFor(outcome), "index.html", data)
}

func (f *HTTPFrontend) analyzeJSON(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageResponse{Status: "invalid", Message: "invalid request body"})
		return
	}

	outcome := f.detector.Submit(c.Request.Context(), req.Text)
	if outcome.Status != core.OutcomeResult {
		c.JSON(statusFor(outcome), messageResponse{
			Status:  statusName(outcome.Status),
			Message: outcome.Message,
		})
		return
	}

	r := outcome.Result
	c.JSON(http.StatusOK, analyzeResponse{
		Label:             r.Label.String(),
		IsSpam:            r.IsSpam(),
		Confidence:        r.Confidence,
		ConfidenceDisplay: r.ConfidenceDisplay(),
		Model:             r.ModelUsed,
		ProcessingID:      r.ProcessingID,
		AnalyzedAt:        r.AnalyzedAt,
	})
}

func (f *HTTPFrontend) health(c *gin.Context) {
	if !f.detector.Available(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, messageResponse{Status: "unavailable", Message: "artifacts not loaded"})
		return
	}
	c.JSON(http.StatusOK, messageResponse{Status: "ok"})
}

func statusFor(outcome *core.Outcome) int {
	switch outcome.Status {
	case core.OutcomeResult:
		return http.StatusOK
	case core.OutcomeWarning:
		return http.StatusUnprocessableEntity
	case core.OutcomeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func statusName(status core.OutcomeStatus) string {
	switch status {
	case core.OutcomeResult:
		return "ok"
	case core.OutcomeWarning:
		return "warning"
	case core.OutcomeUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

package factory

import (
	"fmt"
	"os"

	"github.com/mikey/spam-detector/internal/adapters/frontend"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates front-ends based on configuration
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.DetectionService
}

// NewFrontendFactory creates a new front-end factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, service *core.DetectionService) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateFrontend creates a front-end based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	frontendType := f.cfg.GetString("server.frontend_type")

	switch frontendType {
	case "http":
		return frontend.NewHTTPFrontend(f.service, f.logger, f.cfg.GetHTTP())
	case "smtp":
		return frontend.NewSMTPFrontend(f.service, f.logger, f.cfg.GetSMTP()), nil
	case "cli":
		return f.CreateCLIFrontend(), nil
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", frontendType)
	}
}

// CreateCLIFrontend creates the front-end used by the check command
func (f *FrontendFactory) CreateCLIFrontend() *frontend.CLIFrontend {
	return frontend.NewCLIFrontend(f.service, f.logger, os.Stdout, f.cfg.GetBool("cli.verbose"))
}

package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/adapters/frontend"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/factory"
	"github.com/mikey/spam-detector/internal/logging"
)

// CLIOptions contains the command line settings of the check command
type CLIOptions struct {
	Verbose bool
	JSONLog bool
}

// BuildCLIContainer creates and configures a dependency injection container for the check command
func BuildCLIContainer(cfg *config.Config, opts CLIOptions) (*dig.Container, error) {
	container := dig.New()

	cfg.Set("server.frontend_type", "cli")
	cfg.Set("cli.verbose", opts.Verbose)

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func() (*zap.Logger, error) {
		return logging.InitConsoleLogger(opts.Verbose, opts.JSONLog)
	}); err != nil {
		return nil, err
	}

	if err := provideDetection(container); err != nil {
		return nil, err
	}

	// Register CLI front-end
	if err := container.Provide(func(f *factory.FrontendFactory) *frontend.CLIFrontend {
		return f.CreateCLIFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

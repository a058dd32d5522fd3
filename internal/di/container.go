package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-detector/internal/artifact"
	"github.com/mikey/spam-detector/internal/config"
	"github.com/mikey/spam-detector/internal/core"
	"github.com/mikey/spam-detector/internal/factory"
	"github.com/mikey/spam-detector/internal/logging"
	"github.com/mikey/spam-detector/internal/ports"
	"github.com/mikey/spam-detector/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container for
// the long running front-ends
func BuildContainer(cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideDetection(container); err != nil {
		return nil, err
	}

	// Register front-end
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideDetection registers everything between the configuration and the detection service
func provideDetection(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return err
	}

	// Register artifact source and codec
	if err := container.Provide(func(f *factory.SourceFactory) (core.ArtifactSource, error) {
		return f.CreateArtifactSource(context.Background())
	}); err != nil {
		return err
	}
	if err := container.Provide(func() core.ArtifactDecoder {
		return artifact.NewCodec()
	}); err != nil {
		return err
	}

	// Register artifact loader
	if err := container.Provide(func(
		src core.ArtifactSource,
		decoder core.ArtifactDecoder,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.ArtifactLoader {
		artifacts := cfg.GetArtifacts()
		logger.Info("Using artifact source",
			zap.String("source", src.Describe()),
			zap.String("model", artifacts.Model),
			zap.String("vectorizer", artifacts.Vectorizer))
		return core.NewArtifactLoader(src, decoder, artifacts.Model, artifacts.Vectorizer, logger)
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) core.TextPreparer {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register whitelisted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderWhitelist {
		whitelistedDomains := cfg.GetStringSlice("spam.whitelisted_domains")
		if len(whitelistedDomains) > 0 {
			logger.Info("Loaded whitelisted domains", zap.Strings("domains", whitelistedDomains))
		}
		return whitelist.NewChecker(whitelistedDomains, logger)
	}); err != nil {
		return err
	}

	// Register detection service
	return container.Provide(core.NewDetectionService)
}

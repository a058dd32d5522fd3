package logging

import (
	"fmt"

	"github.com/mikey/spam-detector/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const loggerName = "spam-detector"

// InitLogger builds the service logger from the logging.* settings.
// Logs go to logging.output, which accepts "stderr", "stdout" or a file path.
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	return build(options{
		level:  parseLevel(cfg.GetString("logging.level")),
		json:   cfg.GetString("logging.format") == "json",
		output: cfg.GetString("logging.output"),
	})
}

// InitConsoleLogger builds the logger used by the check command. Only
// warnings are shown unless verbose so stderr stays quiet next to the report.
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return build(options{level: level, json: jsonFormat, output: "stderr"})
}

type options struct {
	level  zapcore.Level
	json   bool
	output string
}

func parseLevel(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func build(opts options) (*zap.Logger, error) {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.json {
		logConfig = zap.NewProductionConfig()
		logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(opts.level)

	if opts.output != "" {
		logConfig.OutputPaths = []string{opts.output}
	}

	logger, err := logConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Named(loggerName), nil
}

package app

import (
	"context"

	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
)

// ExecuteConfigInitCommand writes a configuration file with default settings.
func ExecuteConfigInitCommand(ctx context.Context, path string, force bool) {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if err := config.WriteDefaultConfig(path, force); err != nil {
		logger.Fatalf(ctx, "Failed to write configuration: %v", err)
	}

	logger.Infof(ctx, "Configuration written to %s", path)
}

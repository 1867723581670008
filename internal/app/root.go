package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/oshokin/gettools/internal/client/cds"
	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/service/tools"
)

// ExecuteRootCommand is the entry point for the application.
// It initializes the CDS client and the tools service, then retrieves the tools.
// A failure to find the tools is reported and is not fatal.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config) {
	ctx = logger.WithKV(ctx, "run_id", uuid.NewString())

	s := tools.NewService(cfg, newCDSClient(ctx, cfg))

	if err := runFetch(ctx, s); err != nil {
		logger.Fatalf(ctx, "Failed to retrieve tools: %v", err)
	}
}

// runFetch runs the service and turns the expected failures into log messages.
// Only unexpected failures are returned.
func runFetch(ctx context.Context, s tools.Service) error {
	// Ensure statistics are printed even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintSummary(ctx)
	}()

	err := s.Fetch(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, tools.ErrToolsNotFound):
		logger.ErrorKV(ctx, "Couldn't find tools", "error", err)

		return nil
	case ctx.Err() != nil:
		logger.Warnf(ctx, "Interrupted: %v", err)

		return nil
	default:
		return err
	}
}

func newCDSClient(ctx context.Context, cfg *config.Config) cds.Client {
	cdsClient, err := cds.NewClient(cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize CDS client: %v", err)
	}

	return cdsClient
}

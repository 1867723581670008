package app

import (
	"context"
	"fmt"
	"io"

	"github.com/oshokin/gettools/internal/client/cds"
	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
)

// ExecuteVersionsCommand prints the product versions published on the CDS, newest last.
func ExecuteVersionsCommand(ctx context.Context, cfg *config.Config, out io.Writer) {
	cdsClient := newCDSClient(ctx, cfg)

	logger.Debugf(ctx, "Listing versions at %s", cdsClient.GetBaseURL())

	if err := listVersions(ctx, cdsClient, out); err != nil {
		logger.Fatalf(ctx, "Failed to list versions: %v", err)
	}
}

// ExecuteBuildsCommand prints the builds published for a version, newest last.
// The version "latest" is resolved through the CDS listing first.
func ExecuteBuildsCommand(ctx context.Context, cfg *config.Config, version string, out io.Writer) {
	if err := listBuilds(ctx, newCDSClient(ctx, cfg), version, out); err != nil {
		logger.Fatalf(ctx, "Failed to list builds: %v", err)
	}
}

func listVersions(ctx context.Context, cdsClient cds.Client, out io.Writer) error {
	versions, err := cdsClient.ListVersions(ctx)
	if err != nil {
		return err
	}

	return printLines(out, versions)
}

func listBuilds(ctx context.Context, cdsClient cds.Client, version string, out io.Writer) error {
	if version == config.LatestVersion {
		versions, err := cdsClient.ListVersions(ctx)
		if err != nil {
			return err
		}

		latest, ok := cds.Latest(versions)
		if !ok {
			return cds.ErrEmptyListing
		}

		logger.Infof(ctx, "Latest version is %s", latest)

		version = latest
	}

	builds, err := cdsClient.ListBuilds(ctx, version)
	if err != nil {
		return err
	}

	return printLines(out, builds)
}

func printLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}

	return nil
}

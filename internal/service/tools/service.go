package tools

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/gettools/internal/client/cds"
	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/constants"
	"github.com/oshokin/gettools/internal/logger"
)

// Service retrieves the darwin tools images into the tools folder.
type Service interface {
	// Fetch runs the whole retrieval pipeline.
	Fetch(ctx context.Context) error
	// PrintSummary prints a formatted summary of the last run.
	PrintSummary(ctx context.Context)
}

// ServiceImpl implements Service on top of a CDS client.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// cdsClient is the client for the vendor CDS.
	cdsClient cds.Client
	// stats tracks statistics of the current run.
	stats *Statistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// workPaths holds every path a run touches inside the tools folder.
type workPaths struct {
	toolsPath   string
	archivePath string
	zipPath     string
	payloadPath string
}

// NewService creates a tools service.
func NewService(cfg *config.Config, cdsClient cds.Client) Service {
	return &ServiceImpl{
		cfg:        cfg,
		cdsClient:  cdsClient,
		stats:      new(Statistics),
		statsMutex: new(sync.Mutex),
	}
}

func newWorkPaths(toolsPath string) *workPaths {
	return &workPaths{
		toolsPath:   toolsPath,
		archivePath: filepath.Join(toolsPath, cds.CoreArchiveName),
		zipPath:     filepath.Join(toolsPath, InnerZipName),
		payloadPath: filepath.Join(toolsPath, PayloadFolderName),
	}
}

// Fetch runs the whole retrieval pipeline.
// Every failure after the tools folder is prepared is wrapped with ErrToolsNotFound,
// except for cancellation of ctx, which is returned as is.
func (s *ServiceImpl) Fetch(ctx context.Context) error {
	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	version, build, err := s.resolveRelease(ctx)
	if err != nil {
		return s.toolsNotFound(ctx, "failed to resolve release", err)
	}

	archiveURL, err := s.cdsClient.ArchiveURL(version, build)
	if err != nil {
		return s.toolsNotFound(ctx, "failed to build archive URL", err)
	}

	s.statsMutex.Lock()
	s.stats.Version = version
	s.stats.Build = build
	s.stats.ArchiveURL = archiveURL
	s.statsMutex.Unlock()

	paths := newWorkPaths(s.cfg.OutputPath)

	err = prepareToolsFolder(paths.toolsPath)
	if err != nil {
		return fmt.Errorf("failed to prepare tools folder: %w", err)
	}

	var succeeded bool

	defer func() {
		if !succeeded {
			removeIntermediates(ctx, paths)
		}
	}()

	logger.Infof(ctx, "Getting tools from Fusion version %s...", version)

	bytesDownloaded, err := s.downloadArchive(ctx, archiveURL, paths.archivePath)
	if err != nil {
		return s.toolsNotFound(ctx, "failed to download archive", err)
	}

	s.statsMutex.Lock()
	s.stats.BytesDownloaded = bytesDownloaded
	s.statsMutex.Unlock()

	toolPaths, err := s.extractTools(ctx, paths)
	if err != nil {
		return s.toolsNotFound(ctx, "failed to extract tools", err)
	}

	err = removeArtifacts(paths)
	if err != nil {
		return s.toolsNotFound(ctx, "failed to clean up", err)
	}

	succeeded = true

	s.statsMutex.Lock()
	s.stats.ToolPaths = toolPaths
	s.statsMutex.Unlock()

	logger.Info(ctx, "Tools retrieved successfully")

	return nil
}

// extractTools pulls the inner zip out of the archive, extracts the ISO images,
// and moves them to the top of the tools folder.
func (s *ServiceImpl) extractTools(ctx context.Context, paths *workPaths) ([]string, error) {
	logger.Infof(ctx, "Extracting %s...", cds.CoreArchiveName)

	_, err := ExtractTarMember(paths.archivePath, InnerZipName, paths.toolsPath)
	if err != nil {
		return nil, err
	}

	logger.Infof(ctx, "Extracting files from %s...", InnerZipName)

	isoNames := ISONames()
	members := make([]string, 0, len(isoNames))

	for _, isoName := range isoNames {
		members = append(members, ISOMemberName(s.cfg.Arch, isoName))
	}

	extracted, err := ExtractZipMembers(paths.zipPath, members, paths.toolsPath)
	if err != nil {
		return nil, err
	}

	toolPaths := make([]string, 0, len(extracted))

	for i, source := range extracted {
		destination := filepath.Join(paths.toolsPath, isoNames[i])

		err = MoveFile(source, destination)
		if err != nil {
			return nil, err
		}

		logger.Debugf(ctx, "Moved %s to %s", source, destination)

		toolPaths = append(toolPaths, destination)
	}

	return toolPaths, nil
}

// resolveRelease turns the configured version and build into concrete values.
// The latest version always takes the newest build of that version.
func (s *ServiceImpl) resolveRelease(ctx context.Context) (string, string, error) {
	version, build := s.cfg.ProductVersion, s.cfg.Build

	if version == config.LatestVersion {
		versions, err := s.cdsClient.ListVersions(ctx)
		if err != nil {
			return "", "", fmt.Errorf("failed to list versions: %w", err)
		}

		latest, ok := cds.Latest(versions)
		if !ok {
			return "", "", fmt.Errorf("%w: versions", ErrNoReleases)
		}

		logger.Debugf(ctx, "Resolved latest version to %s", latest)

		version, build = latest, ""
	}

	if build != "" {
		return version, build, nil
	}

	builds, err := s.cdsClient.ListBuilds(ctx, version)
	if err != nil {
		return "", "", fmt.Errorf("failed to list builds of version %s: %w", version, err)
	}

	newest, ok := cds.Latest(builds)
	if !ok {
		return "", "", fmt.Errorf("%w: builds of version %s", ErrNoReleases, version)
	}

	logger.Debugf(ctx, "Resolved build of version %s to %s", version, newest)

	return version, newest, nil
}

// toolsNotFound wraps err with ErrToolsNotFound unless ctx was canceled.
func (s *ServiceImpl) toolsNotFound(ctx context.Context, message string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%s: %w", message, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrToolsNotFound, message, err)
}

// prepareToolsFolder removes the tools folder ignoring errors and creates it again empty.
func prepareToolsFolder(toolsPath string) error {
	_ = os.RemoveAll(toolsPath)

	return os.MkdirAll(toolsPath, constants.DefaultFolderPermissions)
}

// removeArtifacts removes the payload folder ignoring errors, then the archive and the zip.
func removeArtifacts(paths *workPaths) error {
	_ = os.RemoveAll(paths.payloadPath)

	err := os.Remove(paths.archivePath)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", paths.archivePath, err)
	}

	err = os.Remove(paths.zipPath)
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", paths.zipPath, err)
	}

	return nil
}

// removeIntermediates is the best-effort cleanup of a failed run.
func removeIntermediates(ctx context.Context, paths *workPaths) {
	for _, path := range []string{
		paths.payloadPath,
		paths.archivePath,
		paths.archivePath + constants.ExtensionPart,
		paths.zipPath,
	} {
		if err := os.RemoveAll(path); err != nil {
			logger.Warnf(ctx, "Failed to clean up '%s': %v", path, err)
		}
	}
}

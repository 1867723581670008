package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/gettools/internal/constants"
	"github.com/oshokin/gettools/internal/logger"
)

const overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// downloadArchive streams the archive at archiveURL into archivePath and returns the number of bytes written.
// The body goes to a .part file first, which is renamed into place on success and removed otherwise.
func (s *ServiceImpl) downloadArchive(ctx context.Context, archiveURL, archivePath string) (int64, error) {
	fetchResult, err := s.cdsClient.FetchArchive(ctx, archiveURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch archive: %w", err)
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	checkFreeSpace(ctx, filepath.Dir(archivePath), fetchResult.TotalBytes)

	tempFilePath := archivePath + constants.ExtensionPart

	f, err := os.OpenFile(filepath.Clean(tempFilePath), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	var (
		downloadSucceeded bool
		fileClosed        bool
	)

	defer func() {
		if !fileClosed {
			_ = f.Close()
		}

		if downloadSucceeded {
			return
		}

		if removeErr := os.Remove(tempFilePath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempFilePath, removeErr)
		}
	}()

	var (
		writer io.Writer = f
		bar    *progressbar.ProgressBar
	)

	if s.cfg.ShowProgress && logger.Level() <= zap.InfoLevel {
		bar = progressbar.DefaultBytes(fetchResult.TotalBytes, "Downloading")
		writer = io.MultiWriter(f, bar)
	}

	bytesWritten, err := s.copyWithLimit(ctx, writer, fetchResult.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if fetchResult.TotalBytes >= 0 && bytesWritten != fetchResult.TotalBytes {
		return 0, fmt.Errorf(
			"%w: wrote %d bytes, expected %d bytes",
			ErrIncompleteDownload,
			bytesWritten,
			fetchResult.TotalBytes,
		)
	}

	if bar != nil {
		_ = bar.Finish()
	}

	fileClosed = true

	err = f.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to close temporary file: %w", err)
	}

	err = os.Rename(tempFilePath, archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	downloadSucceeded = true

	return bytesWritten, nil
}

// copyWithLimit copies src to dst, at most ParsedDownloadSpeedLimit bytes per second when a limit is set.
func (s *ServiceImpl) copyWithLimit(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	limit := s.cfg.ParsedDownloadSpeedLimit
	if limit <= 0 {
		return io.Copy(dst, src)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(dst, src, limit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		select {
		case <-ctx.Done():
			return bytesWritten, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

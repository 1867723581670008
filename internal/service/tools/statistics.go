package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/utils"
)

// Statistics describes a single retrieval run.
type Statistics struct {
	// Version is the resolved product version.
	Version string
	// Build is the resolved build number.
	Build string
	// ArchiveURL is the URL the core archive was downloaded from.
	ArchiveURL string
	// BytesDownloaded is the size of the downloaded archive.
	BytesDownloaded int64
	// ToolPaths lists the final ISO image paths.
	ToolPaths []string
	// StartTime is when the run started.
	StartTime time.Time
	// EndTime is when the run finished.
	EndTime time.Time
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// PrintSummary prints a formatted summary of the last run.
func (s *ServiceImpl) PrintSummary(ctx context.Context) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	// Nothing was resolved, so there is nothing to report.
	if stats.Version == "" {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	logger.Info(ctx, "                       TOOLS SUMMARY")
	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
	logger.Infof(ctx, "Release:          %s (build %s)", stats.Version, stats.Build)
	logger.Infof(ctx, "Source:           %s", stats.ArchiveURL)

	if stats.BytesDownloaded > 0 {
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(utils.SafeInt64ToUint64(stats.BytesDownloaded)))
	}

	if !stats.StartTime.IsZero() && !stats.EndTime.IsZero() {
		duration := stats.EndTime.Sub(stats.StartTime)
		logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

		if stats.BytesDownloaded > 0 && duration > 0 {
			bytesPerSecond := float64(stats.BytesDownloaded) / duration.Seconds()
			logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
		}
	}

	for _, toolPath := range stats.ToolPaths {
		logger.Infof(ctx, "Saved:            %s", toolPath)
	}

	logger.Info(ctx, "═══════════════════════════════════════════════════════════════")
}

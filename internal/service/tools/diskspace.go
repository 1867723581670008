package tools

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/utils"
)

// requiredSpaceFactor accounts for the archive and the inner zip existing at the same time.
const requiredSpaceFactor = 2

// freeSpace returns the free bytes of the filesystem holding path.
func freeSpace(ctx context.Context, path string) (uint64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}

	return usage.Free, nil
}

// checkFreeSpace warns when path is unlikely to hold an archive of archiveBytes and its contents.
// It reports false only when the space is known to be short.
func checkFreeSpace(ctx context.Context, path string, archiveBytes int64) bool {
	if archiveBytes <= 0 {
		return true
	}

	free, err := freeSpace(ctx, path)
	if err != nil {
		logger.Debugf(ctx, "Failed to get free disk space of '%s': %v", path, err)

		return true
	}

	needed := utils.SafeInt64ToUint64(archiveBytes) * requiredSpaceFactor
	if free >= needed {
		return true
	}

	logger.Warnf(ctx, "Only %s is free in '%s', about %s is needed",
		humanize.Bytes(free), path, humanize.Bytes(needed))

	return false
}

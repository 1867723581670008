package tools

import (
	"path/filepath"

	"github.com/oshokin/gettools/internal/utils"
)

const (
	// InnerZipName is the zip member of the core tar archive.
	InnerZipName = "com.vmware.fusion.zip"

	// PayloadFolderName is the top-level folder of the inner zip.
	PayloadFolderName = "payload"

	// DarwinISOName is the tools image for current guest releases.
	DarwinISOName = "darwin.iso"

	// DarwinPre15ISOName is the tools image for guests older than 10.15.
	DarwinPre15ISOName = "darwinPre15.iso"
)

// isoImagesFolder is the location of the ISO images inside the payload, without the arch folder.
//
//nolint:gochecknoglobals // Immutable path segments used as a constant.
var isoImagesFolder = []string{PayloadFolderName, "VMware Fusion.app", "Contents", "Library", "isoimages"}

// ISONames lists the images extracted on every run, in extraction order.
func ISONames() []string {
	return []string{DarwinISOName, DarwinPre15ISOName}
}

// ISOMemberName returns the zip member name of an ISO image for the given arch.
func ISOMemberName(arch, isoName string) string {
	elements := append(append([]string{}, isoImagesFolder...), arch, isoName)

	return utils.ConvertPath(filepath.Join(elements...))
}

package cds

const (
	// CoreArchiveName is the tar archive holding the application payload.
	CoreArchiveName = "com.vmware.fusion.zip.tar"

	// listingsCacheSize bounds the number of cached directory listings.
	// A run touches the root listing and at most one build listing per version.
	listingsCacheSize = 64
)

package http

import "time"

const (
	// DefaultTimeout is the default timeout for CDS requests.
	// The archive is several hundred megabytes, so it is generous.
	DefaultTimeout = 30 * time.Minute

	// DefaultUserAgent mimics a desktop browser; the CDS refuses unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36" //nolint: lll
)

package cds

import "io"

// FetchArchiveResult is an open archive download.
type FetchArchiveResult struct {
	// Body streams the archive; the caller must close it.
	Body io.ReadCloser
	// TotalBytes is the Content-Length, or -1 when the server did not send one.
	TotalBytes int64
}

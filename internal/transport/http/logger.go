package http

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
	"github.com/oshokin/gettools/internal/utils"
)

// LogTransport is an http.RoundTripper that logs requests and responses at debug level.
// Bodies are only dumped for text content types, so archive downloads log headers only.
type LogTransport struct {
	next         http.RoundTripper
	maxLogLength uint64
}

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
)

// NewLogTransport creates and returns a new instance of LogTransport.
// If maxLogLength is 0, it defaults to config.DefaultMaxLogLength.
func NewLogTransport(next http.RoundTripper, maxLogLength uint64) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	if maxLogLength == 0 {
		maxLogLength = config.DefaultMaxLogLength
	}

	return &LogTransport{
		next:         next,
		maxLogLength: maxLogLength,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *LogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	requestDump := t.dumpRequest(req)
	startTime := time.Now()

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.DebugKV(ctx, "Request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"duration", duration,
			"error", err)

		return nil, err
	}

	logger.DebugKV(ctx, "Request completed",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"duration", duration)
	logger.Debugf(ctx, "Request: %s\nResponse: %s", requestDump, t.dumpResponse(resp))

	return resp, nil
}

func (t *LogTransport) dumpRequest(req *http.Request) string {
	// GET requests to the CDS have no body worth dumping.
	dump, err := httputil.DumpRequest(req, false)
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) dumpResponse(resp *http.Response) string {
	contentType := resp.Header.Get("Content-Type")

	dump, err := httputil.DumpResponse(resp, utils.IsTextContentType(contentType))
	if err != nil {
		return err.Error()
	}

	return t.truncate(dump)
}

func (t *LogTransport) truncate(data []byte) string {
	if uint64(len(data)) > t.maxLogLength {
		return string(data[:t.maxLogLength]) + "... [truncated]"
	}

	return string(data)
}

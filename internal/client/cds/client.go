package cds

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oshokin/gettools/internal/config"
	"github.com/oshokin/gettools/internal/logger"
	http_transport "github.com/oshokin/gettools/internal/transport/http"
	"github.com/oshokin/gettools/internal/utils"
)

// Client defines the interface for interacting with the CDS.
type Client interface {
	// ArchiveURL builds the URL of the core archive for a version and build.
	ArchiveURL(version, build string) (string, error)
	// FetchArchive opens a streaming download of the archive at archiveURL.
	FetchArchive(ctx context.Context, archiveURL string) (*FetchArchiveResult, error)
	// GetBaseURL returns the CDS root URL.
	GetBaseURL() string
	// ListBuilds returns the build numbers published for a version, oldest first.
	ListBuilds(ctx context.Context, version string) ([]string, error)
	// ListVersions returns the product versions published on the CDS, oldest first.
	ListVersions(ctx context.Context) ([]string, error)
}

// ClientImpl implements the Client interface over HTTP.
type ClientImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// baseURL is the CDS root, always ending with a slash.
	baseURL string
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
	// listingsCache caches parsed directory listings by URL.
	listingsCache *lru.Cache[string, []string]
}

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	baseURL, err := url.Parse(cfg.CDSBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CDS base URL: %w", err)
	}

	timeout := cfg.ParsedRequestTimeout
	if timeout <= 0 {
		timeout = http_transport.DefaultTimeout
	}

	httpClient := &http.Client{
		Transport: http_transport.NewUserAgentInjector(
			http_transport.NewLogTransport(http.DefaultTransport, 0),
			utils.NewStaticUserAgentProvider(cfg.UserAgent, http_transport.DefaultUserAgent)),
		Timeout: timeout,
	}

	listingsCache, err := lru.New[string, []string](listingsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create listings cache: %w", err)
	}

	return &ClientImpl{
		cfg:           cfg,
		baseURL:       baseURL.String(),
		httpClient:    httpClient,
		listingsCache: listingsCache,
	}, nil
}

// ArchiveURL builds the URL of the core archive for a version and build.
func (c *ClientImpl) ArchiveURL(version, build string) (string, error) {
	if version == "" {
		return "", ErrEmptyVersion
	}

	if build == "" {
		return "", ErrEmptyBuild
	}

	return url.JoinPath(c.baseURL, version, build, c.cfg.Platform, CoreArchiveName)
}

// FetchArchive opens a streaming download of the archive at archiveURL.
func (c *ClientImpl) FetchArchive(ctx context.Context, archiveURL string) (*FetchArchiveResult, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return &FetchArchiveResult{
		Body:       response.Body,
		TotalBytes: response.ContentLength,
	}, nil
}

// GetBaseURL returns the CDS root URL.
func (c *ClientImpl) GetBaseURL() string {
	return c.baseURL
}

// ListBuilds returns the build numbers published for a version, oldest first.
func (c *ClientImpl) ListBuilds(ctx context.Context, version string) ([]string, error) {
	if version == "" {
		return nil, ErrEmptyVersion
	}

	listingURL, err := url.JoinPath(c.baseURL, version, "/")
	if err != nil {
		return nil, err
	}

	return c.fetchListing(ctx, listingURL)
}

// ListVersions returns the product versions published on the CDS, oldest first.
func (c *ClientImpl) ListVersions(ctx context.Context) ([]string, error) {
	return c.fetchListing(ctx, c.baseURL)
}

func (c *ClientImpl) fetchListing(ctx context.Context, listingURL string) ([]string, error) {
	if entries, ok := c.listingsCache.Get(listingURL); ok {
		logger.Debugf(ctx, "Using cached listing for %s", listingURL)

		return slices.Clone(entries), nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	entries, err := ParseListing(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing %s: %w", listingURL, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyListing, listingURL)
	}

	c.listingsCache.Add(listingURL, slices.Clone(entries))

	return entries, nil
}

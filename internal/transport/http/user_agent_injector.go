package http

import (
	"net/http"

	"github.com/oshokin/gettools/internal/utils"
)

// UserAgentInjector is an http.RoundTripper that adds a User-Agent header to requests lacking one.
type UserAgentInjector struct {
	next              http.RoundTripper
	userAgentProvider utils.UserAgentProvider
}

// userAgentHeader is the HTTP header name for User-Agent.
const userAgentHeader = "User-Agent"

// NewUserAgentInjector wraps next so that every request carries a User-Agent.
func NewUserAgentInjector(next http.RoundTripper, userAgentProvider utils.UserAgentProvider) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return &UserAgentInjector{
		next:              next,
		userAgentProvider: userAgentProvider,
	}
}

// RoundTrip implements http.RoundTripper.
// The caller's request is cloned before the header is set, as RoundTrippers must not mutate it.
func (t *UserAgentInjector) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if req.Header.Get(userAgentHeader) != "" {
		return t.next.RoundTrip(req)
	}

	userAgent := t.userAgentProvider.GetUserAgent()
	if userAgent == "" {
		return t.next.RoundTrip(req)
	}

	cloned := req.Clone(req.Context())
	cloned.Header.Set(userAgentHeader, userAgent)

	return t.next.RoundTrip(cloned)
}

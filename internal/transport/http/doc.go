// Package http provides custom HTTP transport utilities,
// including request/response logging and User-Agent header injection.
// Both are http.RoundTripper decorators meant to be chained around http.DefaultTransport.
package http

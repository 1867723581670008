package cds

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptyListing indicates that a directory listing contained no numeric entries.
	ErrEmptyListing = errors.New("directory listing has no entries")
	// ErrEmptyVersion indicates that a version was required but not given.
	ErrEmptyVersion = errors.New("version cannot be empty")
	// ErrEmptyBuild indicates that a build was required but not given.
	ErrEmptyBuild = errors.New("build cannot be empty")
)

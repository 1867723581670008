package tools

import "errors"

var (
	// ErrToolsNotFound is the single user-facing failure: the tools could not be retrieved.
	ErrToolsNotFound = errors.New("couldn't find tools")
	// ErrNoReleases indicates that the CDS listing had no version or build to choose from.
	ErrNoReleases = errors.New("no releases listed")
	// ErrIncompleteDownload indicates that the downloaded size doesn't match Content-Length.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrMemberNotFound indicates that an archive lacks a required member.
	ErrMemberNotFound = errors.New("archive member not found")
	// ErrIllegalMemberPath indicates a member name that would escape the destination folder.
	ErrIllegalMemberPath = errors.New("illegal archive member path")
	// ErrUnsupportedMember indicates a member that is not a regular file.
	ErrUnsupportedMember = errors.New("archive member is not a regular file")
)

// Package tools retrieves the darwin tools ISO images from the vendor CDS.
// A run resolves the release, recreates the tools folder, downloads the core tar archive,
// pulls the inner zip out of it, extracts the two ISO images from the zip,
// moves them to the top of the tools folder, and removes every intermediate artifact.
package tools

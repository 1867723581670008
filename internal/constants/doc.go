// Package constants holds filesystem permissions and file extensions shared across packages.
package constants

// Package app wires the configuration, the CDS client, and the tools service
// together for each command of the gettools CLI.
package app

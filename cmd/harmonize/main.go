// Package main provides the entry point for the harmonize CLI.
//
// Harmonize automates importing streaming-service albums into
// MusicBrainz via the Harmony web tool. It drives a real browser
// through the seeded release editor, keeps a human in the loop for the
// review pauses, and records every import in a local history database.
//
// Usage:
//
//	harmonize import <album-url>
//	harmonize import --list <file>
//
// See --help for all available options.
package main

// main is the entry point for harmonize.
func main() {
	Execute()
}

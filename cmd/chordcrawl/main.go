// Package main provides the entry point for the chordcrawl CLI.
//
// chordcrawl collects song chord metadata from public chord sites.
// It crawls each source's artist directory, extracts one record per
// published transcription, and writes the result as a CSV table.
//
// Usage:
//
//	chordcrawl crawl ultimate-guitar
//	chordcrawl crawl wywrota
//	chordcrawl status wywrota
//
// See --help for all available options.
package main

// main is the entry point for chordcrawl.
func main() {
	Execute()
}

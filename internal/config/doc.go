// Package config provides configuration structures and utilities for chordcrawl.
// It defines the main configuration options for crawling chord sources,
// fetch politeness settings, and report generation preferences.
package config

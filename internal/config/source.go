package config

// SourceConfig holds per-source overrides loaded from the config file.
// This allows pointing a source at a mirror or narrowing a long crawl
// without repeating flags on every invocation.
type SourceConfig struct {
	// BaseURL overrides the source's site root. Useful for mirrors and
	// for integration testing against a local server.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Prefixes restricts the Ultimate Guitar band directory to the given
	// prefixes. Ignored by other sources.
	Prefixes []string `yaml:"prefixes,omitempty"`

	// Letters restricts the Wywrota artist index to the given letters.
	// Ignored by other sources.
	Letters []string `yaml:"letters,omitempty"`

	// ExplorePages overrides the ranked explore page bound.
	// If zero, the global ExplorePages is used.
	ExplorePages int `yaml:"explorePages,omitempty"`

	// Concurrency overrides the fetch admission limit for this source.
	// If zero, the global Concurrency is used.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// File represents the structure of the .chordcrawl configuration file.
type File struct {
	// Sources maps source names to their overrides.
	// Keys are the CLI source names (e.g. "ultimate-guitar").
	Sources map[string]SourceConfig `yaml:"sources,omitempty"`

	// Defaults contains overrides applied to all sources unless a
	// source-specific entry overrides them again.
	Defaults SourceConfig `yaml:"defaults,omitempty"`
}

// GetSourceConfig returns the merged configuration for the named source:
// defaults first, then the source-specific entry on top.
func (cf *File) GetSourceConfig(source string) SourceConfig {
	result := cf.Defaults

	if sc, ok := cf.Sources[source]; ok {
		if sc.BaseURL != "" {
			result.BaseURL = sc.BaseURL
		}
		if len(sc.Prefixes) > 0 {
			result.Prefixes = sc.Prefixes
		}
		if len(sc.Letters) > 0 {
			result.Letters = sc.Letters
		}
		if sc.ExplorePages != 0 {
			result.ExplorePages = sc.ExplorePages
		}
		if sc.Concurrency != 0 {
			result.Concurrency = sc.Concurrency
		}
	}

	return result
}

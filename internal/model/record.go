package model

// TabLink is one extracted song record: a link to a chords page plus the
// metadata the source lists next to it. It is immutable once produced and
// has no identity beyond its field values; deduplication, if any, is the
// consumer's concern.
//
// Design decision: Optional fields are pointers rather than zero values
// because the sources genuinely distinguish "no rating yet" from "rating
// of zero". The extractors normalize falsy source values (0, null, "") to
// nil so that downstream output leaves those cells empty.
type TabLink struct {
	// Artist is the performer or band name as listed by the source.
	Artist string `json:"artist"`

	// Title is the song title.
	Title string `json:"title"`

	// URL is the absolute URL of the chords page. Always present.
	URL string `json:"url"`

	// Version numbers alternative transcriptions of the same song.
	// Sources that publish a single transcription use 1.
	Version int `json:"version"`

	// Rating is the average user rating, absent when the source has none.
	Rating *float64 `json:"rating,omitempty"`

	// Votes is the number of rating votes, absent when the source has none.
	Votes *float64 `json:"votes,omitempty"`

	// Difficulty is the source's difficulty label (e.g. "intermediate").
	Difficulty *string `json:"difficulty,omitempty"`

	// Tonality is the musical key the transcription is written in.
	Tonality *string `json:"tonality_name,omitempty"`

	// Views is the popularity count joined from the source's hit table.
	// Only ranked result pages carry it.
	Views *int `json:"views,omitempty"`
}

// NewTabLink returns a record with the required fields set and Version
// defaulted to 1.
func NewTabLink(artist, title, url string) TabLink {
	return TabLink{
		Artist:  artist,
		Title:   title,
		URL:     url,
		Version: 1,
	}
}

// Float64Ptr normalizes an optional numeric source value: falsy (zero)
// values become absent rather than stored as zero.
func Float64Ptr(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

// IntPtr normalizes an optional integer source value, mapping zero to absent.
func IntPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// StringPtr normalizes an optional string source value, mapping the empty
// string to absent.
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

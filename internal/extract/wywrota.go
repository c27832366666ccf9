package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kwitek/chordcrawl/internal/model"
)

// Wywrota defaults.
const (
	// DefaultWywrotaBaseURL is the songbook root.
	DefaultWywrotaBaseURL = "https://spiewnik.wywrota.pl"

	// guitarIcon is the instrument icon title that marks a song as
	// having guitar chords. Songs with other icons are skipped.
	guitarIcon = "Gitara"
)

// DefaultWywrotaLetters returns the artist index letters A..Z.
func DefaultWywrotaLetters() []string {
	letters := make([]string, 0, 26)
	for r := 'A'; r <= 'Z'; r++ {
		letters = append(letters, string(r))
	}
	return letters
}

// Wywrota is the site adapter for the spiewnik.wywrota.pl songbook.
// Unlike Ultimate Guitar it has no embedded JSON: the letter index and
// per-artist song lists are plain markup, queried with selectors.
//
// The artist name appears only on the letter page, so detail refs carry
// it in their Label and song records are stamped with it on extraction.
type Wywrota struct {
	// baseURL is the songbook root.
	baseURL string

	// letters are the artist index letters to seed.
	letters []string
}

// WywrotaOption configures a Wywrota source.
type WywrotaOption func(*Wywrota)

// WithWywrotaBaseURL overrides the songbook root, e.g. for tests.
func WithWywrotaBaseURL(u string) WywrotaOption {
	return func(s *Wywrota) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithWywrotaLetters overrides the index letters to crawl.
func WithWywrotaLetters(letters []string) WywrotaOption {
	return func(s *Wywrota) {
		if len(letters) > 0 {
			s.letters = letters
		}
	}
}

// NewWywrota creates the Wywrota source adapter.
func NewWywrota(opts ...WywrotaOption) *Wywrota {
	s := &Wywrota{
		baseURL: DefaultWywrotaBaseURL,
		letters: DefaultWywrotaLetters(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs, file names, and reports.
func (s *Wywrota) Name() string {
	return "wywrota"
}

// Partitions returns one partition per index letter. Letters are fully
// independent of each other, which is what makes the bounded-parallel
// shape safe for this source.
func (s *Wywrota) Partitions() []Partition {
	partitions := make([]Partition, 0, len(s.letters))
	for _, letter := range s.letters {
		partitions = append(partitions, Partition{
			Name: "letter/" + letter,
			Seeds: []model.PageRef{{
				URL:  fmt.Sprintf("%s/country/PL/letter/%s/artists", s.baseURL, letter),
				Kind: model.ListPage,
			}},
		})
	}
	return partitions
}

// Extract classifies one fetched page: letter pages yield artist detail
// refs, artist pages yield guitar song records.
func (s *Wywrota) Extract(ref model.PageRef, body []byte) (Classification, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Classification{}, fmt.Errorf("%w: parse markup: %v", ErrMalformedPage, err)
	}

	if ref.Kind == model.ListPage {
		refs, err := s.artistRefs(doc)
		if err != nil {
			return Classification{}, err
		}
		return Classification{Refs: refs}, nil
	}

	records, err := s.songRecords(ref, doc)
	if err != nil {
		return Classification{}, err
	}
	return Classification{Records: records}, nil
}

// artistRefs extracts artist page refs from a letter index page. The
// artists sit in the second row of the page's main section; an empty
// anchor list means the page did not render its listing, which is
// indistinguishable from a layout change and so counts as malformed.
func (s *Wywrota) artistRefs(doc *goquery.Document) ([]model.PageRef, error) {
	rows := doc.Find("body section div.row")
	if rows.Length() < 2 {
		return nil, fmt.Errorf("%w: artist listing section missing", ErrMalformedPage)
	}

	var refs []model.PageRef
	rows.Eq(1).Find("a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(a.Text())
		if name == "" {
			return
		}
		refs = append(refs, model.PageRef{
			URL:   strings.TrimSpace(href),
			Kind:  model.DetailPage,
			Label: name,
		})
	})
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no artists in listing", ErrMalformedPage)
	}
	return refs, nil
}

// songRecords extracts guitar songs from an artist page. Each list item
// carries an instrument icon; only the guitar icon qualifies. The artist
// name comes from the ref's label because song rows do not repeat it.
func (s *Wywrota) songRecords(ref model.PageRef, doc *goquery.Document) ([]model.TabLink, error) {
	group := doc.Find(".song-list-group")
	if group.Length() == 0 {
		return nil, fmt.Errorf("%w: song list missing", ErrMalformedPage)
	}

	var records []model.TabLink
	group.Find("li").Each(func(_ int, li *goquery.Selection) {
		if li.Find("span").AttrOr("title", "") != guitarIcon {
			return
		}
		anchor := li.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return
		}
		records = append(records, model.NewTabLink(ref.Label, title, href))
	})
	return records, nil
}

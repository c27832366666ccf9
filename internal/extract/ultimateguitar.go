package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kwitek/chordcrawl/internal/model"
)

// Ultimate Guitar defaults. The directory prefixes match the site's own
// band index: one bucket for names starting with a digit, then a..z.
const (
	// DefaultUGBaseURL is the site root all relative artist URLs hang off.
	DefaultUGBaseURL = "https://www.ultimate-guitar.com"

	// DefaultExplorePages bounds the ranked explore pages fetched per run.
	// The explore listing is effectively endless; twenty pages cover the
	// popular end of it, which is all the popularity join needs.
	DefaultExplorePages = 20
)

// DefaultUGPrefixes returns the band directory prefixes: "0-9" then a..z.
func DefaultUGPrefixes() []string {
	prefixes := []string{"0-9"}
	for r := 'a'; r <= 'z'; r++ {
		prefixes = append(prefixes, string(r))
	}
	return prefixes
}

// UltimateGuitar is the site adapter for the Ultimate Guitar band
// directory and explore listings. Every page embeds one JSON blob in the
// data-content attribute of a .js-store element; all extraction is typed
// decoding of that blob.
//
// Design decision: The extractor is a pure function of (ref, body). It
// performs no network I/O and no retries of its own; unusable payloads
// surface as ErrMalformedPage and the fetch loop decides what to do.
type UltimateGuitar struct {
	// baseURL is prepended to relative artist URLs from the payload.
	baseURL string

	// prefixes are the band directory buckets to seed.
	prefixes []string

	// explorePages is how many ranked explore pages to seed. Zero
	// disables the explore partition.
	explorePages int
}

// UGOption configures an UltimateGuitar source.
type UGOption func(*UltimateGuitar)

// WithUGBaseURL overrides the site root, e.g. to point at a test server.
func WithUGBaseURL(u string) UGOption {
	return func(s *UltimateGuitar) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUGPrefixes overrides the directory prefixes to crawl.
func WithUGPrefixes(prefixes []string) UGOption {
	return func(s *UltimateGuitar) {
		if len(prefixes) > 0 {
			s.prefixes = prefixes
		}
	}
}

// WithExplorePages sets how many ranked explore pages to seed.
// Zero disables the explore partition entirely.
func WithExplorePages(n int) UGOption {
	return func(s *UltimateGuitar) {
		if n >= 0 {
			s.explorePages = n
		}
	}
}

// NewUltimateGuitar creates the Ultimate Guitar source adapter.
func NewUltimateGuitar(opts ...UGOption) *UltimateGuitar {
	s := &UltimateGuitar{
		baseURL:      DefaultUGBaseURL,
		prefixes:     DefaultUGPrefixes(),
		explorePages: DefaultExplorePages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the source in logs, file names, and reports.
func (s *UltimateGuitar) Name() string {
	return "ultimate-guitar"
}

// Partitions returns one partition per directory prefix, plus one
// partition holding the bounded explore page range.
func (s *UltimateGuitar) Partitions() []Partition {
	partitions := make([]Partition, 0, len(s.prefixes)+1)
	for _, prefix := range s.prefixes {
		partitions = append(partitions, Partition{
			Name: "bands/" + prefix,
			Seeds: []model.PageRef{{
				URL:      s.bandsURL(prefix, 1),
				Kind:     model.ListPage,
				Sequence: 1,
			}},
		})
	}
	if s.explorePages > 0 {
		seeds := make([]model.PageRef, 0, s.explorePages)
		for page := 1; page <= s.explorePages; page++ {
			seeds = append(seeds, model.PageRef{
				URL:      s.exploreURL(page),
				Kind:     model.ListPage,
				Sequence: page,
			})
		}
		partitions = append(partitions, Partition{Name: "explore", Seeds: seeds})
	}
	return partitions
}

// bandsURL builds a band directory page URL. Page 1 carries no page
// number ("bands/a.htm"); later pages append it ("bands/a2.htm").
func (s *UltimateGuitar) bandsURL(prefix string, page int) string {
	if page <= 1 {
		return fmt.Sprintf("%s/bands/%s.htm", s.baseURL, prefix)
	}
	return fmt.Sprintf("%s/bands/%s%d.htm", s.baseURL, prefix, page)
}

// exploreURL builds a ranked explore page URL.
func (s *UltimateGuitar) exploreURL(page int) string {
	return fmt.Sprintf("%s/explore?order=hitstotal_desc&type[]=Chords&page=%d", s.baseURL, page)
}

// Extract classifies one fetched page. List pages yield further refs
// (artist pages, sibling directory pages) or, for explore pages,
// terminal records with the popularity side table joined in. Detail
// pages yield the artist's qualifying chord transcriptions.
func (s *UltimateGuitar) Extract(ref model.PageRef, body []byte) (Classification, error) {
	data, err := s.pageData(body)
	if err != nil {
		return Classification{}, err
	}

	switch {
	case ref.Kind == model.DetailPage:
		return Classification{Records: s.artistRecords(data)}, nil
	case len(data.Tabs) > 0:
		return Classification{Records: s.exploreRecords(data)}, nil
	default:
		return Classification{Refs: s.directoryRefs(ref, data)}, nil
	}
}

// ugEnvelope mirrors the outer structure of the js-store blob. Data is
// held raw so emptiness can be checked before committing to a shape.
type ugEnvelope struct {
	Store struct {
		Page struct {
			Data json.RawMessage `json:"data"`
		} `json:"page"`
	} `json:"store"`
}

// ugPageData is the typed payload shared by all Ultimate Guitar page
// families. Each family populates a different subset of the fields.
type ugPageData struct {
	// PageCount is the number of sibling directory pages. Only page 1
	// of a series reports it.
	PageCount int `json:"page_count"`

	// Artists is the band directory listing.
	Artists []ugArtist `json:"artists"`

	// OtherTabs lists an artist page's transcriptions.
	OtherTabs []ugTab `json:"other_tabs"`

	// Tabs lists an explore page's ranked results.
	Tabs []ugTab `json:"tabs"`

	// Hits is the popularity side table keyed by tab id.
	Hits []ugHit `json:"hits"`
}

// ugArtist is one band directory entry.
type ugArtist struct {
	Name      string `json:"name"`
	ArtistURL string `json:"artist_url"`
	TabsCount int    `json:"tabscount"`
}

// ugTab is one transcription row, shared by artist and explore pages.
type ugTab struct {
	ID            int64   `json:"id"`
	ArtistName    string  `json:"artist_name"`
	SongName      string  `json:"song_name"`
	TabURL        string  `json:"tab_url"`
	Version       int     `json:"version"`
	Rating        float64 `json:"rating"`
	Votes         float64 `json:"votes"`
	Difficulty    string  `json:"difficulty"`
	TonalityName  string  `json:"tonality_name"`
	Type          string  `json:"type"`
	Tuning        string  `json:"tuning"`
	MarketingType string  `json:"marketing_type"`
}

// ugHit is one popularity side-table row.
type ugHit struct {
	ID   int64 `json:"id"`
	Hits int   `json:"hits"`
}

// pageData digs the typed payload out of the page markup. Every failure
// mode maps onto the single ErrMalformedPage path: missing container,
// undecodable blob, or an empty payload.
func (s *UltimateGuitar) pageData(body []byte) (*ugPageData, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse markup: %v", ErrMalformedPage, err)
	}

	raw, ok := doc.Find(".js-store").Attr("data-content")
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: no js-store payload", ErrMalformedPage)
	}

	var envelope ugEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", ErrMalformedPage, err)
	}
	if emptyPayload(envelope.Store.Page.Data) {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPage)
	}

	var data ugPageData
	if err := json.Unmarshal(envelope.Store.Page.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: decode page data: %v", ErrMalformedPage, err)
	}
	return &data, nil
}

// emptyPayload reports whether the raw data field decodes to an empty or
// falsy structure. The upstream serves such payloads briefly while new
// pages propagate through its caches.
func emptyPayload(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "false", "0", `""`, "{}", "[]":
		return true
	}
	return false
}

// directoryRefs extracts child refs from a band directory page: one
// detail ref per artist with at least one transcription, plus (from
// page 1 only) refs for sibling pages 2..N.
func (s *UltimateGuitar) directoryRefs(ref model.PageRef, data *ugPageData) []model.PageRef {
	refs := make([]model.PageRef, 0, len(data.Artists))
	for _, artist := range data.Artists {
		if artist.TabsCount <= 0 {
			continue
		}
		refs = append(refs, model.PageRef{
			URL:   s.baseURL + artist.ArtistURL,
			Kind:  model.DetailPage,
			Label: artist.Name,
		})
	}

	if ref.Sequence <= 1 && data.PageCount > 1 {
		for page := 2; page <= data.PageCount; page++ {
			refs = append(refs, model.PageRef{
				URL:      pagedURL(ref.URL, page),
				Kind:     model.ListPage,
				Sequence: page,
			})
		}
	}
	return refs
}

// pagedURL derives the URL of sibling page n from a page-1 directory URL
// of the form ".../bands/<prefix>.htm".
func pagedURL(firstPage string, page int) string {
	base := strings.TrimSuffix(firstPage, ".htm")
	return fmt.Sprintf("%s%d.htm", base, page)
}

// artistRecords extracts the qualifying transcriptions from an artist
// page: chords only, standard tuning, and nothing premium or official.
func (s *UltimateGuitar) artistRecords(data *ugPageData) []model.TabLink {
	records := make([]model.TabLink, 0, len(data.OtherTabs))
	for _, tab := range data.OtherTabs {
		if !qualifies(tab) {
			continue
		}
		records = append(records, tabRecord(tab, nil))
	}
	return records
}

// exploreRecords extracts terminal records from a ranked explore page,
// joining the popularity side table by tab id. The explore listing is
// already filtered server-side (the seed URL asks for chords only), and
// its rows may omit the type and tuning fields, so no row filter is
// applied here.
func (s *UltimateGuitar) exploreRecords(data *ugPageData) []model.TabLink {
	hits := make(map[int64]int, len(data.Hits))
	for _, h := range data.Hits {
		hits[h.ID] = h.Hits
	}

	records := make([]model.TabLink, 0, len(data.Tabs))
	for _, tab := range data.Tabs {
		var views *int
		if n, ok := hits[tab.ID]; ok {
			views = model.IntPtr(n)
		}
		records = append(records, tabRecord(tab, views))
	}
	return records
}

// qualifies applies the content filters: the row must be a chords
// transcription in standard tuning, and not a premium or official one.
func qualifies(tab ugTab) bool {
	if tab.Type != "Chords" || tab.Tuning != "Standard" {
		return false
	}
	switch tab.MarketingType {
	case "TabPro", "official":
		return false
	}
	return true
}

// tabRecord converts one payload row into a terminal record, normalizing
// falsy optional fields to absent.
func tabRecord(tab ugTab, views *int) model.TabLink {
	record := model.NewTabLink(tab.ArtistName, tab.SongName, tab.TabURL)
	if tab.Version > 0 {
		record.Version = tab.Version
	}
	record.Rating = model.Float64Ptr(tab.Rating)
	record.Votes = model.Float64Ptr(tab.Votes)
	record.Difficulty = model.StringPtr(tab.Difficulty)
	record.Tonality = model.StringPtr(tab.TonalityName)
	record.Views = views
	return record
}

// Package store scrapes a music storefront's web search and turns result
// pages into structured candidates for scoring.
package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParserUnavailable indicates the HTML document could not be constructed
// at all. This is a setup failure, not "no results", and callers must not
// treat it as an empty result set.
var ErrParserUnavailable = errors.New("html parser unavailable")

// Query is the text being searched for. At least one field must be non-empty.
type Query struct {
	Track  string
	Artist string
	Album  string
}

// Validate fails fast on a query with no usable fields.
func (q Query) Validate() error {
	if q.Track == "" && q.Artist == "" && q.Album == "" {
		return fmt.Errorf("query requires at least one of track, artist or album")
	}
	return nil
}

// Raw returns the query as a single raw search term, unnormalized.
// Cache keys hash this exact string.
func (q Query) Raw() string {
	var parts []string
	for _, p := range []string{q.Track, q.Artist, q.Album} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Candidate is one scraped search-result item. Index is the 0-based position
// in the result list and is stable for a given page.
type Candidate struct {
	Index    int    `json:"index"`
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Link     string `json:"link,omitempty"`

	// Genres are the genre labels the storefront shows on the tile or
	// item page, when present.
	Genres []string `json:"genres,omitempty"`
}

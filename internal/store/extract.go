package store

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coverscout/internal/normalize"
)

// Structural paths into the storefront's search markup. The fallback selector
// covers the older list layout the site still serves on some locales.
const (
	resultSelector         = "ul.search-results > li.result"
	resultFallbackSelector = "div#search-results div.result-item"
	metaSelector           = ".meta, .subtitle"
)

var (
	// "Artist - Album", "Artist – Album", "Artist: Album"
	dashColonSplit = regexp.MustCompile(`^(.*?)\s*[-–—:]\s+(.+)$`)
	// "Title by Artist" phrasing used on some result tiles
	titleByArtist = regexp.MustCompile(`^(.+?)\s+by\s+(.+)$`)
	// dimension token in artwork URLs, e.g. ".../cover/300x300/..."
	artworkDimensions = regexp.MustCompile(`\d+x\d+`)
)

// Extract walks the search-result nodes of doc and returns up to maxCandidates
// structured candidates (maxCandidates <= 0 means unlimited). A page without
// the expected structure yields an empty slice and no error: a storefront
// layout change is indistinguishable from genuinely empty results.
func Extract(doc *goquery.Document, maxCandidates int) ([]Candidate, error) {
	if doc == nil {
		return nil, ErrParserUnavailable
	}

	nodes := doc.Find(resultSelector)
	if nodes.Length() == 0 {
		nodes = doc.Find(resultFallbackSelector)
	}

	candidates := make([]Candidate, 0, nodes.Length())
	nodes.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if maxCandidates > 0 && len(candidates) >= maxCandidates {
			return false
		}
		c := extractOne(sel)
		c.Index = len(candidates)
		candidates = append(candidates, c)
		return true
	})
	return candidates, nil
}

func extractOne(sel *goquery.Selection) Candidate {
	var c Candidate

	c.ImageURL = imageURL(sel.Find("img").First())

	link := sel.Find("a").First()
	if title, ok := link.Attr("title"); ok && strings.TrimSpace(title) != "" {
		c.Title = strings.TrimSpace(title)
	} else {
		c.Title = strings.TrimSpace(link.Text())
	}
	if href, ok := link.Attr("href"); ok {
		c.Link = href
	}

	meta := strings.TrimSpace(sel.Find(metaSelector).First().Text())
	c.Artist, c.Album = splitCompound(meta)

	// Some tiles phrase the whole match as "Title by Artist" with no
	// separate artist block.
	if c.Artist == "" {
		if m := titleByArtist.FindStringSubmatch(c.Title); m != nil {
			c.Title = strings.TrimSpace(m[1])
			c.Artist = strings.TrimSpace(m[2])
		}
	}

	c.Genres = genreLabels(sel)

	return c
}

func genreLabels(sel *goquery.Selection) []string {
	var genres []string
	sel.Find(".genre, a.genre-link").Each(func(_ int, s *goquery.Selection) {
		if g := strings.TrimSpace(s.Text()); g != "" {
			genres = append(genres, g)
		}
	})
	return genres
}

// imageURL prefers the lazy-load attribute over the realized src: the
// storefront serves a 1x1 placeholder in src until the tile scrolls into view.
func imageURL(img *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-original", "src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// splitCompound splits a compound "Artist • Album" text block. Split
// preference: bullet, newline, dash/colon, else the whole block is the album.
func splitCompound(text string) (artist, album string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}

	if i := strings.Index(text, "•"); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+len("•"):])
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
	}
	if m := dashColonSplit.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", text
}

// ExtractFromPage pulls at most one candidate from a single-item page
// (album or track detail). preferredSize, when positive, rewrites the artwork
// URL's dimension token to request that square size. When trackHint is
// non-empty the page's track listing must contain it (normalized) or no
// candidate is returned.
func ExtractFromPage(doc *goquery.Document, preferredSize int, trackHint string) ([]Candidate, error) {
	if doc == nil {
		return nil, ErrParserUnavailable
	}

	image, ok := doc.Find(`meta[property="og:image"]`).Attr("content")
	if !ok || strings.TrimSpace(image) == "" {
		image = imageURL(doc.Find("div.album-art img, img.artwork").First())
	}
	if image == "" {
		return nil, nil
	}
	if preferredSize > 0 {
		size := artworkDimensions.FindString(image)
		if size != "" {
			image = strings.Replace(image, size, sizeToken(preferredSize), 1)
		}
	}

	if trackHint != "" && !pageListsTrack(doc, trackHint) {
		return nil, nil
	}

	c := Candidate{
		ImageURL: strings.TrimSpace(image),
		Title:    strings.TrimSpace(doc.Find("h1").First().Text()),
		Artist:   strings.TrimSpace(doc.Find("h2.artist, .album-artist").First().Text()),
		Genres:   genreLabels(doc.Selection),
	}
	return []Candidate{c}, nil
}

func pageListsTrack(doc *goquery.Document, hint string) bool {
	want := normalize.Normalize(hint)
	if want == "" {
		return true
	}
	found := false
	doc.Find("ol.tracks li, ul.track-list li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(normalize.Normalize(s.Text()), want) {
			found = true
			return false
		}
		return true
	})
	return found
}

func sizeToken(size int) string {
	s := strconv.Itoa(size)
	return s + "x" + s
}

// Package normalize canonicalizes free-text metadata so that strings from
// different sources (scraped HTML, file tags, user input) compare equal when
// they mean the same thing.
package normalize

import (
	"html"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks ("café" → "cafe"),
// and recomposes to NFC.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Dash- and apostrophe-like variants map to a space rather than being deleted,
// so "B-52's" tokenizes as "b 52 s" instead of collapsing into "b52s".
var separatorLikeRunes = map[rune]bool{
	'-': true, '–': true, '—': true, '−': true, '‐': true, '‑': true,
	'\'': true, '’': true, '‘': true, '`': true, '´': true,
}

var (
	memoMu sync.Mutex
	memo   = make(map[string]string)
)

// Normalize canonicalizes s for comparison: HTML entities decoded, lowercased,
// separator-like punctuation and all other non letter/digit runes replaced
// with spaces, diacritics stripped, whitespace collapsed and trimmed.
// An empty input yields an empty output. Normalize is idempotent.
//
// Results are memoized; batch runs normalize the same tag values over and over.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	memoMu.Lock()
	cached, ok := memo[s]
	memoMu.Unlock()
	if ok {
		return cached
	}

	out := normalize(s)

	memoMu.Lock()
	memo[s] = out
	memoMu.Unlock()
	return out
}

func normalize(s string) string {
	s = html.UnescapeString(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case separatorLikeRunes[r]:
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	stripped, _, err := transform.String(stripMarks, b.String())
	if err != nil {
		// Transform failure leaves marks in place; still comparable.
		stripped = b.String()
	}

	return strings.Join(strings.Fields(stripped), " ")
}

// Tokens returns the whitespace-delimited tokens of the normalized form of s.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Equal reports whether a and b normalize to the same string.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

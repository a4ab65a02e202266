// Package match scores scraped candidates against a query and ranks them.
// Scoring is a pure function of (query, candidate): same inputs, same ranking.
package match

import (
	"strings"

	"coverscout/internal/normalize"
	"coverscout/internal/store"
)

// tokenSubsetScore is returned when every query token appears in the
// candidate. Deliberately short of 1.0 so exact matches still outrank
// subset matches once bonuses apply.
const tokenSubsetScore = 0.95

// Weights holds the scoring constants. PositionBonus is calibrated to this
// storefront's own result ordering; a different search backend likely needs
// a different value.
type Weights struct {
	Track  float64
	Artist float64
	Album  float64

	ExactTitle    float64
	AlbumContains float64
	ExactArtist   float64
	PositionBonus float64
}

// DefaultWeights are the track-search weights.
var DefaultWeights = Weights{
	Track:         0.80,
	Artist:        0.15,
	Album:         0.05,
	ExactTitle:    0.20,
	AlbumContains: 0.08,
	ExactArtist:   0.06,
	PositionBonus: 0.03,
}

// Bonuses records which tie-break bonuses fired for a candidate.
type Bonuses struct {
	ExactTitle    bool
	AlbumContains bool
	ExactArtist   bool
	Position      float64
}

// ScoredCandidate pairs a candidate with its sub-scores and combined score.
// Score is the raw additive total and can exceed 1.0; use Display for output.
type ScoredCandidate struct {
	Candidate   store.Candidate
	TrackScore  float64
	ArtistScore float64
	AlbumScore  float64
	Bonuses     Bonuses
	Score       float64
}

// Display clamps the raw score into [0, 1] for presentation. Ranking keeps
// the raw value so bonus-separated ties stay separated.
func (s ScoredCandidate) Display() float64 {
	if s.Score > 1 {
		return 1
	}
	if s.Score < 0 {
		return 0
	}
	return s.Score
}

// hybridSimilarity compares two token sets: if every token of a occurs in b
// the match is near-certain (tokenSubsetScore); otherwise it falls back to
// the Jaccard index. Either side empty scores 0.
func hybridSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	subset := true
	for _, t := range a {
		if !setB[t] {
			subset = false
			break
		}
	}
	if subset {
		return tokenSubsetScore
	}

	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// ScoreTrack scores a candidate against a track query. Title identity
// dominates; artist and album corroborate. The album sub-score compares the
// query track against the candidate album to catch singles named after their
// parent album.
func ScoreTrack(q store.Query, c store.Candidate) ScoredCandidate {
	return scoreTrack(q, c, DefaultWeights)
}

func scoreTrack(q store.Query, c store.Candidate, w Weights) ScoredCandidate {
	queryTrack := normalize.Tokens(q.Track)
	queryArtist := normalize.Tokens(q.Artist)
	candTitle := normalize.Tokens(c.Title)
	candArtist := normalize.Tokens(c.Artist)
	candAlbum := normalize.Tokens(c.Album)

	s := ScoredCandidate{Candidate: c}
	s.TrackScore = hybridSimilarity(queryTrack, candTitle)
	s.ArtistScore = hybridSimilarity(queryArtist, candArtist)
	s.AlbumScore = hybridSimilarity(queryTrack, candAlbum)

	s.Score = w.Track*s.TrackScore + w.Artist*s.ArtistScore + w.Album*s.AlbumScore

	// Bonuses are additive and computed even on a weak base score: a perfect
	// title match with a missing artist should still surface near the top.
	normTrack := normalize.Normalize(q.Track)
	normArtist := normalize.Normalize(q.Artist)
	if normTrack != "" && normTrack == normalize.Normalize(c.Title) {
		s.Bonuses.ExactTitle = true
		s.Score += w.ExactTitle
	}
	if normTrack != "" && strings.Contains(normalize.Normalize(c.Album), normTrack) {
		s.Bonuses.AlbumContains = true
		s.Score += w.AlbumContains
	}
	if normArtist != "" && normArtist == normalize.Normalize(c.Artist) {
		s.Bonuses.ExactArtist = true
		s.Score += w.ExactArtist
	}
	s.Bonuses.Position = w.PositionBonus / float64(1+c.Index)
	s.Score += s.Bonuses.Position

	return s
}

// Album-search weights: the album name dominates, the artist corroborates,
// and matching both well earns a joint bonus.
const (
	albumWeight       = 0.85
	albumArtistWeight = 0.15
	jointMatchBonus   = 0.10
)

// ScoreArtist scores a candidate against an artist-only query (the backstop
// lookup for albums that return nothing). Artist identity is the only signal.
func ScoreArtist(q store.Query, c store.Candidate) ScoredCandidate {
	s := ScoredCandidate{Candidate: c}
	s.ArtistScore = hybridSimilarity(normalize.Tokens(q.Artist), normalize.Tokens(c.Artist))
	s.Score = s.ArtistScore

	if q.Artist != "" && normalize.Equal(q.Artist, c.Artist) {
		s.Bonuses.ExactArtist = true
		s.Score += DefaultWeights.ExactArtist
	}
	s.Bonuses.Position = DefaultWeights.PositionBonus / float64(1+c.Index)
	s.Score += s.Bonuses.Position
	return s
}

// ScoreAlbum scores a candidate against an album query.
func ScoreAlbum(q store.Query, c store.Candidate) ScoredCandidate {
	queryAlbum := normalize.Tokens(q.Album)
	queryArtist := normalize.Tokens(q.Artist)

	s := ScoredCandidate{Candidate: c}
	s.AlbumScore = hybridSimilarity(queryAlbum, normalize.Tokens(c.Album))
	if s.AlbumScore == 0 {
		// Result tiles for albums often carry the album name as the title.
		s.AlbumScore = hybridSimilarity(queryAlbum, normalize.Tokens(c.Title))
	}
	s.ArtistScore = hybridSimilarity(queryArtist, normalize.Tokens(c.Artist))

	s.Score = albumWeight*s.AlbumScore + albumArtistWeight*s.ArtistScore
	if s.AlbumScore >= tokenSubsetScore && s.ArtistScore >= tokenSubsetScore {
		s.Score += jointMatchBonus
	}
	s.Bonuses.Position = DefaultWeights.PositionBonus / float64(1+c.Index)
	s.Score += s.Bonuses.Position

	return s
}

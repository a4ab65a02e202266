package match

import (
	"reflect"
	"testing"

	"coverscout/internal/store"
)

func TestHybridSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{
			name: "identical sets",
			a:    []string{"hound", "dog"},
			b:    []string{"hound", "dog"},
			want: tokenSubsetScore,
		},
		{
			name: "subset of candidate",
			a:    []string{"hound", "dog"},
			b:    []string{"hound", "dog", "remastered"},
			want: tokenSubsetScore,
		},
		{
			name: "partial overlap falls back to jaccard",
			a:    []string{"hound", "dog", "blues"},
			b:    []string{"hound", "dog", "remastered"},
			want: 0.5, // 2 shared / 4 union
		},
		{
			name: "no overlap",
			a:    []string{"thriller"},
			b:    []string{"bad"},
			want: 0,
		},
		{
			name: "empty query side",
			a:    nil,
			b:    []string{"hound"},
			want: 0,
		},
		{
			name: "empty candidate side",
			a:    []string{"hound"},
			b:    nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hybridSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("hybridSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHybridSimilaritySubsetMonotonicity(t *testing.T) {
	// Every full-token-subset pair must score at least 0.9.
	pairs := [][2][]string{
		{{"a"}, {"a"}},
		{{"a"}, {"a", "b", "c"}},
		{{"blinding", "lights"}, {"blinding", "lights", "live"}},
	}
	for _, p := range pairs {
		if got := hybridSimilarity(p[0], p[1]); got < 0.9 {
			t.Errorf("subset pair %v scored %v, want >= 0.9", p, got)
		}
	}
}

func TestScoreTrackHoundDog(t *testing.T) {
	// Worked example: exact title and artist, album named after the artist.
	q := store.Query{Track: "Hound Dog", Artist: "Elvis Presley"}
	c := store.Candidate{
		Index:  0,
		Title:  "Hound Dog",
		Artist: "Elvis Presley",
		Album:  "Elvis Presley",
	}

	s := ScoreTrack(q, c)
	if s.TrackScore != tokenSubsetScore {
		t.Errorf("TrackScore = %v, want %v", s.TrackScore, tokenSubsetScore)
	}
	if s.ArtistScore != tokenSubsetScore {
		t.Errorf("ArtistScore = %v, want %v", s.ArtistScore, tokenSubsetScore)
	}
	if !s.Bonuses.ExactTitle || !s.Bonuses.ExactArtist {
		t.Errorf("expected exact title and artist bonuses, got %+v", s.Bonuses)
	}
	if s.Score < 1.0 {
		t.Errorf("Score = %v, want >= 1.0 before clamping", s.Score)
	}
	if s.Display() != 1.0 {
		t.Errorf("Display = %v, want clamped to 1.0", s.Display())
	}

	ranked := Rank([]ScoredCandidate{s})
	if got := Classify(ranked, DefaultThreshold); got != AutoSelect {
		t.Errorf("Classify = %v, want AutoSelect", got)
	}
}

func TestScoreTrackDeterminism(t *testing.T) {
	q := store.Query{Track: "Blinding Lights", Artist: "The Weeknd"}
	c := store.Candidate{Index: 2, Title: "Blinding Lights (Live)", Artist: "The Weeknd", Album: "After Hours"}

	first := ScoreTrack(q, c)
	second := ScoreTrack(q, c)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scoring is not deterministic: %+v != %+v", first, second)
	}
}

func TestScoreTrackPositionBonusDecreases(t *testing.T) {
	q := store.Query{Track: "Hound Dog"}
	a := ScoreTrack(q, store.Candidate{Index: 0, Title: "Hound Dog"})
	b := ScoreTrack(q, store.Candidate{Index: 5, Title: "Hound Dog"})
	if a.Bonuses.Position <= b.Bonuses.Position {
		t.Errorf("position bonus should decrease with index: %v vs %v", a.Bonuses.Position, b.Bonuses.Position)
	}
	if a.Score <= b.Score {
		t.Errorf("earlier result should outrank later identical one: %v vs %v", a.Score, b.Score)
	}
}

func TestScoreTrackBonusesOnWeakBase(t *testing.T) {
	// Exact title, nothing else: bonus still fires.
	q := store.Query{Track: "Hound Dog", Artist: "Elvis Presley"}
	c := store.Candidate{Index: 0, Title: "Hound Dog"}

	s := ScoreTrack(q, c)
	if !s.Bonuses.ExactTitle {
		t.Error("exact title bonus should fire even without artist corroboration")
	}
	if s.ArtistScore != 0 {
		t.Errorf("ArtistScore = %v, want 0 for missing candidate artist", s.ArtistScore)
	}
}

func TestScoreAlbum(t *testing.T) {
	q := store.Query{Album: "Thriller", Artist: "Michael Jackson"}
	good := ScoreAlbum(q, store.Candidate{Index: 0, Album: "Thriller", Artist: "Michael Jackson"})
	bad := ScoreAlbum(q, store.Candidate{Index: 0, Album: "Bad", Artist: "Michael Jackson"})

	if good.Score <= bad.Score {
		t.Errorf("matching album should outrank mismatched: %v vs %v", good.Score, bad.Score)
	}
	// Joint match bonus: both album and artist at subset level.
	wantBase := albumWeight*tokenSubsetScore + albumArtistWeight*tokenSubsetScore + jointMatchBonus
	if good.Score < wantBase {
		t.Errorf("Score = %v, want at least %v (joint bonus applied)", good.Score, wantBase)
	}
}

func TestScoreAlbumFallsBackToTitle(t *testing.T) {
	// Album result tiles sometimes carry the album name in the title slot.
	q := store.Query{Album: "Discovery", Artist: "Daft Punk"}
	s := ScoreAlbum(q, store.Candidate{Index: 0, Title: "Discovery", Artist: "Daft Punk"})
	if s.AlbumScore != tokenSubsetScore {
		t.Errorf("AlbumScore = %v, want title fallback at %v", s.AlbumScore, tokenSubsetScore)
	}
}

package match

import (
	"testing"

	"coverscout/internal/store"
)

func TestRankOrdering(t *testing.T) {
	candidates := []ScoredCandidate{
		{Candidate: store.Candidate{Index: 0}, Score: 0.3},
		{Candidate: store.Candidate{Index: 1}, Score: 0.9},
		{Candidate: store.Candidate{Index: 2}, Score: 0.6},
	}

	ranked := Rank(candidates)
	if ranked[0].Candidate.Index != 1 || ranked[1].Candidate.Index != 2 || ranked[2].Candidate.Index != 0 {
		t.Errorf("unexpected order: %d %d %d",
			ranked[0].Candidate.Index, ranked[1].Candidate.Index, ranked[2].Candidate.Index)
	}
}

func TestRankStableOnEqualScores(t *testing.T) {
	candidates := []ScoredCandidate{
		{Candidate: store.Candidate{Index: 4}, Score: 0.8},
		{Candidate: store.Candidate{Index: 1}, Score: 0.8},
		{Candidate: store.Candidate{Index: 2}, Score: 0.8},
	}

	ranked := Rank(candidates)
	for i, want := range []int{1, 2, 4} {
		if ranked[i].Candidate.Index != want {
			t.Errorf("position %d: index %d, want %d (lower index wins ties)", i, ranked[i].Candidate.Index, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		top  ScoredCandidate
		want Outcome
	}{
		{
			name: "confident and corroborated",
			top: ScoredCandidate{
				Score: 0.9, TrackScore: 0.95, ArtistScore: 0.95,
			},
			want: AutoSelect,
		},
		{
			name: "below threshold",
			top: ScoredCandidate{
				Score: 0.5, TrackScore: 0.5, ArtistScore: 0.5,
			},
			want: Suggest,
		},
		{
			name: "high score without corroboration",
			top: ScoredCandidate{
				Score: 0.8, TrackScore: 0.95, ArtistScore: 0, AlbumScore: 0,
			},
			want: Suggest,
		},
		{
			name: "strong album match alone",
			top: ScoredCandidate{
				Score: 0.8, TrackScore: 0, AlbumScore: 0.95,
			},
			want: AutoSelect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify([]ScoredCandidate{tt.top}, DefaultThreshold); got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyEmpty(t *testing.T) {
	if got := Classify(nil, DefaultThreshold); got != Ambiguous {
		t.Errorf("Classify(nil) = %v, want Ambiguous", got)
	}
}

func TestClassifyDefaultThreshold(t *testing.T) {
	top := ScoredCandidate{Score: 0.76, TrackScore: 0.8, ArtistScore: 0.8}
	if got := Classify([]ScoredCandidate{top}, 0); got != AutoSelect {
		t.Errorf("zero threshold should fall back to default: got %v", got)
	}
}

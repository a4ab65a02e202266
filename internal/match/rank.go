package match

import "sort"

// DefaultThreshold is the minimum confidence required to auto-select the top
// candidate without human confirmation.
const DefaultThreshold = 0.75

// Outcome classifies the top of a ranked candidate list.
type Outcome int

const (
	// Ambiguous means there were no candidates to pick from.
	Ambiguous Outcome = iota
	// Suggest means the top candidate exists but is not confident enough
	// to apply without confirmation.
	Suggest
	// AutoSelect means the top candidate clears the threshold and the
	// corroboration gate and may be applied automatically.
	AutoSelect
)

func (o Outcome) String() string {
	switch o {
	case AutoSelect:
		return "auto-select"
	case Suggest:
		return "suggest"
	default:
		return "ambiguous"
	}
}

// Rank sorts candidates by score descending; exact ties keep the storefront's
// own ordering (lower index first). The input slice is sorted in place and
// returned for convenience.
func Rank(candidates []ScoredCandidate) []ScoredCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Candidate.Index < candidates[j].Candidate.Index
	})
	return candidates
}

// Classify decides what to do with a ranked list. Auto-selection requires
// the threshold to be met and corroborating evidence beyond the raw score:
// position bonuses alone must never push a weak semantic match over the line.
func Classify(ranked []ScoredCandidate, threshold float64) Outcome {
	if len(ranked) == 0 {
		return Ambiguous
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	top := ranked[0]
	if top.Score < threshold {
		return Suggest
	}
	if !corroborated(top) {
		return Suggest
	}
	return AutoSelect
}

// corroborated guards the automatic-apply gate: either the title matched
// with at least one of artist/album agreeing, or the album match alone is
// strong (an album-search hit).
func corroborated(s ScoredCandidate) bool {
	if s.TrackScore > 0.2 && (s.ArtistScore > 0.2 || s.AlbumScore > 0.2) {
		return true
	}
	if s.AlbumScore > 0.4 {
		return true
	}
	// Artist-only lookups carry no title or album evidence at all; a
	// near-exact artist match is the only corroboration available.
	return s.TrackScore == 0 && s.AlbumScore == 0 && s.ArtistScore >= 0.9
}

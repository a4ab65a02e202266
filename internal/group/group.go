// Package group decides which artist a track should be attributed to during
// batch correction, and coalesces tracks that share metadata into single
// remote lookups.
package group

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coverscout/internal/normalize"
	"coverscout/internal/store"
	"coverscout/internal/tags"
	"coverscout/pkg/utils"
)

// Policy selects how the lookup artist is resolved for a track.
type Policy int

const (
	// PerTrack always uses the track-level artist tag.
	PerTrack Policy = iota
	// PreferAlbumArtist uses the album-artist tag when present.
	PreferAlbumArtist
	// PreferTrackArtist is PerTrack under a different configuration name.
	PreferTrackArtist
	// Smart trusts the album-artist tag only when the directory's tracks
	// agree it is a single-artist album.
	Smart
)

// ParsePolicy maps a config string onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "smart":
		return Smart, nil
	case "per-track", "pertrack":
		return PerTrack, nil
	case "album-artist", "preferalbumartist":
		return PreferAlbumArtist, nil
	case "track-artist", "prefertrackartist":
		return PreferTrackArtist, nil
	}
	return Smart, fmt.Errorf("unknown grouping policy %q (smart, per-track, album-artist, track-artist)", s)
}

func (p Policy) String() string {
	switch p {
	case PerTrack:
		return "per-track"
	case PreferAlbumArtist:
		return "album-artist"
	case PreferTrackArtist:
		return "track-artist"
	default:
		return "smart"
	}
}

// Markers that identify a compilation album-artist tag. Matched on the
// normalized, space-collapsed form.
var variousArtistMarkers = map[string]bool{
	"various":        true,
	"va":             true,
	"compilation":    true,
	"variousartists": true,
}

// IsVariousArtists reports whether s is a recognized compilation marker,
// case- and punctuation-insensitively.
func IsVariousArtists(s string) bool {
	collapsed := strings.ReplaceAll(normalize.Normalize(s), " ", "")
	return variousArtistMarkers[collapsed]
}

// Resolver applies a Policy to tracks. Sibling directory scans are memoized
// for the lifetime of the resolver, so a folder is only read once per batch.
type Resolver struct {
	readTrack    func(string) (tags.Track, error)
	listSiblings func(string) ([]string, error)
	dirArtists   map[string]int // dir → count of distinct track artists
}

// NewResolver creates a Resolver backed by the real tag reader and filesystem.
func NewResolver() *Resolver {
	return &Resolver{
		readTrack:    tags.Read,
		listSiblings: listAudioSiblings,
		dirArtists:   make(map[string]int),
	}
}

// ResolveArtist returns the artist the track should be looked up under.
func (r *Resolver) ResolveArtist(track tags.Track, policy Policy) string {
	switch policy {
	case PerTrack, PreferTrackArtist:
		return track.Artist

	case PreferAlbumArtist:
		if track.AlbumArtist != "" {
			return track.AlbumArtist
		}
		return track.Artist

	default: // Smart
		if track.AlbumArtist == "" || IsVariousArtists(track.AlbumArtist) {
			return track.Artist
		}
		// An album-artist tag over a heterogeneous directory suggests
		// mislabeling or an unmarked compilation; don't trust it.
		if r.distinctSiblingArtists(filepath.Dir(track.Path)) <= 1 {
			return track.AlbumArtist
		}
		return track.Artist
	}
}

func (r *Resolver) distinctSiblingArtists(dir string) int {
	if n, ok := r.dirArtists[dir]; ok {
		return n
	}

	distinct := make(map[string]bool)
	siblings, err := r.listSiblings(dir)
	if err == nil {
		for _, path := range siblings {
			track, err := r.readTrack(path)
			if err != nil {
				continue
			}
			if a := normalize.Normalize(track.Artist); a != "" {
				distinct[a] = true
			}
		}
	}

	r.dirArtists[dir] = len(distinct)
	return len(distinct)
}

// listAudioSiblings lists the audio files directly inside dir (no recursion:
// siblings are the folder's own tracks, not nested albums).
func listAudioSiblings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if utils.IsAudioFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// Group is a set of tracks answered by one remote lookup.
type Group struct {
	Artist string
	Album  string
	Tracks []tags.Track

	// trackLevel marks a singleton group that keeps its own title in the
	// lookup so a mislabeled loner doesn't inherit album-wide tags.
	trackLevel bool
}

// Key is the deduplication key for the group's lookup, built from the
// normalized resolved artist and album (plus the title for singletons).
func (g Group) Key() string {
	parts := []string{normalize.Normalize(g.Artist), normalize.Normalize(g.Album)}
	if g.trackLevel && len(g.Tracks) == 1 {
		parts = append(parts, normalize.Normalize(g.Tracks[0].Title))
	}
	return strings.Join(parts, "|")
}

// Query is the remote query the group maps onto: album-level for coalesced
// groups, track-level for singletons.
func (g Group) Query() store.Query {
	if g.trackLevel && len(g.Tracks) == 1 {
		return store.Query{Track: g.Tracks[0].Title, Artist: g.Artist, Album: g.Album}
	}
	return store.Query{Artist: g.Artist, Album: g.Album}
}

// FallbackQuery is the artist-only backstop used when the primary lookup
// returns nothing.
func (g Group) FallbackQuery() store.Query {
	return store.Query{Artist: g.Artist}
}

// BuildGroups resolves each track's artist under policy and coalesces tracks
// sharing the same normalized (artist, album) pair. Pairs shared by more than
// one file get a single album-level group; singletons stay track-level.
// Group order follows first appearance in the input.
func (r *Resolver) BuildGroups(tracks []tags.Track, policy Policy) []Group {
	byKey := make(map[string]*Group)
	var order []string

	for _, track := range tracks {
		artist := r.ResolveArtist(track, policy)
		key := normalize.Normalize(artist) + "|" + normalize.Normalize(track.Album)

		g, ok := byKey[key]
		if !ok {
			g = &Group{Artist: artist, Album: track.Album}
			byKey[key] = g
			order = append(order, key)
		}
		g.Tracks = append(g.Tracks, track)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		if len(g.Tracks) == 1 {
			g.trackLevel = true
		}
		groups = append(groups, *g)
	}
	return groups
}

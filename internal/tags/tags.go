// Package tags is the audio-tag boundary: it reads track metadata and
// applies genre/artist/artwork writes atomically.
package tags

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.senan.xyz/taglib"

	"coverscout/internal/normalize"
)

// Track holds the tags read from one audio file. Fields missing from the
// file are empty; Raw carries everything the file exposed.
type Track struct {
	Path        string
	Title       string
	Album       string
	Artist      string
	AlbumArtist string
	Genres      []string
	Raw         map[string][]string
}

// GenreMode selects how WriteGenres combines new genres with existing ones.
type GenreMode int

const (
	// Replace discards the file's existing genres.
	Replace GenreMode = iota
	// Merge keeps existing genres and appends new ones, deduplicated on
	// the normalized form.
	Merge
)

// ParseGenreMode maps a config string onto a GenreMode.
func ParseGenreMode(s string) (GenreMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return Replace, nil
	case "merge":
		return Merge, nil
	}
	return Replace, fmt.Errorf("unknown genre mode %q (replace, merge)", s)
}

const (
	writeAttempts     = 4
	writeRetryBackoff = 100 * time.Millisecond
)

// Read reads the tags of the audio file at path. Missing tags yield a
// partial Track; an unopenable file yields an error.
func Read(path string) (Track, error) {
	raw, err := taglib.ReadTags(path)
	if err != nil {
		return Track{}, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	return Track{
		Path:        path,
		Title:       first(raw, taglib.Title),
		Album:       first(raw, taglib.Album),
		Artist:      first(raw, taglib.Artist),
		AlbumArtist: first(raw, taglib.AlbumArtist),
		Genres:      append([]string(nil), raw[taglib.Genre]...),
		Raw:         raw,
	}, nil
}

// WriteGenres writes genres to the file and returns the previous genre list.
// In Merge mode existing genres are kept and new ones appended, deduplicated
// case- and punctuation-insensitively.
func WriteGenres(path string, genres []string, mode GenreMode) ([]string, error) {
	track, err := Read(path)
	if err != nil {
		return nil, err
	}
	old := track.Genres

	if mode == Merge {
		genres = mergeGenres(old, genres)
	}

	err = atomicWrite(path, map[string][]string{taglib.Genre: genres})
	if err != nil {
		return old, err
	}
	return old, nil
}

// WriteArtist writes artist and/or album-artist tags, skipping empty values,
// and returns the previous values of both.
func WriteArtist(path, artist, albumArtist string) (oldArtist, oldAlbumArtist string, err error) {
	track, err := Read(path)
	if err != nil {
		return "", "", err
	}
	oldArtist, oldAlbumArtist = track.Artist, track.AlbumArtist

	updates := make(map[string][]string)
	if artist != "" {
		updates[taglib.Artist] = []string{artist}
	}
	if albumArtist != "" {
		updates[taglib.AlbumArtist] = []string{albumArtist}
	}
	if len(updates) == 0 {
		return oldArtist, oldAlbumArtist, nil
	}

	return oldArtist, oldAlbumArtist, atomicWrite(path, updates)
}

// WriteImage embeds artwork image data into the audio file.
func WriteImage(path string, imageData []byte) error {
	if len(imageData) == 0 {
		return nil
	}
	if err := taglib.WriteImage(path, imageData); err != nil {
		return fmt.Errorf("failed to write artwork to %s: %w", path, err)
	}
	return nil
}

// atomicWrite applies tag updates via a temp copy in the same directory,
// then renames it over the original, so the file is either fully updated or
// untouched. Transient failures (file locks) are retried with backoff.
func atomicWrite(path string, updates map[string][]string) error {
	var lastErr error
	backoff := writeRetryBackoff

	for attempt := 0; attempt < writeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		if lastErr = writeViaTemp(path, updates); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("tag write failed after %d attempts: %w", writeAttempts, lastErr)
}

func writeViaTemp(path string, updates map[string][]string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := copyFile(path, tmp); err != nil {
		return err
	}

	if err := taglib.WriteTags(tmp, updates, 0); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write tags: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return nil
}

func mergeGenres(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, g := range append(append([]string(nil), existing...), incoming...) {
		key := normalize.Normalize(g)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, g)
	}
	return merged
}

func first(raw map[string][]string, key string) string {
	if vals, ok := raw[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	return ""
}

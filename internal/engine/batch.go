package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"coverscout/internal/group"
	"coverscout/internal/store"
	"coverscout/internal/tags"
	"coverscout/pkg/utils"
)

// ImageFetcher downloads a cover image. *artwork.Client implements it.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SetImageFetcher installs the cover downloader used by FetchCovers.
func (e *Engine) SetImageFetcher(f ImageFetcher) { e.images = f }

// LoadTracks reads the tags of every audio file under dir. Unreadable files
// are logged and reported as failed, not fatal.
func (e *Engine) LoadTracks(dir string) ([]tags.Track, error) {
	files, err := utils.FindAudioFiles(dir)
	if err != nil {
		return nil, err
	}

	tracks := make([]tags.Track, 0, len(files))
	for _, path := range files {
		track, err := tags.Read(path)
		if err != nil {
			e.log.Warn("skipping unreadable file %s: %v", path, err)
			e.report.Log(Record{File: path, Action: Failed})
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// FixGenres updates the genre tags of tracks. Tracks are coalesced into one
// lookup per (resolved artist, album) group; an artist-only lookup backstops
// groups whose primary lookup yields no genres. A single file's write failure
// never aborts the batch.
func (e *Engine) FixGenres(ctx context.Context, tracks []tags.Track, resolver *group.Resolver, policy group.Policy, genreMode tags.GenreMode) error {
	groups := resolver.BuildGroups(tracks, policy)
	e.log.Info("=== Fixing genres: %d files in %d groups ===", len(tracks), len(groups))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		d, err := e.decideWithFallback(ctx, g, hasGenres)
		if errors.Is(err, ErrAborted) {
			e.logAll(g, FieldGenre, Aborted)
			return err
		}
		if err != nil {
			return err
		}

		if d.Chosen == nil || len(d.Chosen.Candidate.Genres) == 0 {
			e.log.Debug("no genres found for %q", g.Query().Raw())
			e.logAll(g, FieldGenre, Skipped)
			continue
		}

		genres := d.Chosen.Candidate.Genres
		for _, track := range g.Tracks {
			e.applyGenres(track, genres, genreMode, d)
		}
	}
	return nil
}

func (e *Engine) applyGenres(track tags.Track, genres []string, mode tags.GenreMode, d Decision) {
	rec := Record{
		File:       track.Path,
		Field:      FieldGenre,
		Old:        strings.Join(track.Genres, "; "),
		New:        strings.Join(genres, "; "),
		Confidence: d.Confidence(),
		Action:     d.Action,
	}

	if d.Action == AutoApplied && !e.opts.DryRun {
		if _, err := e.writer.WriteGenres(track.Path, genres, mode); err != nil {
			e.log.Warn("genre write failed for %s: %v", track.Path, err)
			rec.Action = Failed
		}
	}
	e.report.Log(rec)
}

// FixArtists corrects artist (and album-artist, for coalesced albums) tags
// from the best candidate's artist.
func (e *Engine) FixArtists(ctx context.Context, tracks []tags.Track, resolver *group.Resolver, policy group.Policy) error {
	groups := resolver.BuildGroups(tracks, policy)
	e.log.Info("=== Fixing artists: %d files in %d groups ===", len(tracks), len(groups))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		d, err := e.decideWithFallback(ctx, g, hasArtist)
		if errors.Is(err, ErrAborted) {
			e.logAll(g, FieldArtist, Aborted)
			return err
		}
		if err != nil {
			return err
		}

		if d.Chosen == nil || d.Chosen.Candidate.Artist == "" {
			e.logAll(g, FieldArtist, Skipped)
			continue
		}

		artist := d.Chosen.Candidate.Artist
		albumArtist := ""
		if len(g.Tracks) > 1 {
			albumArtist = artist
		}
		for _, track := range g.Tracks {
			e.applyArtist(track, artist, albumArtist, d)
		}
	}
	return nil
}

func (e *Engine) applyArtist(track tags.Track, artist, albumArtist string, d Decision) {
	rec := Record{
		File:       track.Path,
		Field:      FieldArtist,
		Old:        track.Artist,
		New:        artist,
		Confidence: d.Confidence(),
		Action:     d.Action,
	}

	if d.Action == AutoApplied && !e.opts.DryRun {
		if _, _, err := e.writer.WriteArtist(track.Path, artist, albumArtist); err != nil {
			e.log.Warn("artist write failed for %s: %v", track.Path, err)
			rec.Action = Failed
		}
	}
	e.report.Log(rec)

	if albumArtist != "" {
		rec.Field = FieldAlbumArtist
		rec.Old = track.AlbumArtist
		rec.New = albumArtist
		e.report.Log(rec)
	}
}

// FetchCovers finds cover images for tracks and either embeds them into the
// files or saves them as folder.jpg beside each group.
func (e *Engine) FetchCovers(ctx context.Context, tracks []tags.Track, resolver *group.Resolver, policy group.Policy, embed bool) error {
	if e.images == nil {
		return errors.New("no image fetcher configured")
	}

	groups := resolver.BuildGroups(tracks, policy)
	e.log.Info("=== Fetching covers: %d files in %d groups ===", len(tracks), len(groups))

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}

		d, err := e.decideWithFallback(ctx, g, hasImage)
		if errors.Is(err, ErrAborted) {
			e.logAll(g, FieldCover, Aborted)
			return err
		}
		if err != nil {
			return err
		}

		if d.Chosen == nil || d.Chosen.Candidate.ImageURL == "" {
			e.logAll(g, FieldCover, Skipped)
			continue
		}

		e.applyCover(ctx, g, d, embed)
	}
	return nil
}

func (e *Engine) applyCover(ctx context.Context, g group.Group, d Decision, embed bool) {
	url := d.Chosen.Candidate.ImageURL
	rec := Record{
		Field:      FieldCover,
		New:        url,
		Confidence: d.Confidence(),
		Action:     d.Action,
	}

	if d.Action != AutoApplied || e.opts.DryRun {
		for _, track := range g.Tracks {
			rec.File = track.Path
			e.report.Log(rec)
		}
		return
	}

	data, err := e.images.Fetch(ctx, url)
	if err != nil {
		e.log.Warn("cover download failed for %q: %v", g.Query().Raw(), err)
		e.logAll(g, FieldCover, Failed)
		return
	}

	if embed {
		for _, track := range g.Tracks {
			rec.File = track.Path
			if err := tags.WriteImage(track.Path, data); err != nil {
				e.log.Warn("cover embed failed for %s: %v", track.Path, err)
				rec.Action = Failed
			} else {
				rec.Action = d.Action
			}
			e.report.Log(rec)
		}
		return
	}

	dir := filepath.Dir(g.Tracks[0].Path)
	if _, err := e.saveCover(dir, data); err != nil {
		e.log.Warn("cover save failed in %s: %v", dir, err)
		rec.Action = Failed
	}
	for _, track := range g.Tracks {
		rec.File = track.Path
		e.report.Log(rec)
	}
}

// decideWithFallback decides the group's primary query and, when the result
// lacks what the caller needs, retries with the artist-only backstop.
func (e *Engine) decideWithFallback(ctx context.Context, g group.Group, useful func(store.Candidate) bool) (Decision, error) {
	d, err := e.Decide(ctx, g.Query())
	if err != nil {
		return d, err
	}
	if d.Chosen != nil && useful(d.Chosen.Candidate) {
		return d, nil
	}

	fallback := g.FallbackQuery()
	if fallback.Raw() == "" || fallback == g.Query() {
		return d, nil
	}
	e.log.Debug("falling back to artist-only lookup for %q", fallback.Raw())
	return e.Decide(ctx, fallback)
}

func (e *Engine) logAll(g group.Group, field Field, action Action) {
	for _, track := range g.Tracks {
		e.report.Log(Record{File: track.Path, Field: field, Action: action})
	}
}

func hasGenres(c store.Candidate) bool { return len(c.Genres) > 0 }
func hasArtist(c store.Candidate) bool { return c.Artist != "" }
func hasImage(c store.Candidate) bool  { return c.ImageURL != "" }

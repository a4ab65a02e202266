// Package engine drives the decision pipeline: cached or fetched candidates
// are scored, ranked, classified, and then applied, suggested, or put in
// front of the user depending on the run mode.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coverscout/internal/artwork"
	"coverscout/internal/cache"
	"coverscout/internal/logger"
	"coverscout/internal/match"
	"coverscout/internal/store"
	"coverscout/internal/tags"
)

// ErrAborted is returned when the user aborts an interactive batch.
// Decisions already committed stay committed.
var ErrAborted = errors.New("aborted by user")

// Mode selects how decisions are acted on.
type Mode int

const (
	// Automatic applies auto-selected matches and logs the rest.
	Automatic Mode = iota
	// Manual never writes; every match is logged as a suggestion.
	Manual
	// Interactive prompts on matches that don't clear the auto gate.
	Interactive
)

// ParseMode maps a config string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "automatic", "auto":
		return Automatic, nil
	case "manual":
		return Manual, nil
	case "interactive":
		return Interactive, nil
	}
	return Automatic, fmt.Errorf("unknown mode %q (automatic, manual, interactive)", s)
}

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Interactive:
		return "interactive"
	default:
		return "automatic"
	}
}

// Searcher performs a storefront search. *store.Client implements it.
type Searcher interface {
	Search(ctx context.Context, q store.Query, locale string) ([]store.Candidate, error)
}

// TagWriter applies tag changes. The default implementation delegates to the
// tags package; tests substitute a recorder.
type TagWriter interface {
	WriteGenres(path string, genres []string, mode tags.GenreMode) ([]string, error)
	WriteArtist(path, artist, albumArtist string) (oldArtist, oldAlbumArtist string, err error)
}

type fileTagWriter struct{}

func (fileTagWriter) WriteGenres(path string, genres []string, mode tags.GenreMode) ([]string, error) {
	return tags.WriteGenres(path, genres, mode)
}

func (fileTagWriter) WriteArtist(path, artist, albumArtist string) (string, string, error) {
	return tags.WriteArtist(path, artist, albumArtist)
}

// Options configures an Engine.
type Options struct {
	Locale    string
	Threshold float64
	Mode      Mode
	DryRun    bool
}

// Engine owns one batch run's collaborators. Construct once per run and pass
// explicitly; it holds no global state.
type Engine struct {
	search Searcher
	cache  *cache.Cache
	report *Report
	log    *logger.Logger
	opts   Options

	writer    TagWriter
	prompter  *Prompter
	images    ImageFetcher
	saveCover func(dir string, data []byte) (string, error)
}

// New creates an Engine. cache, report and prompter may be nil (no caching,
// no report, no interactive prompts).
func New(search Searcher, c *cache.Cache, report *Report, log *logger.Logger, opts Options) *Engine {
	if opts.Threshold <= 0 {
		opts.Threshold = match.DefaultThreshold
	}
	if opts.Locale == "" {
		opts.Locale = "us"
	}
	return &Engine{
		search:    search,
		cache:     c,
		report:    report,
		log:       log,
		opts:      opts,
		writer:    fileTagWriter{},
		saveCover: artwork.SaveCover,
	}
}

// SetTagWriter overrides the tag writer (tests, dry harnesses).
func (e *Engine) SetTagWriter(w TagWriter) { e.writer = w }

// SetPrompter installs the interactive prompter.
func (e *Engine) SetPrompter(p *Prompter) { e.prompter = p }

// LookupStatus distinguishes "confirmed results", "confirmed none" and
// "could not find out" so a fetch failure is never mistaken for zero results.
type LookupStatus int

const (
	LookupHit LookupStatus = iota
	LookupMiss
	LookupError
)

// LookupResult is the tagged outcome of a candidate lookup.
type LookupResult struct {
	Status     LookupStatus
	Candidates []store.Candidate
	FromCache  bool
	Err        error
}

// Lookup resolves a query to candidates through the cache, fetching on miss.
// Only non-empty fetched lists are written back to the cache; fetch and parse
// failures return LookupError and cache nothing.
func (e *Engine) Lookup(ctx context.Context, q store.Query) LookupResult {
	if err := q.Validate(); err != nil {
		return LookupResult{Status: LookupError, Err: err}
	}

	if e.cache != nil {
		if candidates, ok := e.cache.Get(q, e.opts.Locale); ok {
			e.log.Debug("  cache hit for %q", q.Raw())
			return LookupResult{Status: LookupHit, Candidates: candidates, FromCache: true}
		}
	}

	candidates, err := e.search.Search(ctx, q, e.opts.Locale)
	if err != nil {
		e.log.Debug("  search failed for %q: %v", q.Raw(), err)
		return LookupResult{Status: LookupError, Err: err}
	}
	if len(candidates) == 0 {
		return LookupResult{Status: LookupMiss}
	}

	if e.cache != nil {
		e.cache.Put(q, e.opts.Locale, candidates)
	}
	return LookupResult{Status: LookupHit, Candidates: candidates}
}

// Decision is the outcome of deciding one query.
type Decision struct {
	Query   store.Query
	Ranked  []match.ScoredCandidate
	Outcome match.Outcome
	Chosen  *match.ScoredCandidate
	Action  Action
}

// Confidence is the clamped score of the chosen candidate, 0 without one.
func (d Decision) Confidence() float64 {
	if d.Chosen == nil {
		return 0
	}
	return d.Chosen.Display()
}

// Decide looks up, scores, ranks and classifies a query, then resolves the
// outcome under the engine's mode. Interactive mode may re-query with user
// corrections; an abort surfaces as ErrAborted.
func (e *Engine) Decide(ctx context.Context, q store.Query) (Decision, error) {
	d := e.evaluate(ctx, q)

	switch e.opts.Mode {
	case Manual:
		if d.Chosen != nil {
			d.Action = Suggested
		} else {
			d.Action = Skipped
		}
		return d, nil

	case Interactive:
		if d.Outcome == match.AutoSelect {
			d.Action = AutoApplied
			return d, nil
		}
		return e.decideInteractive(ctx, d)

	default: // Automatic
		if d.Outcome == match.AutoSelect {
			d.Action = AutoApplied
		} else if d.Chosen != nil {
			d.Action = Suggested
		} else {
			d.Action = Skipped
		}
		return d, nil
	}
}

// evaluate runs the non-interactive part of the pipeline for one query.
func (e *Engine) evaluate(ctx context.Context, q store.Query) Decision {
	d := Decision{Query: q, Outcome: match.Ambiguous}

	res := e.Lookup(ctx, q)
	if res.Status != LookupHit {
		return d
	}

	scored := make([]match.ScoredCandidate, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		scored = append(scored, e.score(q, c))
	}
	d.Ranked = match.Rank(scored)
	d.Outcome = match.Classify(d.Ranked, e.opts.Threshold)
	if len(d.Ranked) > 0 {
		d.Chosen = &d.Ranked[0]
	}
	return d
}

func (e *Engine) score(q store.Query, c store.Candidate) match.ScoredCandidate {
	switch {
	case q.Track != "":
		return match.ScoreTrack(q, c)
	case q.Album != "":
		return match.ScoreAlbum(q, c)
	default:
		return match.ScoreArtist(q, c)
	}
}

func (e *Engine) decideInteractive(ctx context.Context, d Decision) (Decision, error) {
	if e.prompter == nil || !e.prompter.CanPrompt() {
		// No interactive host: degrade to suggesting rather than hanging
		// on a prompt nobody will answer.
		if d.Chosen != nil {
			d.Action = Suggested
		} else {
			d.Action = Skipped
		}
		return d, nil
	}

	research := func(q store.Query) Decision {
		return e.evaluate(ctx, q)
	}

	return e.prompter.Run(d, research)
}

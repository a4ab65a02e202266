package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"coverscout/internal/artwork"
	"coverscout/internal/cache"
	"coverscout/internal/config"
	"coverscout/internal/engine"
	"coverscout/internal/group"
	"coverscout/internal/logger"
	"coverscout/internal/shutdown"
	"coverscout/internal/store"
	"coverscout/internal/tags"
)

func main() {
	cfg, command, configPath, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.Listen()

	log := logger.New(cfg.Verbose)
	defer log.Close()

	if !cfg.Verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else {
			logFile := filepath.Join(logDir, fmt.Sprintf("coverscout_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := log.SetFileLog(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
			} else {
				log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	if cfg.Verbose && configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	if err := run(sh, cfg, command, log); err != nil {
		if errors.Is(err, engine.ErrAborted) {
			log.Info("Aborted.")
			os.Exit(130)
		}
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(sh *shutdown.Handler, cfg config.Config, command string, log *logger.Logger) error {
	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	policy, err := group.ParsePolicy(cfg.GroupPolicy)
	if err != nil {
		return err
	}
	genreMode, err := tags.ParseGenreMode(cfg.GenreMode)
	if err != nil {
		return err
	}

	results := cache.Open(cfg.CachePath, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	log.Debug("Result cache: %s (%d entries)", cfg.CachePath, results.Len())

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	throttle := time.Duration(cfg.ThrottleMs) * time.Millisecond
	client := store.NewClient(cfg.StoreURL, timeout, throttle, cfg.MaxResults)

	report, err := engine.OpenReport(cfg.ReportPath)
	if err != nil {
		return err
	}
	sh.AddCleanup(func() { report.Close() })
	defer report.Close()

	eng := engine.New(client, results, report, log, engine.Options{
		Locale:    cfg.Locale,
		Threshold: cfg.Threshold,
		Mode:      mode,
		DryRun:    cfg.DryRun,
	})
	eng.SetImageFetcher(artwork.New(timeout, cfg.PreferredSize))

	if mode == engine.Interactive {
		prompter := engine.NewPrompter(os.Stdin, os.Stdout, 0)
		if prompter.CanPrompt() {
			eng.SetPrompter(prompter)
			if !cfg.Verbose {
				log.SetPrompting(true)
				defer log.SetPrompting(false)
			}
		} else {
			log.Warn("Interactive mode requires a terminal, falling back to suggestions")
		}
	}

	tracks, err := eng.LoadTracks(cfg.MusicDir)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		log.Info("No audio files found in %s", cfg.MusicDir)
		return nil
	}
	log.Info("Found %d audio files in %s", len(tracks), cfg.MusicDir)

	if cfg.DryRun {
		log.Info("Dry run: no tags will be written")
	}

	resolver := group.NewResolver()
	ctx := sh.Context()

	switch command {
	case "genres":
		err = eng.FixGenres(ctx, tracks, resolver, policy, genreMode)
	case "artists":
		err = eng.FixArtists(ctx, tracks, resolver, policy)
	case "covers":
		err = eng.FetchCovers(ctx, tracks, resolver, policy, cfg.EmbedCovers)
	case "all":
		err = eng.FixGenres(ctx, tracks, resolver, policy, genreMode)
		if err == nil {
			err = eng.FixArtists(ctx, tracks, resolver, policy)
		}
		if err == nil {
			err = eng.FetchCovers(ctx, tracks, resolver, policy, cfg.EmbedCovers)
		}
	}
	if err != nil {
		return err
	}

	log.Info("=== Process completed successfully ===")
	return nil
}

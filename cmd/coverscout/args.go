package main

import (
	"fmt"
	"os"

	"coverscout/internal/config"
)

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs() (config.Config, string, string, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return config.Config{}, "", "", initConfigFile()
		}
	}

	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return config.Config{}, "", "", fmt.Errorf("failed to load config: %w", err)
	}
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	var command string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--dry-run", "-n":
			cfg.DryRun = true

		case "--interactive", "-i":
			cfg.Mode = "interactive"

		case "--mode", "-m":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--mode requires a mode name")
			}
			i++
			cfg.Mode = args[i]

		case "--policy", "-p":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--policy requires a policy name")
			}
			i++
			cfg.GroupPolicy = args[i]

		case "--genre-mode", "-g":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--genre-mode requires a mode name")
			}
			i++
			cfg.GenreMode = args[i]

		case "--locale", "-l":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--locale requires a storefront code")
			}
			i++
			cfg.Locale = args[i]

		case "--threshold", "-t":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--threshold requires a number argument")
			}
			i++
			var threshold float64
			if _, err := fmt.Sscanf(args[i], "%f", &threshold); err != nil {
				return config.Config{}, "", "", fmt.Errorf("invalid threshold value: %s", args[i])
			}
			cfg.Threshold = threshold

		case "--embed", "-e":
			cfg.EmbedCovers = true

		case "--report", "-r":
			if i+1 >= len(args) {
				return config.Config{}, "", "", fmt.Errorf("--report requires a path argument")
			}
			i++
			cfg.ReportPath = args[i]

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return config.Config{}, "", "", fmt.Errorf("unknown flag: %s", arg)
			}
			if command == "" {
				command = arg
			} else {
				cfg.MusicDir = config.ExpandHome(arg)
			}
		}
	}

	switch command {
	case "genres", "artists", "covers", "all":
	case "":
		return config.Config{}, "", "", fmt.Errorf("missing command (genres, artists, covers, all)")
	default:
		return config.Config{}, "", "", fmt.Errorf("unknown command %q (genres, artists, covers, all)", command)
	}

	return cfg, command, configPath, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  music_dir: library root to scan for audio files")
	fmt.Println("  mode: automatic, manual, interactive")
	fmt.Println("  group_policy: smart, per-track, album-artist, track-artist")
	fmt.Println("  genre_mode: replace, merge")
	fmt.Println("  locale: storefront code (us, it, de, ...)")
	fmt.Println("  threshold: 0.0-1.0 (minimum score to accept a match)")
	fmt.Println("  dry_run: true/false (preview mode)")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("coverscout - Correct genres, artists and cover art in a music library")
	fmt.Println()
	fmt.Println("Usage: coverscout [options] <command> [music_dir]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  genres                     Look up and fix genre tags")
	fmt.Println("  artists                    Look up and fix artist / album-artist tags")
	fmt.Println("  covers                     Fetch cover art (folder.jpg, or embedded with --embed)")
	fmt.Println("  all                        Run genres, artists and covers in one pass")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -n, --dry-run              Preview decisions without writing tags")
	fmt.Println("  -i, --interactive          Prompt on matches below the auto-apply gate")
	fmt.Println("  -m, --mode <mode>          Decision mode: automatic, manual, interactive")
	fmt.Println("  -p, --policy <policy>      Artist grouping: smart, per-track, album-artist, track-artist")
	fmt.Println("  -g, --genre-mode <mode>    Genre write mode: replace, merge")
	fmt.Println("  -l, --locale <code>        Storefront locale (default: us)")
	fmt.Println("  -t, --threshold <n>        Minimum match score 0.0-1.0 (default: 0.75)")
	fmt.Println("  -e, --embed                Embed cover art in the files instead of folder.jpg")
	fmt.Println("  -r, --report <path>        Append decision records to a JSON-lines file")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./coverscout.yaml")
	fmt.Println("  ~/.config/coverscout/config.yaml")
	fmt.Println("  ~/.coverscout.yaml")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Preview genre fixes for the whole library")
	fmt.Println("  coverscout --dry-run genres ~/Music")
	fmt.Println()
	fmt.Println("  # Fix genres, merging with existing tags")
	fmt.Println("  coverscout -g merge genres ~/Music")
	fmt.Println()
	fmt.Println("  # Fetch folder covers, asking about uncertain matches")
	fmt.Println("  coverscout -i covers ~/Music")
	fmt.Println()
	fmt.Println("  # Full pass with a decision report")
	fmt.Println("  coverscout -r report.jsonl all ~/Music")
	fmt.Println()
	fmt.Println("  # Create a config file to persist settings")
	fmt.Println("  coverscout --init-config")
}

package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"coverscout/internal/store"
)

const defaultMaxPromptAttempts = 5

// Prompter runs the manual match loop: show ranked candidates, then pick,
// correct the query and re-search, skip, or abort. Input comes from any
// reader, so tests drive it with scripted responses.
type Prompter struct {
	in          *bufio.Scanner
	out         io.Writer
	maxAttempts int
	interactive bool
}

// NewPrompter creates a Prompter. Attempts are capped at maxAttempts
// (<= 0 selects the default) so a confused exchange can't loop forever.
func NewPrompter(in io.Reader, out io.Writer, maxAttempts int) *Prompter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxPromptAttempts
	}
	return &Prompter{
		in:          bufio.NewScanner(in),
		out:         out,
		maxAttempts: maxAttempts,
		interactive: isTerminal(in) && isTerminal(out),
	}
}

// CanPrompt reports whether there is an interactive host to talk to.
// A redirected stdin/stdout means prompts would hang; the engine falls back
// to suggestions instead.
func (p *Prompter) CanPrompt() bool {
	return p.interactive
}

// isTerminal treats non-file readers/writers (test scripts, pipes we were
// handed deliberately) as interactive; only real redirected std streams
// disable prompting.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return true
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run drives the prompt loop for a decision. research re-runs the lookup and
// scoring pipeline for a corrected query. The returned decision carries the
// user's action; abort additionally returns ErrAborted.
func (p *Prompter) Run(d Decision, research func(store.Query) Decision) (Decision, error) {
	current := d

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		p.show(current)

		if !p.in.Scan() {
			current.Action = Skipped
			return current, nil
		}
		input := strings.TrimSpace(p.in.Text())

		switch {
		case input == "s":
			current.Action = Skipped
			current.Chosen = nil
			return current, nil

		case input == "q":
			current.Action = Aborted
			current.Chosen = nil
			return current, ErrAborted

		case strings.Contains(input, "|"):
			corrected := applyCorrection(current.Query, input)
			if err := corrected.Validate(); err != nil {
				fmt.Fprintf(p.out, "invalid correction: %v\n", err)
				continue
			}
			current = research(corrected)

		default:
			if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(current.Ranked) {
				current.Chosen = &current.Ranked[n-1]
				current.Action = AutoApplied
				return current, nil
			}
			fmt.Fprintf(p.out, "enter a result number, Title|Artist|Album to re-search, s to skip, q to abort\n")
		}
	}

	current.Action = Skipped
	current.Chosen = nil
	return current, nil
}

// applyCorrection interprets a "Title|Artist|Album" input against the current
// query: "=" keeps the current value, an empty segment wipes the field, and
// missing trailing segments keep their current values.
func applyCorrection(q store.Query, input string) store.Query {
	segments := strings.SplitN(input, "|", 3)
	fields := []*string{&q.Track, &q.Artist, &q.Album}

	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		switch seg {
		case "=":
			// keep
		case "":
			*fields[i] = ""
		default:
			*fields[i] = seg
		}
	}
	return q
}

func (p *Prompter) show(d Decision) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	header.Fprintf(p.out, "no confident match for %q\n", d.Query.Raw())
	if len(d.Ranked) == 0 {
		dim.Fprintln(p.out, "  (no results)")
	}
	for i, s := range d.Ranked {
		c := s.Candidate
		fmt.Fprintf(p.out, "  %2d. [%.2f] %s", i+1, s.Display(), c.Title)
		if c.Artist != "" {
			fmt.Fprintf(p.out, " - %s", c.Artist)
		}
		if c.Album != "" {
			dim.Fprintf(p.out, " (%s)", c.Album)
		}
		fmt.Fprintln(p.out)
	}
	fmt.Fprint(p.out, "> ")
}

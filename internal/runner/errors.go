package runner

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// SequenceMismatchError reports that the command requested during replay is
// not the next command of the recording.
type SequenceMismatchError struct {
	Position int    // zero-based index of the record that was expected
	Expected string // command captured at record time
	Actual   string // command requested during replay
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch at record %d: expected %q but called %q",
		e.Position+1, e.Expected, e.Actual)
}

// OutOfRecordsError reports a replay that requested more commands than were
// recorded.
type OutOfRecordsError struct {
	Position int
	Total    int
	Command  string
}

func (e *OutOfRecordsError) Error() string {
	return fmt.Sprintf("no recorded invocation left for %q: all %d records consumed",
		e.Command, e.Total)
}

// IncompleteReplayError reports a replay that finished before consuming every
// recorded command.
type IncompleteReplayError struct {
	Consumed int
	Total    int
}

func (e *IncompleteReplayError) Error() string {
	return fmt.Sprintf("replay incomplete: consumed %d of %d records", e.Consumed, e.Total)
}

// colorMode controls ANSI color output in error messages.
type colorMode int

const (
	colorAuto colorMode = iota
	colorOn
	colorOff
)

// resolveColor determines whether to emit ANSI color codes.
// Priority: AZWEBAPPS_COLOR env > NO_COLOR env > auto-detect stderr TTY.
func resolveColor() colorMode {
	if v := os.Getenv("AZWEBAPPS_COLOR"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return colorOn
		case "0", "false", "no", "off":
			return colorOff
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return colorOff
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return colorOn
	}
	return colorOff
}

func red(s string, c colorMode) string {
	if c == colorOn {
		return "\033[31m" + s + "\033[0m"
	}
	return s
}

func green(s string, c colorMode) string {
	if c == colorOn {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

func bold(s string, c colorMode) string {
	if c == colorOn {
		return "\033[1m" + s + "\033[0m"
	}
	return s
}

// maxListedTokens bounds how many missing or extra tokens are printed.
const maxListedTokens = 5

// FormatSequenceMismatch renders a SequenceMismatchError as a token-level
// diff between the recorded and the requested command.
func FormatSequenceMismatch(err *SequenceMismatchError) string {
	color := resolveColor()
	var sb strings.Builder

	sb.WriteString(bold(fmt.Sprintf("Replay diverged at record %d:\n", err.Position+1), color))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Recorded:  %s\n", err.Expected)
	fmt.Fprintf(&sb, "  Requested: %s\n", err.Actual)

	expected := strings.Fields(err.Expected)
	received := strings.Fields(err.Actual)
	diffPos := findFirstDiff(expected, received)
	if diffPos < 0 {
		// same tokens, so the difference is whitespace only
		sb.WriteString("\n  Commands differ only in whitespace.\n")
		return sb.String()
	}

	sb.WriteString("\n")
	switch {
	case diffPos < len(expected) && diffPos < len(received):
		fmt.Fprintf(&sb, "  First difference at token %d:\n", diffPos)
		fmt.Fprintf(&sb, "    recorded:  %s\n", green(expected[diffPos], color))
		fmt.Fprintf(&sb, "    requested: %s\n", red(received[diffPos], color))
	case diffPos >= len(expected):
		fmt.Fprintf(&sb, "  Extra tokens starting at %d:\n", diffPos)
		writeTokens(&sb, received, diffPos, func(s string) string { return red(s, color) })
	default:
		fmt.Fprintf(&sb, "  Missing tokens starting at %d:\n", diffPos)
		writeTokens(&sb, expected, diffPos, func(s string) string { return green(s, color) })
	}

	return sb.String()
}

func writeTokens(sb *strings.Builder, tokens []string, from int, paint func(string) string) {
	limit := len(tokens)
	if limit-from > maxListedTokens {
		limit = from + maxListedTokens
	}
	for i := from; i < limit; i++ {
		fmt.Fprintf(sb, "    [%d]: %s\n", i, paint(fmt.Sprintf("%q", tokens[i])))
	}
	if len(tokens)-from > maxListedTokens {
		fmt.Fprintf(sb, "    ...+%d more\n", len(tokens)-from-maxListedTokens)
	}
}

// findFirstDiff returns the index of the first differing token, or -1 if the
// token lists are identical.
func findFirstDiff(expected, received []string) int {
	maxLen := len(expected)
	if len(received) > maxLen {
		maxLen = len(received)
	}
	for i := 0; i < maxLen; i++ {
		if i >= len(expected) || i >= len(received) || expected[i] != received[i] {
			return i
		}
	}
	return -1
}

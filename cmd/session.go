package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/azwebapps/azwebapps/internal/logging"
	"github.com/azwebapps/azwebapps/internal/recorder"
	"github.com/azwebapps/azwebapps/internal/runner"
	"github.com/azwebapps/azwebapps/internal/verify"
)

// ValidationResult is the validation outcome for a single session file.
type ValidationResult struct {
	File    string   `json:"file"`
	Valid   bool     `json:"valid"`
	Records int      `json:"records"`
	Errors  []string `json:"errors"`
}

var errSessionFailed = errors.New("session check failed")

// checkFormat lowercases format and rejects values outside allowed.
func checkFormat(format string, allowed ...string) (string, error) {
	f := strings.ToLower(format)
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: valid values are %s", format, strings.Join(allowed, ", "))
}

func newSessionCmd(app *App) *cobra.Command {
	session := &cobra.Command{
		Use:   "session",
		Short: "Inspect, validate and replay recorded session logs",
		// Session commands read session files themselves and never run az.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			app.log = logging.New(logging.WithOutput(app.Stderr))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error { return nil },
	}
	session.AddCommand(newSessionShowCmd(app), newSessionValidateCmd(app), newSessionReplayCmd(app))
	return session
}

func newSessionShowCmd(app *App) *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a session log for review",
		Long: `Print a recorded session log.

Formats:
  text   One line per record (default)
  yaml   Full records including output`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := checkFormat(format, "text", "yaml")
			if err != nil {
				return err
			}
			doc, err := recorder.ReadDocument(args[0])
			if err != nil {
				return err
			}
			if f == "text" {
				return recorder.RenderText(app.Stdout, doc)
			}
			out, err := recorder.RenderYAML(doc)
			if err != nil {
				return err
			}
			_, err = io.WriteString(app.Stdout, out)
			return err
		},
	}
	c.Flags().StringVar(&format, "format", "text", "Output format: text, yaml")
	return c
}

func newSessionValidateCmd(app *App) *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check session logs against the session schema",
		Long: `Validate one or more session logs without replaying them.

Exit code 0 if all files are valid, 1 if any file has errors.

Formats:
  text   Human-readable output to stderr (default)
  json   Structured JSON to stdout`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := checkFormat(format, "text", "json")
			if err != nil {
				return err
			}

			results := make([]ValidationResult, 0, len(args))
			invalid := 0
			for _, path := range args {
				r := validateFile(path)
				if !r.Valid {
					invalid++
				}
				results = append(results, r)
			}

			if f == "json" {
				if err := printJSON(app.Stdout, results); err != nil {
					return fmt.Errorf("failed to encode JSON output: %w", err)
				}
			} else {
				formatValidateText(app.Stderr, results)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d files invalid: %w", invalid, len(results), errSessionFailed)
			}
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", "text", "Output format: text, json")
	return c
}

// validateFile reads and schema-checks a single session log.
func validateFile(path string) ValidationResult {
	doc, err := recorder.ReadDocument(path)
	if err != nil {
		return ValidationResult{File: path, Errors: []string{err.Error()}}
	}
	return ValidationResult{File: path, Valid: true, Records: len(doc.Records), Errors: []string{}}
}

// formatValidateText writes human-readable validation results.
func formatValidateText(w io.Writer, results []ValidationResult) {
	validCount := 0
	for _, r := range results {
		if r.Valid {
			validCount++
			fmt.Fprintf(w, "✓ %s: valid (%d records)\n", r.File, r.Records)
			continue
		}
		fmt.Fprintf(w, "✗ %s:\n", r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if len(results) > 1 {
		fmt.Fprintf(w, "\nResult: %d/%d files valid\n", validCount, len(results))
	}
}

func newSessionReplayCmd(app *App) *cobra.Command {
	var format string
	var showOutput bool
	c := &cobra.Command{
		Use:   "replay <file>",
		Short: "Re-run a recorded session offline and check it replays exactly",
		Long: `Re-run the command line stored in a session log against its own records.

No az process is started. The run passes when every record is consumed in
order and nothing else is requested. A recorded az failure that happens again
in the same place is part of a faithful replay.

Formats:
  text   Human-readable output to stderr (default)
  json   Compact JSON to stdout
  junit  JUnit XML to stdout`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := checkFormat(format, "text", "json", "junit")
			if err != nil {
				return err
			}
			result := replaySession(app, args[0], showOutput)

			switch f {
			case "json":
				err = verify.FormatJSON(app.Stdout, result)
			case "junit":
				err = verify.FormatJUnit(app.Stdout, result, time.Time{})
			default:
				formatReplayText(app.Stderr, result)
			}
			if err != nil {
				return err
			}
			if !result.Passed {
				return errSessionFailed
			}
			return nil
		},
	}
	c.Flags().StringVar(&format, "format", "text", "Output format: text, json, or junit")
	c.Flags().BoolVar(&showOutput, "output", false, "print the replayed command's stdout")
	return c
}

// replaySession runs the recorded command line in a fresh command tree that
// answers every az call from the session file.
func replaySession(app *App, path string, showOutput bool) *verify.Result {
	cursor, err := runner.Load(path)
	if err != nil {
		return verify.BuildErrorResult(path, err.Error())
	}
	cmdLine := cursor.CommandLine()
	if len(cmdLine) == 0 {
		return verify.BuildErrorResult(path, "session has an empty command line")
	}

	stdout := io.Discard
	if showOutput {
		stdout = app.Stdout
	}
	replay := &App{
		Stdout:      stdout,
		Stderr:      app.Stderr,
		Starter:     app.Starter,
		CommandLine: cmdLine,
		Cursor:      cursor,
	}
	replayErr := Run(replay, cmdLine[1:])

	var mismatch *runner.SequenceMismatchError
	if errors.As(replayErr, &mismatch) {
		fmt.Fprint(app.Stderr, runner.FormatSequenceMismatch(mismatch))
	}
	return verify.BuildResult(path, cursor, replayErr)
}

// formatReplayText writes a human-readable replay summary.
func formatReplayText(w io.Writer, r *verify.Result) {
	if r.Passed {
		fmt.Fprintf(w, "✓ Session %q replayed: %d/%d records consumed", r.Session, r.ConsumedRecords, r.TotalRecords)
		if r.ExitCode != 0 {
			fmt.Fprintf(w, " (recorded failure rc:%d reproduced)", r.ExitCode)
		}
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "✗ Session %q failed\n", r.Session)
	fmt.Fprintf(w, "  consumed: %d/%d records\n", r.ConsumedRecords, r.TotalRecords)
	fmt.Fprintf(w, "  error: %s\n", r.Error)
	for _, rec := range r.Records {
		if rec.Error == "" {
			fmt.Fprintf(w, "  Record %d: %s ✓\n", rec.Index+1, rec.Command)
			continue
		}
		fmt.Fprintf(w, "  Record %d: %s ✗ %s\n", rec.Index+1, rec.Command, rec.Error)
	}
}

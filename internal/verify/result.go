// Package verify turns the outcome of replaying a session into a structured
// report that can be printed as JSON or JUnit XML.
package verify

import (
	"errors"

	"github.com/azwebapps/azwebapps/internal/executor"
	"github.com/azwebapps/azwebapps/internal/runner"
)

// Result is the structured outcome of one session replay.
type Result struct {
	Session         string         `json:"session"`
	CommandLine     []string       `json:"command_line"`
	Passed          bool           `json:"passed"`
	TotalRecords    int            `json:"total_records"`
	ConsumedRecords int            `json:"consumed_records"`
	ExitCode        int            `json:"exit_code"`
	Error           string         `json:"error,omitempty"`
	Records         []RecordResult `json:"records"`
}

// RecordResult is the replay status of a single recorded invocation.
type RecordResult struct {
	Index    int    `json:"index"`
	Command  string `json:"command"`
	ExitCode int    `json:"exit_code"`
	Consumed bool   `json:"consumed"`
	Error    string `json:"error,omitempty"`
}

// BuildResult builds a Result from the cursor state after a replay and the
// error the replayed command returned, if any.
//
// A CommandFailedError is the recorded run failing the same way again, so it
// sets ExitCode instead of failing the result. Any other error fails it.
func BuildResult(sessionFile string, cursor *runner.Cursor, replayErr error) *Result {
	entries := cursor.Entries()
	result := &Result{
		Session:         sessionFile,
		CommandLine:     cursor.CommandLine(),
		TotalRecords:    len(entries),
		ConsumedRecords: cursor.Position(),
		Records:         make([]RecordResult, len(entries)),
	}

	var failed *executor.CommandFailedError
	if errors.As(replayErr, &failed) {
		result.ExitCode = failed.ExitCode
		replayErr = nil
	}

	var mismatch *runner.SequenceMismatchError
	errors.As(replayErr, &mismatch)

	for i, inv := range entries {
		rec := RecordResult{
			Index:    i,
			Command:  inv.Command,
			ExitCode: inv.ExitCode,
			Consumed: i < cursor.Position(),
		}
		switch {
		case mismatch != nil && i == mismatch.Position:
			rec.Error = mismatch.Error()
		case !rec.Consumed:
			rec.Error = "not replayed"
		}
		result.Records[i] = rec
	}

	if replayErr == nil {
		replayErr = cursor.AssertExhausted()
	}
	if replayErr != nil {
		result.Error = replayErr.Error()
	}
	result.Passed = replayErr == nil
	return result
}

// BuildErrorResult builds a failed Result for a session that could not be
// replayed at all, for example because it failed to load.
func BuildErrorResult(sessionFile, errMsg string) *Result {
	return &Result{
		Session: sessionFile,
		Passed:  false,
		Error:   errMsg,
		Records: []RecordResult{},
	}
}

// Package runner replays previously recorded sessions.
package runner

import (
	"fmt"

	"github.com/azwebapps/azwebapps/internal/recorder"
)

// Cursor walks a recorded session in order. Each requested command must be
// exactly the next recorded one.
type Cursor struct {
	cmdLine  []string
	entries  []recorder.Invocation
	position int
}

// NewCursor returns a cursor positioned before the first entry.
func NewCursor(cmdLine []string, entries []recorder.Invocation) *Cursor {
	return &Cursor{
		cmdLine: append([]string{}, cmdLine...),
		entries: append([]recorder.Invocation{}, entries...),
	}
}

// Load reads a persisted session log into a new cursor. The file is read
// once and never consulted again.
func Load(path string) (*Cursor, error) {
	doc, err := recorder.ReadDocument(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay session: %w", err)
	}
	return NewCursor(doc.CmdLine, doc.Records), nil
}

// Next returns the recorded invocation for command and advances the cursor.
// On a mismatch or when all records are consumed the position is unchanged.
func (c *Cursor) Next(command string) (recorder.Invocation, error) {
	if c.position >= len(c.entries) {
		return recorder.Invocation{}, &OutOfRecordsError{
			Position: c.position,
			Total:    len(c.entries),
			Command:  command,
		}
	}

	inv := c.entries[c.position]
	if !inv.Matches(command) {
		return recorder.Invocation{}, &SequenceMismatchError{
			Position: c.position,
			Expected: inv.Command,
			Actual:   command,
		}
	}

	c.position++
	return inv, nil
}

// AssertExhausted fails unless every recorded invocation has been consumed.
func (c *Cursor) AssertExhausted() error {
	if c.position != len(c.entries) {
		return &IncompleteReplayError{Consumed: c.position, Total: len(c.entries)}
	}
	return nil
}

// Position returns the index of the next entry to consume.
func (c *Cursor) Position() int { return c.position }

// Len returns the number of recorded entries.
func (c *Cursor) Len() int { return len(c.entries) }

// Remaining returns how many entries have not been consumed yet.
func (c *Cursor) Remaining() int { return len(c.entries) - c.position }

// CommandLine returns the argument vector the session was recorded with.
func (c *Cursor) CommandLine() []string {
	return append([]string{}, c.cmdLine...)
}

// Entries returns a copy of all recorded entries.
func (c *Cursor) Entries() []recorder.Invocation {
	return append([]recorder.Invocation{}, c.entries...)
}

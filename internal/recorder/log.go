package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Document is the persisted form of a session log.
type Document struct {
	CmdLine []string     `json:"cmdLine"`
	Records []Invocation `json:"records"`
}

// SessionLog is an append-only sequence of invocations tied to one recording
// session. The file at Path always reflects the in-memory state once Create
// or Append has returned.
type SessionLog struct {
	path    string
	cmdLine []string
	entries []Invocation
}

// Create starts an empty session log for cmdLine and persists it immediately,
// overwriting path.
func Create(path string, cmdLine []string) (*SessionLog, error) {
	l := &SessionLog{
		path:    path,
		cmdLine: append([]string{}, cmdLine...),
		entries: []Invocation{},
	}
	if err := l.write(l.entries); err != nil {
		return nil, err
	}
	return l, nil
}

// Append adds inv to the log and rewrites the whole file. On error the log
// is left as it was before the call.
func (l *SessionLog) Append(inv Invocation) error {
	next := make([]Invocation, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	next = append(next, inv)
	if err := l.write(next); err != nil {
		return err
	}
	l.entries = next
	return nil
}

// Path returns the file the log is persisted to.
func (l *SessionLog) Path() string { return l.path }

// CommandLine returns the argument vector of the recorded program run.
func (l *SessionLog) CommandLine() []string {
	return append([]string{}, l.cmdLine...)
}

// Entries returns a copy of the recorded invocations in invocation order.
func (l *SessionLog) Entries() []Invocation {
	return append([]Invocation{}, l.entries...)
}

// Len returns the number of recorded invocations.
func (l *SessionLog) Len() int { return len(l.entries) }

// Document returns the persisted form of the log.
func (l *SessionLog) Document() *Document {
	return &Document{CmdLine: l.CommandLine(), Records: l.Entries()}
}

// write persists cmdLine with entries via a temp file and rename so that a
// reader never observes a partially written document.
func (l *SessionLog) write(entries []Invocation) error {
	doc := &Document{CmdLine: l.cmdLine, Records: entries}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to open session log for writing: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write session log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write session log: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename session log: %w", err)
	}
	return nil
}

// ReadDocument loads and validates a persisted session log.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument validates data against the session schema and decodes it.
func ParseDocument(data []byte) (*Document, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse session log: %w", err)
	}
	if doc.Records == nil {
		doc.Records = []Invocation{}
	}
	return &doc, nil
}

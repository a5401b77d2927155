// Package recorder captures external command invocations and persists them
// as session logs that can later be replayed.
package recorder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/azwebapps/azwebapps/internal/process"
)

// Invocation is the captured outcome of one external command. It is a value
// type: holders get their own copy and never share mutable state.
type Invocation struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewInvocation builds an Invocation from already known values.
func NewInvocation(command string, exitCode int, stdout, stderr string) Invocation {
	return Invocation{
		Command:  command,
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	}
}

// Capture runs command as an external process and returns its outcome.
// The command text is split on whitespace; no shell is involved.
//
// Capture never fails: a non-zero exit is reported through ExitCode, and a
// process that cannot be started at all is reported with
// process.NotStartedExitCode and the start error in Stderr.
func Capture(starter process.Starter, command string) Invocation {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return NewInvocation(command, process.NotStartedExitCode, "", "empty command")
	}

	cmd := starter.Command(argv[0], argv[1:]...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	exitCode := process.ExitCode(runErr)
	stderr := errBuf.String()
	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		// never started, e.g. executable not found
		exitCode = process.NotStartedExitCode
		stderr += runErr.Error()
	}

	return NewInvocation(command, exitCode, text(outBuf.Bytes()), text([]byte(stderr)))
}

// text decodes captured bytes, replacing invalid UTF-8 so that the value held
// in memory is exactly the value that survives a JSON round-trip.
func text(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// Matches reports whether the invocation was recorded for exactly command.
func (i Invocation) Matches(command string) bool {
	return i.Command == command
}

// String renders the invocation as CmdRun("cmd", rc, "out", "err").
func (i Invocation) String() string {
	return fmt.Sprintf("CmdRun(%s, %d, %s, %s)",
		quote(i.Command), i.ExitCode, quote(i.Stdout), quote(i.Stderr))
}

func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return string(data)
}

// MarshalJSON encodes the invocation as [command, exitCode, stdout, stderr].
func (i Invocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{i.Command, i.ExitCode, i.Stdout, i.Stderr})
}

// UnmarshalJSON decodes the 4-tuple form written by MarshalJSON.
// A null stdout or stderr decodes as the empty string.
func (i *Invocation) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("record must be an array: %w", err)
	}
	if len(tuple) != 4 {
		return fmt.Errorf("record must have 4 elements, got %d", len(tuple))
	}

	var (
		command        string
		stdout, stderr *string
	)
	if err := json.Unmarshal(tuple[0], &command); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	exitCode, err := decodeExitCode(tuple[1])
	if err != nil {
		return fmt.Errorf("record exit code: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &stdout); err != nil {
		return fmt.Errorf("record stdout: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &stderr); err != nil {
		return fmt.Errorf("record stderr: %w", err)
	}

	*i = NewInvocation(command, exitCode, deref(stdout), deref(stderr))
	return nil
}

// decodeExitCode accepts any JSON number with an integral value, so 2 and
// 2.0 both decode as 2.
func decodeExitCode(data json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %s", data)
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer exit code", n)
	}
	return int(f), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package executor is the single entry point through which external commands
// are issued. An Executor either runs commands live, optionally recording
// them into a session log, or replays them from a recorded session.
package executor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/azwebapps/azwebapps/internal/logging"
	"github.com/azwebapps/azwebapps/internal/process"
	"github.com/azwebapps/azwebapps/internal/recorder"
	"github.com/azwebapps/azwebapps/internal/runner"
)

// Mode identifies which variant an Executor was built as.
type Mode int

const (
	ModeLive Mode = iota
	ModeRecord
	ModeReplay
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return "live"
	}
}

// Echo selects which captured streams are copied to the diagnostic stream.
type Echo struct {
	Stdout bool
	Stderr bool // only when non-empty
}

// DefaultEcho shows stderr but not stdout.
var DefaultEcho = Echo{Stderr: true}

// CommandFailedError is returned by Execute when the invocation exited
// non-zero. It is the only way a non-zero exit surfaces as an error.
type CommandFailedError struct {
	Command  string
	ExitCode int
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("rc:%d from %q", e.ExitCode, e.Command)
}

// Executor dispatches commands to live execution or to replay. At most one of
// recordTo and replayFrom is set; the constructors enforce this.
type Executor struct {
	recordTo   *recorder.SessionLog
	replayFrom *runner.Cursor

	starter process.Starter
	diag    io.Writer
	log     *logrus.Logger

	last *recorder.Invocation
}

// Option configures an Executor.
type Option func(*Executor)

// WithDiagnostics sets the stream that receives progress lines and echoed
// output. Defaults to os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(e *Executor) {
		e.diag = w
	}
}

// WithLogger sets the logger used for progress lines. By default a logger
// writing to the diagnostic stream is created.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Executor) {
		e.log = l
	}
}

// WithStarter overrides how live commands are started.
func WithStarter(s process.Starter) Option {
	return func(e *Executor) {
		e.starter = s
	}
}

// NewLive returns an Executor that runs commands. If log is non-nil every
// invocation is appended to it.
func NewLive(log *recorder.SessionLog, opts ...Option) *Executor {
	e := &Executor{recordTo: log}
	e.apply(opts)
	return e
}

// NewReplay returns an Executor that answers every command from cursor and
// never starts a process.
func NewReplay(cursor *runner.Cursor, opts ...Option) *Executor {
	if cursor == nil {
		panic("executor: NewReplay requires a cursor")
	}
	e := &Executor{replayFrom: cursor}
	e.apply(opts)
	return e
}

func (e *Executor) apply(opts []Option) {
	for _, opt := range opts {
		opt(e)
	}
	if e.diag == nil {
		e.diag = os.Stderr
	}
	if e.starter == nil {
		e.starter = process.OSStarter{}
	}
	if e.log == nil {
		e.log = logging.New(logging.WithOutput(e.diag))
	}
}

// Mode reports the variant of e.
func (e *Executor) Mode() Mode {
	switch {
	case e.replayFrom != nil:
		return ModeReplay
	case e.recordTo != nil:
		return ModeRecord
	default:
		return ModeLive
	}
}

// Execute issues command and keeps its outcome as the current result.
//
// Replay errors from the cursor and session log write failures are returned
// unchanged in kind; both are fatal to the session. A non-zero exit yields a
// *CommandFailedError after the result has been stored and echoed.
func (e *Executor) Execute(command string, echo Echo) error {
	var inv recorder.Invocation

	if e.replayFrom != nil {
		got, err := e.replayFrom.Next(command)
		if err != nil {
			return err
		}
		e.log.Infof("fake: %s", command)
		inv = got
	} else {
		e.log.Infof("run: %s", command)
		inv = recorder.Capture(e.starter, command)
		if e.recordTo != nil {
			if err := e.recordTo.Append(inv); err != nil {
				return fmt.Errorf("recording %s: %w", e.recordTo.Path(), err)
			}
		}
	}

	e.last = &inv

	if echo.Stdout {
		e.echo(inv.Stdout)
	}
	if echo.Stderr && inv.Stderr != "" {
		e.echo(inv.Stderr)
	}
	if inv.ExitCode != 0 {
		return &CommandFailedError{Command: command, ExitCode: inv.ExitCode}
	}
	return nil
}

func (e *Executor) echo(s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, _ = io.WriteString(e.diag, s)
}

// Result returns the most recent invocation, if any.
func (e *Executor) Result() (recorder.Invocation, bool) {
	if e.last == nil {
		return recorder.Invocation{}, false
	}
	return *e.last, true
}

// Text returns the stdout of the most recent invocation.
func (e *Executor) Text() string {
	if e.last == nil {
		return ""
	}
	return e.last.Stdout
}

// JSON decodes the stdout of the most recent invocation. Output that is not
// JSON is logged and yields nil.
func (e *Executor) JSON() interface{} {
	var v interface{}
	if !e.DecodeJSON(&v) {
		return nil
	}
	return v
}

// DecodeJSON decodes the stdout of the most recent invocation into v. It
// returns false, after logging, when the output is not valid JSON, which lets
// callers tell a failed decode from a valid empty result.
func (e *Executor) DecodeJSON(v interface{}) bool {
	if e.last == nil {
		e.log.Warn("not json: no command has been executed")
		return false
	}
	if err := json.Unmarshal([]byte(e.last.Stdout), v); err != nil {
		e.log.WithError(err).Warnf("not json: %s", e.last.Stdout)
		return false
	}
	return true
}

// Finish ends the session. In replay mode it fails unless every recorded
// invocation was consumed; otherwise it does nothing.
func (e *Executor) Finish() error {
	if e.replayFrom != nil {
		return e.replayFrom.AssertExhausted()
	}
	return nil
}

// Package process abstracts how external commands are started so that the
// live execution path can be exercised in tests without the real az binary.
package process

import (
	"os/exec"
)

// Starter creates exec.Cmd instances for a program name and its arguments.
// Tests substitute their own Starter to redirect a command to a stand-in.
type Starter interface {
	Command(name string, args ...string) *exec.Cmd
}

// OSStarter is the production Starter backed by os/exec.
type OSStarter struct{}

// Command creates a standard exec.Cmd.
func (OSStarter) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...) //nolint:gosec // commands are built by azcli
}

// StarterFunc adapts a plain function to the Starter interface.
type StarterFunc func(name string, args ...string) *exec.Cmd

// Command calls f(name, args...).
func (f StarterFunc) Command(name string, args ...string) *exec.Cmd {
	return f(name, args...)
}

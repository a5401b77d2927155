// Package main is the azwebapps entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/azwebapps/azwebapps/cmd"
	"github.com/azwebapps/azwebapps/internal/executor"
	"github.com/azwebapps/azwebapps/internal/runner"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	var mismatch *runner.SequenceMismatchError
	if errors.As(err, &mismatch) {
		fmt.Fprint(os.Stderr, runner.FormatSequenceMismatch(mismatch))
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status. A failed az
// invocation passes its exit code through when the shell can see it unchanged;
// anything else, including codes outside 1..255, exits 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var failed *executor.CommandFailedError
	if errors.As(err, &failed) && failed.ExitCode >= 1 && failed.ExitCode <= 255 {
		return failed.ExitCode
	}
	return 1
}

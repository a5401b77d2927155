package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/azwebapps/azwebapps/internal/executor"
	"github.com/azwebapps/azwebapps/internal/runner"
)

func TestExitCode(t *testing.T) {
	failed := func(code int) error {
		return &executor.CommandFailedError{Command: "az webapp list --resource-group rg", ExitCode: code}
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "plain error", err: errors.New("boom"), want: 1},
		{name: "command failed", err: failed(3), want: 3},
		{name: "wrapped command failed", err: fmt.Errorf("restart: %w", failed(2)), want: 2},
		{name: "highest shell code", err: failed(255), want: 255},
		{name: "code truncated to zero by the shell", err: failed(256), want: 1},
		{name: "code above a byte", err: failed(300), want: 1},
		{name: "negative code", err: failed(-1), want: 1},
		{name: "replay mismatch", err: &runner.SequenceMismatchError{Expected: "a", Actual: "b"}, want: 1},
		{name: "incomplete replay", err: &runner.IncompleteReplayError{Consumed: 1, Total: 2}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azwebapps/azwebapps/internal/recorder"
)

func singleRecord() []recorder.Invocation {
	return []recorder.Invocation{recorder.NewInvocation("a", 0, "out", "err")}
}

func TestCursor_ConcreteScenario(t *testing.T) {
	c := NewCursor(nil, singleRecord())

	inv, err := c.Next("a")
	require.NoError(t, err)
	assert.Equal(t, recorder.NewInvocation("a", 0, "out", "err"), inv)
	assert.Equal(t, `CmdRun("a", 0, "out", "err")`, inv.String())
	assert.NoError(t, c.AssertExhausted())
}

func TestCursor_AssertExhausted_Unconsumed(t *testing.T) {
	c := NewCursor(nil, singleRecord())

	err := c.AssertExhausted()
	var incomplete *IncompleteReplayError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, 0, incomplete.Consumed)
	assert.Equal(t, 1, incomplete.Total)
	assert.Contains(t, err.Error(), "consumed 0 of 1")
}

func TestCursor_Next_WrongCommand(t *testing.T) {
	c := NewCursor(nil, singleRecord())

	_, err := c.Next("b")
	var mismatch *SequenceMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "a", mismatch.Expected)
	assert.Equal(t, "b", mismatch.Actual)
	assert.Equal(t, 0, mismatch.Position)
	assert.Equal(t, 0, c.Position(), "mismatch must not advance the cursor")
}

func TestCursor_OrderEnforcement(t *testing.T) {
	c := NewCursor(nil, []recorder.Invocation{
		recorder.NewInvocation("A", 0, "", ""),
		recorder.NewInvocation("B", 0, "", ""),
	})

	_, err := c.Next("B")
	var mismatch *SequenceMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 0, c.Position())

	_, err = c.Next("A")
	require.NoError(t, err)
	_, err = c.Next("B")
	require.NoError(t, err)
	assert.NoError(t, c.AssertExhausted())
}

func TestCursor_Exhaustion(t *testing.T) {
	const n = 4
	entries := make([]recorder.Invocation, n)
	for i := range entries {
		entries[i] = recorder.NewInvocation(fmt.Sprintf("cmd %d", i), 0, "", "")
	}

	for consumed := 0; consumed <= n; consumed++ {
		t.Run(fmt.Sprintf("consumed=%d", consumed), func(t *testing.T) {
			c := NewCursor(nil, entries)
			for i := 0; i < consumed; i++ {
				_, err := c.Next(fmt.Sprintf("cmd %d", i))
				require.NoError(t, err)
			}

			err := c.AssertExhausted()
			if consumed == n {
				assert.NoError(t, err)
				return
			}
			var incomplete *IncompleteReplayError
			require.True(t, errors.As(err, &incomplete))
			assert.Equal(t, consumed, incomplete.Consumed)
			assert.Equal(t, n, incomplete.Total)
			assert.Equal(t, n-consumed, c.Remaining())
		})
	}
}

func TestCursor_OverRead(t *testing.T) {
	c := NewCursor(nil, singleRecord())
	_, err := c.Next("a")
	require.NoError(t, err)

	inv, err := c.Next("a")
	var out *OutOfRecordsError
	require.True(t, errors.As(err, &out))
	assert.Equal(t, 1, out.Position)
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, "a", out.Command)
	assert.Equal(t, recorder.Invocation{}, inv, "no stale record is returned")
	assert.Equal(t, 1, c.Position())
}

func TestCursor_EmptySession(t *testing.T) {
	c := NewCursor(nil, nil)

	assert.NoError(t, c.AssertExhausted())
	_, err := c.Next("a")
	var out *OutOfRecordsError
	assert.True(t, errors.As(err, &out))
}

func TestLoad_RoundTripWithSessionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	cmdLine := []string{"azwebapps", "webapp", "list"}
	log, err := recorder.Create(path, cmdLine)
	require.NoError(t, err)

	want := []recorder.Invocation{
		recorder.NewInvocation("az webapp list --resource-group rg", 0, `[{"name":"app"}]`, ""),
		recorder.NewInvocation("az webapp config container show -n app -g rg", 0, "[]", "WARNING: preview\n"),
		recorder.NewInvocation("az webapp list --resource-group rg", 2, "", "throttled\n"),
	}
	for _, r := range want {
		require.NoError(t, log.Append(r))
	}

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cmdLine, c.CommandLine())
	require.Equal(t, len(want), c.Len())

	for _, r := range want {
		got, err := c.Next(r.Command)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	assert.NoError(t, c.AssertExhausted())
}

func TestLoad_ReadsFileOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cmdLine":[],"records":[["a",0,"",""]]}`), 0600))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	_, err = c.Next("a")
	assert.NoError(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"records": "nope"}`), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load replay session")
}

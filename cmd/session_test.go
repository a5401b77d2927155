package cmd

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azwebapps/azwebapps/internal/recorder"
	"github.com/azwebapps/azwebapps/internal/verify"
)

func listSession(t *testing.T) string {
	t.Helper()
	return writeSession(t, []string{"azwebapps", "-g", "rg", "--record", "x.json", "webapp", "list"},
		recorder.NewInvocation("az webapp list --resource-group rg", 0, `[{"name":"app1"}]`, ""))
}

func TestSessionShow_Text(t *testing.T) {
	path := listSession(t)

	app, stdout, _ := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "show", path))
	assert.Equal(t, "command line: azwebapps -g rg --record x.json webapp list\n"+
		"records: 1\n"+
		"  1. [exit 0] az webapp list --resource-group rg (stdout 17 bytes, stderr 0 bytes)\n", stdout.String())
}

func TestSessionShow_YAML(t *testing.T) {
	path := listSession(t)

	app, stdout, _ := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "show", "--format", "yaml", path))
	assert.Contains(t, stdout.String(), "command_line:")
	assert.Contains(t, stdout.String(), "command: az webapp list --resource-group rg")
}

func TestSessionShow_BadFormat(t *testing.T) {
	app, _, _ := newTestApp(noProcess(t))
	err := run(app, "session", "show", "--format", "xml", listSession(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestSessionCommandsIgnoreRecordFlag(t *testing.T) {
	recordPath := filepath.Join(t.TempDir(), "never.json")

	app, _, _ := newTestApp(noProcess(t))
	require.NoError(t, run(app, "--record", recordPath, "session", "show", listSession(t)))
	_, err := os.Stat(recordPath)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionValidate(t *testing.T) {
	good := listSession(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"cmdLine":[],"records":[["az",0,"out"]]}`), 0o600))

	t.Run("valid", func(t *testing.T) {
		app, _, stderr := newTestApp(noProcess(t))
		require.NoError(t, run(app, "session", "validate", good))
		assert.Contains(t, stderr.String(), "✓ "+good+": valid (1 records)")
	})

	t.Run("mixed text", func(t *testing.T) {
		app, _, stderr := newTestApp(noProcess(t))
		err := run(app, "session", "validate", good, bad)
		assert.ErrorIs(t, err, errSessionFailed)
		assert.Contains(t, stderr.String(), "✗ "+bad+":")
		assert.Contains(t, stderr.String(), "Result: 1/2 files valid")
	})

	t.Run("mixed json", func(t *testing.T) {
		app, stdout, _ := newTestApp(noProcess(t))
		err := run(app, "session", "validate", "--format", "json", good, bad)
		assert.ErrorIs(t, err, errSessionFailed)

		var results []ValidationResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
		require.Len(t, results, 2)
		assert.True(t, results[0].Valid)
		assert.Equal(t, 1, results[0].Records)
		assert.False(t, results[1].Valid)
		assert.NotEmpty(t, results[1].Errors)
	})
}

func TestSessionReplay_Passes(t *testing.T) {
	path := listSession(t)

	app, stdout, stderr := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "replay", path))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "replayed: 1/1 records consumed")
	_, err := os.Stat("x.json")
	assert.True(t, os.IsNotExist(err), "replay must not honor the recorded --record flag")
}

func TestSessionReplay_ShowOutput(t *testing.T) {
	app, stdout, _ := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "replay", "--output", listSession(t)))
	assert.Equal(t, "app1\n", stdout.String())
}

func TestSessionReplay_JSON(t *testing.T) {
	app, stdout, _ := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "replay", "--format", "json", listSession(t)))

	var result verify.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.ConsumedRecords)
	assert.Equal(t, []string{"azwebapps", "-g", "rg", "--record", "x.json", "webapp", "list"}, result.CommandLine)
}

func TestSessionReplay_Mismatch(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	path := writeSession(t, []string{"azwebapps", "-g", "rg", "webapp", "list"},
		recorder.NewInvocation("az webapp list -g rg", 0, "[]", ""))

	app, stdout, stderr := newTestApp(noProcess(t))
	err := run(app, "session", "replay", "--format", "junit", path)
	assert.ErrorIs(t, err, errSessionFailed)
	assert.Contains(t, stderr.String(), "Replay diverged at record 1:")

	var suites verify.JUnitTestSuites
	require.NoError(t, xml.Unmarshal(stdout.Bytes(), &suites))
	require.Len(t, suites.Suites[0].Cases, 1)
	require.NotNil(t, suites.Suites[0].Cases[0].Failure)
	assert.Equal(t, "SequenceMismatch", suites.Suites[0].Cases[0].Failure.Type)
}

func TestSessionReplay_Incomplete(t *testing.T) {
	path := writeSession(t, []string{"azwebapps", "-g", "rg", "plan", "list"},
		recorder.NewInvocation("az appservice plan list -g rg", 0, "[]", ""),
		recorder.NewInvocation("az acr list -g rg", 0, "[]", ""))

	app, _, stderr := newTestApp(noProcess(t))
	err := run(app, "session", "replay", path)
	assert.ErrorIs(t, err, errSessionFailed)
	assert.Contains(t, stderr.String(), "consumed: 1/2 records")
	assert.Contains(t, stderr.String(), "Record 2: az acr list -g rg ✗ not replayed")
}

func TestSessionReplay_ReproducedFailure(t *testing.T) {
	path := writeSession(t, []string{"azwebapps", "-g", "rg", "webapp", "restart", "app"},
		recorder.NewInvocation("az webapp restart -n app -g rg", 4, "", "Conflict"))

	app, _, stderr := newTestApp(noProcess(t))
	require.NoError(t, run(app, "session", "replay", path))
	assert.Contains(t, stderr.String(), "recorded failure rc:4 reproduced")
}

func TestSessionReplay_LoadError(t *testing.T) {
	app, stdout, _ := newTestApp(noProcess(t))
	err := run(app, "session", "replay", "--format", "json", filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, errSessionFailed))

	var result verify.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.False(t, result.Passed)
	assert.Contains(t, result.Error, "failed to load replay session")
}

func TestSessionReplay_EmptyCommandLine(t *testing.T) {
	path := writeSession(t, []string{})

	app, _, stderr := newTestApp(noProcess(t))
	err := run(app, "session", "replay", path)
	assert.ErrorIs(t, err, errSessionFailed)
	assert.Contains(t, stderr.String(), "session has an empty command line")
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmux/quorum/internal/models"
)

// resetCLIGlobals zeroes the package-level flag vars so prior tests don't leak.
func resetCLIGlobals() {
	configPath = ""
	runModels = nil
	runStrategy = ""
	runTaskType = ""
	runSystem = ""
	runTimeoutMs = 0
	runConcurrency = 0
	runOffline = false
	runEnableCache = false
	runOutputPath = ""
	runQuiet = false
	runInterpret = false
	runFormat = "default"
	compareProviders = nil
	compareTaskType = ""
	compareOffline = false
	compareFormat = "table"
	compareJUnitPath = ""
	statsFormat = "table"
	historyLimit = 0
	initForce = false
	cacheDirFlag = ""
}

// writeTestConfig writes a quorum.yaml whose history and cache paths live
// inside a temp dir and points the --config override at it, so commands
// under test never touch the real working directory. Returns the dir.
func writeTestConfig(t *testing.T, providers ...string) string {
	t.Helper()
	dir := t.TempDir()

	if len(providers) == 0 {
		providers = []string{"alpha", "beta"}
	}

	var b strings.Builder
	b.WriteString("defaults:\n  strategy: quality\n  models:\n")
	for _, p := range providers {
		fmt.Fprintf(&b, "    - %s\n", p)
	}
	fmt.Fprintf(&b, "history:\n  path: %s\n", filepath.Join(dir, "history.json"))
	fmt.Fprintf(&b, "cache:\n  dir: %s\n", filepath.Join(dir, "cache"))

	path := filepath.Join(dir, "quorum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	configPath = path
	return dir
}

// readHistoryFile unmarshals the rounds a test run recorded.
func readHistoryFile(t *testing.T, dir string) []models.OrchestrationResult {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, "history.json"))
	require.NoError(t, err)

	var rounds []models.OrchestrationResult
	require.NoError(t, json.Unmarshal(data, &rounds))
	return rounds
}

// ---------------------------------------------------------------------------
// Argument validation
// ---------------------------------------------------------------------------

func TestRunCommand_RequiresExactlyOneArg(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"two args", []string{"prompt one", "prompt two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetCLIGlobals()
			cmd := newRunCommand()
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			assert.Error(t, err, "expected error for args=%v", tt.args)
		})
	}
}

// ---------------------------------------------------------------------------
// Flag parsing
// ---------------------------------------------------------------------------

func TestRunCommand_FlagsParsed(t *testing.T) {
	resetCLIGlobals()

	cmd := newRunCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--models", "openai,anthropic",
		"--strategy", "speed",
		"--timeout", "5000",
		"--concurrency", "2",
		"--offline",
		"--quiet",
	}))

	vals, err := cmd.Flags().GetStringSlice("models")
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "anthropic"}, vals)

	strategy, err := cmd.Flags().GetString("strategy")
	require.NoError(t, err)
	assert.Equal(t, "speed", strategy)

	timeout, err := cmd.Flags().GetInt("timeout")
	require.NoError(t, err)
	assert.Equal(t, 5000, timeout)

	offline, err := cmd.Flags().GetBool("offline")
	require.NoError(t, err)
	assert.True(t, offline)
}

func TestRunCommand_ShortFlags(t *testing.T) {
	resetCLIGlobals()

	cmd := newRunCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"-m", "static",
		"-s", "cost",
		"-o", "out.json",
		"-q",
	}))

	vals, err := cmd.Flags().GetStringSlice("models")
	require.NoError(t, err)
	assert.Equal(t, []string{"static"}, vals)

	quiet, err := cmd.Flags().GetBool("quiet")
	require.NoError(t, err)
	assert.True(t, quiet)
}

// ---------------------------------------------------------------------------
// Error handling
// ---------------------------------------------------------------------------

func TestRunCommand_UnknownProviderFailsFast(t *testing.T) {
	resetCLIGlobals()
	writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"-m", "ghost", "hello"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRunCommand_MissingAPIKey(t *testing.T) {
	resetCLIGlobals()
	writeTestConfig(t)
	t.Setenv("QUORUM_OPENAI_API_KEY", "")

	cmd := newRunCommand()
	cmd.SetArgs([]string{"-m", "openai", "hello"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUORUM_OPENAI_API_KEY")
}

func TestRunCommand_InvalidStrategy(t *testing.T) {
	resetCLIGlobals()
	writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "-s", "fastest", "hello"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid strategy")
}

func TestRunCommand_MissingConfigFile(t *testing.T) {
	resetCLIGlobals()
	configPath = filepath.Join(t.TempDir(), "nope.yaml")

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "hello"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestRunCommand_UnknownFormat(t *testing.T) {
	resetCLIGlobals()

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--format", "yaml", "hello"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

// ---------------------------------------------------------------------------
// Integration with offline adapters (full round)
// ---------------------------------------------------------------------------

func TestRunCommand_OfflineRoundTrip(t *testing.T) {
	resetCLIGlobals()
	dir := writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--quiet", "Explain how request limiting works"})
	require.NoError(t, cmd.Execute())

	rounds := readHistoryFile(t, dir)
	require.Len(t, rounds, 1)

	round := rounds[0]
	assert.ElementsMatch(t, []string{"alpha", "beta"}, round.Models)
	assert.Len(t, round.Responses, 2)
	assert.NotEmpty(t, round.SelectedResponse.Text)
	assert.Contains(t, []string{"alpha", "beta"}, round.SelectedResponse.Provider)
}

func TestRunCommand_ModelsFlagOverridesConfig(t *testing.T) {
	resetCLIGlobals()
	dir := writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--quiet", "-m", "gamma", "hello"})
	require.NoError(t, cmd.Execute())

	rounds := readHistoryFile(t, dir)
	require.Len(t, rounds, 1)
	assert.Equal(t, []string{"gamma"}, rounds[0].Models)
}

func TestRunCommand_OutputJSON(t *testing.T) {
	resetCLIGlobals()
	writeTestConfig(t)
	outFile := filepath.Join(t.TempDir(), "round.json")

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--quiet", "--output", outFile, "hello"})
	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var result models.OrchestrationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "hello", result.Prompt)
	assert.Len(t, result.Responses, 2)
	assert.NotEmpty(t, result.SelectedResponse.Text)
}

func TestRunCommand_SpeedStrategyOffline(t *testing.T) {
	resetCLIGlobals()
	dir := writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--quiet", "-s", "speed", "hello"})
	require.NoError(t, cmd.Execute())

	rounds := readHistoryFile(t, dir)
	require.Len(t, rounds, 1)
	assert.False(t, rounds[0].SelectedResponse.Failed())
}

func TestRunCommand_GitHubCommentFormat(t *testing.T) {
	resetCLIGlobals()
	dir := writeTestConfig(t)

	cmd := newRunCommand()
	cmd.SetArgs([]string{"--offline", "--format", "github-comment", "hello"})
	require.NoError(t, cmd.Execute())

	// The round is still recorded regardless of output format.
	rounds := readHistoryFile(t, dir)
	require.Len(t, rounds, 1)
}

// ---------------------------------------------------------------------------
// Root command wiring
// ---------------------------------------------------------------------------

func TestRootCommand_HasAllSubcommands(t *testing.T) {
	root := newRootCommand()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"run", "compare", "stats", "history", "serve", "init", "cache"} {
		assert.True(t, names[want], "root command should have %q subcommand", want)
	}
}

func TestRootCommand_ConfigFlagBinds(t *testing.T) {
	resetCLIGlobals()

	root := newRootCommand()
	require.NoError(t, root.ParseFlags([]string{"--config", "custom.yaml"}))
	assert.Equal(t, "custom.yaml", configPath)
}

// Package cli — setup_test.go contains tests for the setup command's
// success output: the success message, the blank line, and the trailing
// usage hint that tells the user how to run project scripts.
package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureStdout redirects os.Stdout to a pipe while fn runs and returns
// everything fn printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

// TestPrintSetupResult_Text verifies the exact success output shape:
// success message, blank line, and the output ending with the usage
// hint that mentions how to run a script.
func TestPrintSetupResult_Text(t *testing.T) {
	jsonOutput = false

	out := captureStdout(t, printSetupResult)

	want := "Setup complete: virtual environment created and dependencies installed.\n" +
		"\n" +
		setupUsageHint + "\n"
	assert.Equal(t, want, out)

	// The hint must name how to run project scripts.
	assert.Contains(t, setupUsageHint, "uv run main.py")
	assert.True(t, strings.HasSuffix(out, setupUsageHint+"\n"),
		"output must end with the usage hint")
}

// TestPrintSetupResult_JSON verifies the machine-readable success output.
func TestPrintSetupResult_JSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	out := captureStdout(t, printSetupResult)

	var result struct {
		Status string   `json:"status"`
		Steps  []string `json:"steps"`
		Hint   string   `json:"hint"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, []string{"uv", "venv", "install"}, result.Steps)
	assert.Equal(t, setupUsageHint, result.Hint)
}

// TestSetupCommand_Success runs the full setup command against a fake
// uv that succeeds at every step: the command must return nil (exit 0)
// and print the success message followed by the usage hint.
func TestSetupCommand_Success(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake uv scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\nexit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uv"), []byte(script), 0o755))
	t.Setenv("PATH", dir)

	root := NewRootCommand()
	root.SetArgs([]string{"setup"})

	out := captureStdout(t, func() {
		require.NoError(t, root.Execute())
	})

	assert.Contains(t, out, "Setup complete")
	assert.Contains(t, out, "installed.\n\n", "a blank line must follow the success message")
	assert.True(t, strings.HasSuffix(out, setupUsageHint+"\n"),
		"output must end with the usage hint")
}

package setup

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain verifies that subprocess handling does not leak goroutines.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// writeFakeTool installs a fake executable with the given name into a
// fresh directory and points PATH exclusively at it. The script body
// controls the behavior of each invocation.
func writeFakeTool(t *testing.T, name, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755))
	t.Setenv("PATH", dir)
}

// writeFakeUV installs a fake uv executable; "$1" in the body is the uv
// subcommand (venv, pip, ...).
func writeFakeUV(t *testing.T, body string) {
	t.Helper()
	writeFakeTool(t, "uv", body)
}

// newTestRunner builds a Runner wired to in-memory output buffers.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	r := NewRunner(t.TempDir(), nil)
	r.Stdout = &stdout
	r.Stderr = &stderr
	return r, &stdout, &stderr
}

// TestRunner_Run_UVNotInstalled verifies the first setup step: when uv
// is not on PATH the runner fails immediately with a diagnostic naming
// both installation methods.
func TestRunner_Run_UVNotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir()) // empty directory, no uv

	r, _, _ := newTestRunner(t)
	err := r.Run()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitSetupError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "astral.sh/uv/install.sh")
	assert.Contains(t, cliErr.Message, "pip install uv")
}

// TestRunner_Run_VenvCreationFails verifies that a failing `uv venv`
// aborts the sequence with the venv diagnostic and that uv's own stderr
// output is streamed through.
func TestRunner_Run_VenvCreationFails(t *testing.T) {
	writeFakeUV(t, `if [ "$1" = "venv" ]; then
  echo "error: .venv is not writable" >&2
  exit 1
fi
exit 0`)

	r, _, stderr := newTestRunner(t)
	err := r.Run()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitSetupError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "venv could not be created")
	assert.Contains(t, stderr.String(), ".venv is not writable")
}

// TestRunner_Run_DependencyInstallFails verifies that a failing
// `uv pip install -e .` aborts the sequence after the venv step
// succeeded.
func TestRunner_Run_DependencyInstallFails(t *testing.T) {
	writeFakeUV(t, `if [ "$1" = "venv" ]; then
  echo "Creating virtual environment at: .venv"
  exit 0
fi
if [ "$1" = "pip" ]; then
  echo "error: no pyproject.toml found" >&2
  exit 1
fi
exit 0`)

	r, stdout, stderr := newTestRunner(t)
	err := r.Run()
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitSetupError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "failed to install project dependencies")

	// The venv step ran and streamed its output before the failure.
	assert.Contains(t, stdout.String(), "Creating virtual environment at: .venv")
	assert.Contains(t, stderr.String(), "no pyproject.toml found")
}

// TestRunner_Run_Success verifies the happy path: both steps run in
// order and their output is streamed through unmodified.
func TestRunner_Run_Success(t *testing.T) {
	writeFakeUV(t, `if [ "$1" = "venv" ]; then
  echo "Creating virtual environment at: .venv"
  exit 0
fi
if [ "$1" = "pip" ]; then
  echo "Installed 12 packages"
  exit 0
fi
exit 0`)

	r, stdout, _ := newTestRunner(t)
	require.NoError(t, r.Run())

	out := stdout.String()
	assert.Contains(t, out, "Creating virtual environment at: .venv")
	assert.Contains(t, out, "Installed 12 packages")
	assert.Less(t, strings.Index(out, "Creating"), strings.Index(out, "Installed"),
		"venv must run before pip install")
}

// TestRunner_Run_StopsAfterFirstFailure verifies that no further uv
// invocations happen once a step has failed.
func TestRunner_Run_StopsAfterFirstFailure(t *testing.T) {
	callLog := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv("UV_CALL_LOG", callLog)
	writeFakeUV(t, `echo "$1" >> "$UV_CALL_LOG"
exit 1`)

	r, _, _ := newTestRunner(t)
	require.Error(t, r.Run())

	data, err := os.ReadFile(callLog)
	require.NoError(t, err)
	assert.Equal(t, "venv\n", string(data), "only the venv step may run")
}

// TestLookupTool checks PATH lookups for present and absent executables.
func TestLookupTool(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh being present")
	}

	path, ok := LookupTool("sh")
	assert.True(t, ok)
	assert.NotEmpty(t, path)

	_, ok = LookupTool("weavekit-no-such-tool")
	assert.False(t, ok)
}

// TestToolVersion verifies version extraction from `<tool> --version`
// output.
func TestToolVersion(t *testing.T) {
	t.Run("name and version", func(t *testing.T) {
		writeFakeUV(t, `echo "uv 0.4.18"`)
		version, err := ToolVersion("uv")
		require.NoError(t, err)
		assert.Equal(t, "0.4.18", version)
	})

	t.Run("trailing comma stripped", func(t *testing.T) {
		writeFakeUV(t, `echo "uv 0.4.18,"`)
		version, err := ToolVersion("uv")
		require.NoError(t, err)
		assert.Equal(t, "0.4.18", version)
	})

	t.Run("python3 output", func(t *testing.T) {
		writeFakeTool(t, "python3", `echo "Python 3.12.3"`)
		version, err := ToolVersion("python3")
		require.NoError(t, err)
		assert.Equal(t, "3.12.3", version)
	})

	t.Run("docker output with version word and build suffix", func(t *testing.T) {
		writeFakeTool(t, "docker", `echo "Docker version 28.0.4, build abcdef0"`)
		version, err := ToolVersion("docker")
		require.NoError(t, err)
		assert.Equal(t, "28.0.4", version)
	})

	t.Run("bare version number", func(t *testing.T) {
		writeFakeUV(t, `echo "0.4.18"`)
		version, err := ToolVersion("uv")
		require.NoError(t, err)
		assert.Equal(t, "0.4.18", version)
	})

	t.Run("no version number in output", func(t *testing.T) {
		writeFakeUV(t, `echo "uv unknown"`)
		_, err := ToolVersion("uv")
		assert.Error(t, err)
	})

	t.Run("missing tool", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())
		_, err := ToolVersion("uv")
		assert.Error(t, err)
	})
}

package setup

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/harukaze-lab/weavekit/internal/model"
	"go.uber.org/zap"
)

const (
	// uvExecutable is the Python package manager binary that the whole
	// setup sequence depends on.
	uvExecutable = "uv"

	// InstallHintScript is the standalone installer invocation for uv,
	// suitable for machines without a Python environment.
	InstallHintScript = "curl -LsSf https://astral.sh/uv/install.sh | sh"

	// InstallHintPip installs uv into an existing Python environment.
	InstallHintPip = "pip install uv"
)

// missingUVMessage builds the diagnostic shown when the uv executable
// cannot be found on PATH. It names both supported installation methods
// so the user can pick whichever fits their machine.
func missingUVMessage() string {
	return fmt.Sprintf("uv is not installed or not on PATH\nInstall it with one of:\n  %s\n  %s",
		InstallHintScript, InstallHintPip)
}

// Runner executes the project setup sequence using the uv package manager.
//
// It is deliberately thin: each step shells out to uv and streams the
// subprocess output through unmodified, the way a shell script would.
// There are no retries and no timeouts; the first failing step aborts
// the sequence.
type Runner struct {
	// Dir is the working directory for all uv invocations.
	// Empty means the current directory.
	Dir string

	// Stdout and Stderr receive the subprocess output streams.
	// They default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	logger *zap.Logger
}

// NewRunner creates a Runner that executes uv in the given directory.
// A nil logger disables debug logging.
func NewRunner(dir string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Dir:    dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		logger: logger,
	}
}

// Run executes the full setup sequence in order:
//
//  1. Verify uv is available on PATH.
//  2. Create a virtual environment (uv venv).
//  3. Install the project in editable mode (uv pip install -e .).
//
// Each step runs at most once. A failing step stops the sequence, and
// the returned error carries ExitSetupError so the process exits with
// code 1.
func (r *Runner) Run() error {
	// Step 1: Check that uv is installed before touching anything else.
	uvPath, err := exec.LookPath(uvExecutable)
	if err != nil {
		return model.NewCLIError(model.ExitSetupError, missingUVMessage())
	}
	r.logger.Debug("found uv executable", zap.String("path", uvPath))

	// Step 2: Create the virtual environment in the project directory.
	// uv places it at .venv; the manifest is read by uv itself.
	if err := r.runUV("venv"); err != nil {
		return model.WrapCLIError(model.ExitSetupError, "venv could not be created", err)
	}

	// Step 3: Install the project and its dependencies in editable mode
	// so local source edits are picked up without reinstalling.
	if err := r.runUV("pip", "install", "-e", "."); err != nil {
		return model.WrapCLIError(model.ExitSetupError, "failed to install project dependencies", err)
	}

	return nil
}

// runUV invokes uv with the given arguments in the runner's working
// directory. The subprocess inherits the runner's output writers so
// uv's own progress and error output reaches the terminal unmodified.
func (r *Runner) runUV(args ...string) error {
	r.logger.Debug("running uv", zap.Strings("args", args))

	// #nosec G204: args are constructed internally, not from user input
	cmd := exec.Command(uvExecutable, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("uv %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// LookupTool reports whether the named executable is available on PATH.
// The resolved path is returned for display purposes.
func LookupTool(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}

// ToolVersion invokes the named executable with --version and returns
// the version number. The output format varies by tool ("uv 0.4.18",
// "Python 3.12.3", "Docker version 28.0.4, build abcdef0"), so the
// first field that starts with a digit is taken, with a trailing comma
// stripped for tools that append build metadata.
func ToolVersion(name string) (string, error) {
	// #nosec G204: tool names come from a fixed internal list
	out, err := exec.Command(name, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", name, err)
	}

	for _, field := range strings.Fields(string(out)) {
		field = strings.TrimSuffix(field, ",")
		if field != "" && field[0] >= '0' && field[0] <= '9' {
			return field, nil
		}
	}
	return "", fmt.Errorf("no version number in %s --version output: %q", name, strings.TrimSpace(string(out)))
}

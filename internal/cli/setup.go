// Package cli — setup.go implements the "weavekit setup" command.
//
// The setup command bootstraps the project's Python environment: it
// verifies the uv package manager is installed, creates a virtual
// environment in the current directory, and installs the project's
// dependencies in editable mode. The three steps run in strict order
// and the first failure aborts the sequence with exit code 1.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/setup"
)

// setupUsageHint tells the user how to run project scripts once the
// environment exists.
const setupUsageHint = "Run the demos with: uv run main.py"

// NewSetupCommand creates the "setup" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewSetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the Python environment with uv",
		Long: `Bootstrap the project's Python development environment.

The command runs three steps in order and stops at the first failure:
  1. Verify the uv package manager is available on PATH
  2. Create a virtual environment (uv venv)
  3. Install the project dependencies in editable mode (uv pip install -e .)

uv's own output streams through unmodified, so download progress and
error details appear exactly as uv prints them.

Examples:
  weavekit setup
  weavekit setup --verbose`,

		// The setup sequence takes no arguments; the dependency manifest
		// (pyproject.toml) is read by uv from the current directory.
		Args: cobra.NoArgs,

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup()
		},
	}

	return cmd
}

// runSetup executes the guarded three-step sequence and prints the
// success message when all steps pass. Failures come back as CLIErrors
// carrying exit code 1 and are handled by the root command.
func runSetup() error {
	runner := setup.NewRunner("", Logger())

	if err := runner.Run(); err != nil {
		return err
	}

	printSetupResult()
	return nil
}

// printSetupResult outputs the setup success message in text or JSON
// format based on the --json global flag.
func printSetupResult() {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"status": "ok",
			"steps":  []string{"uv", "venv", "install"},
			"hint":   setupUsageHint,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	// Success message, a blank line, then the usage hint.
	fmt.Println("Setup complete: virtual environment created and dependencies installed.")
	fmt.Println()
	fmt.Println(setupUsageHint)
}

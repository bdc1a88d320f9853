// Package cli implements the cobra-based CLI commands for weavekit.
//
// Each subcommand (setup, doctor, env, status, stack, schema, import,
// query) is defined in its own file within this package. This file defines
// the root command that serves as the parent for all subcommands and
// handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, the zap logger level drops to Debug and additional
	// information about operations is printed to stderr.
	verbose bool
)

// logger is the process-wide zap logger, built in the root command's
// PersistentPreRunE. Before that point it is a no-op logger so package
// init code can log safely.
var logger = zap.NewNop()

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text, global flags, and the logger lifecycle. Actual functionality
// is provided by subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		// Use is the one-line usage pattern shown in help output.
		Use:   "weavekit",
		Short: "Development kit for the Weaviate semantic-search project",
		Long: `weavekit is the development companion for a Weaviate-backed semantic-search
project. It bootstraps the Python environment with uv, validates cluster
credentials, runs a disposable local Weaviate stack in Docker, applies the
collection schema, imports demo data, and runs semantic queries.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// PersistentPreRunE builds the shared zap logger once flags are
		// parsed, so every subcommand sees the right level.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger()
		},

		// PersistentPostRun flushes buffered log entries before exit.
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			// Sync on stderr returns ENOTTY on some platforms; ignore it.
			_ = logger.Sync()
		},
	}

	// PersistentFlags are inherited by all subcommands. This is the cobra
	// mechanism for global flags — any flag defined here is automatically
	// available in every subcommand without re-declaration.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Register subcommands. Each subcommand is defined in its own file
	// (setup.go, doctor.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewSetupCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewEnvCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewStackCommand())
	rootCmd.AddCommand(NewSchemaCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewQueryCommand())

	return rootCmd
}

// initLogger replaces the package logger with a real one. The level is
// Warn by default so command output stays clean; --verbose drops it to
// Debug. Logs go to stderr, keeping stdout reserved for command output.
func initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return model.WrapCLIError(model.ExitSetupError, "failed to initialize logger", err)
	}
	logger = l
	return nil
}

// Logger returns the shared zap logger for packages that take one as a
// dependency.
func Logger() *zap.Logger {
	return logger
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		// Check if the error is a CLIError with a specific exit code.
		// errors.As would also work here, but a type assertion is simpler
		// for this single-level check.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error — exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitSetupError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// json.MarshalIndent produces human-readable JSON with indentation.
		// We write to stderr for errors, even in JSON mode, because stdout
		// is reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		// Text format: "Error: <message>" on stderr.
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
// This is used throughout the CLI for debug/trace output that helps
// users understand what operations are being performed.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

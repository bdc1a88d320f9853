// Package cli — doctor.go implements the "weavekit doctor" command.
//
// The doctor command checks the host for the tools the other commands
// depend on: uv (required by setup), python3 (recommended for running
// the demos), and docker (needed only by the stack commands). Each tool
// gets one output line with its status and detected version.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/setup"
)

// minUVVersion is the oldest uv release the setup sequence is known to
// work with ("uv pip install -e ." behavior stabilized in 0.4).
const minUVVersion = "0.4.0"

// toolCheck describes one host tool the doctor command probes.
type toolCheck struct {
	// Name is the executable looked up on PATH.
	Name string

	// Required marks tools whose absence fails the whole command.
	Required bool

	// MinVersion, when non-empty, is the semver floor checked against
	// the detected version.
	MinVersion string

	// Note explains what the tool is needed for when it is missing.
	Note string
}

// toolResult is the outcome of probing one tool.
type toolResult struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Found    bool   `json:"found"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Note     string `json:"note,omitempty"`

	// Outdated is set when the detected version is below the floor.
	Outdated bool `json:"outdated,omitempty"`
}

// doctorChecks returns the tools to probe, in display order.
func doctorChecks() []toolCheck {
	return []toolCheck{
		{
			Name:       "uv",
			Required:   true,
			MinVersion: minUVVersion,
			Note:       "required by setup; install with: " + setup.InstallHintScript + " (or: " + setup.InstallHintPip + ")",
		},
		{
			Name: "python3",
			Note: "recommended; uv can manage interpreters itself",
		},
		{
			Name: "docker",
			Note: "optional; needed only for the stack commands",
		},
	}
}

// NewDoctorCommand creates the "doctor" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host tools needed by the other commands",
		Long: `Check the host machine for the external tools weavekit depends on.

One line is printed per tool with its status (OK/MISSING) and detected
version. The command exits non-zero only when a required tool is missing.

Examples:
  weavekit doctor
  weavekit doctor --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}

	return cmd
}

// runDoctor probes every tool, prints the report, and fails when a
// required tool is absent.
func runDoctor() error {
	var results []toolResult
	missingRequired := false

	for _, check := range doctorChecks() {
		result := probeTool(check)
		if check.Required && !result.Found {
			missingRequired = true
		}
		results = append(results, result)
	}

	printDoctorResult(results)

	if missingRequired {
		return model.NewCLIError(model.ExitSetupError, "a required tool is missing")
	}
	return nil
}

// probeTool looks the tool up on PATH and, when present, detects its
// version and compares it against the configured floor.
func probeTool(check toolCheck) toolResult {
	result := toolResult{Name: check.Name, Required: check.Required}

	path, found := setup.LookupTool(check.Name)
	if !found {
		result.Note = check.Note
		return result
	}
	result.Found = true
	result.Path = path

	version, err := setup.ToolVersion(check.Name)
	if err != nil {
		// The tool exists but its version output is unparseable; report
		// it as found and keep going.
		Logger().Debug("version detection failed",
			zap.String("tool", check.Name), zap.Error(err))
		return result
	}
	result.Version = version

	if check.MinVersion != "" {
		result.Outdated, result.Note = floorNote(version, check.MinVersion)
	}

	return result
}

// floorNote compares the detected version against the floor and returns
// the outdated flag plus the note to display. A version that does not
// parse as semver cannot be checked, so the failure is surfaced in the
// note rather than silently skipping the floor.
func floorNote(detected, minimum string) (bool, string) {
	ok, err := versionAtLeast(detected, minimum)
	if err != nil {
		return false, fmt.Sprintf("cannot check version %q against minimum %s", detected, minimum)
	}
	if !ok {
		return true, fmt.Sprintf("version %s is older than the supported minimum %s", detected, minimum)
	}
	return false, ""
}

// versionAtLeast reports whether the detected version satisfies the
// minimum. Both strings must parse as semantic versions.
func versionAtLeast(detected, minimum string) (bool, error) {
	dv, err := semver.NewVersion(detected)
	if err != nil {
		return false, fmt.Errorf("invalid detected version %q: %w", detected, err)
	}
	mv, err := semver.NewVersion(minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	return !dv.LessThan(mv), nil
}

// printDoctorResult outputs the tool report in text or JSON format.
func printDoctorResult(results []toolResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"tools": results}, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, r := range results {
		status := "MISSING"
		detail := r.Note
		if r.Found {
			status = "OK"
			detail = r.Version
			if r.Path != "" {
				detail = fmt.Sprintf("%s (%s)", r.Version, r.Path)
			}
			if r.Outdated {
				status = "OUTDATED"
				detail = r.Note
			} else if r.Note != "" {
				detail += "; " + r.Note
			}
		}
		fmt.Printf("%-10s %-9s %s\n", r.Name, status, detail)
	}
}

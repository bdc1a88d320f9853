// Package cli — env.go implements the "weavekit env" command.
//
// The env command shows the resolved cluster credentials (process
// environment merged over an optional .env file) with secrets masked,
// and reports every missing required variable in one pass so the user
// can fix their .env file without iterating.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/config"
	"github.com/harukaze-lab/weavekit/internal/model"
)

// NewEnvCommand creates the "env" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewEnvCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show the resolved cluster credentials",
		Long: `Show the Weaviate Cloud credentials weavekit resolved from the process
environment and the optional .env file in the working directory.

API keys are masked to their last four characters. Missing required
variables are listed together and the command exits with code 2.

Examples:
  weavekit env
  weavekit env --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv()
		},
	}

	return cmd
}

// runEnv loads the configuration, prints every variable (masked where
// secret), and fails with ExitConfigError when required variables are
// unset.
func runEnv() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	printEnvResult(cfg)

	if missing := cfg.Missing(); len(missing) > 0 {
		return model.NewCLIError(
			model.ExitConfigError,
			"missing required environment variables: "+strings.Join(missing, ", "),
		)
	}
	return nil
}

// printEnvResult outputs the resolved configuration in text or JSON
// format based on the --json global flag.
func printEnvResult(cfg *config.Config) {
	entries := cfg.Entries()

	if IsJSONOutput() {
		type entryJSON struct {
			Name  string `json:"name"`
			Value string `json:"value"`
			Set   bool   `json:"set"`
		}

		result := struct {
			Variables []entryJSON `json:"variables"`
			Missing   []string    `json:"missing"`
		}{
			Variables: make([]entryJSON, 0, len(entries)),
			// Empty slice instead of nil so JSON shows [] rather than null.
			Missing: append([]string{}, cfg.Missing()...),
		}

		for _, e := range entries {
			value := e.Value
			if e.Secret {
				value = config.Mask(value)
			}
			result.Variables = append(result.Variables, entryJSON{
				Name:  e.Name,
				Value: value,
				Set:   e.Value != "",
			})
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, e := range entries {
		value := e.Value
		if e.Secret {
			value = config.Mask(value)
		}
		if value == "" {
			value = "(unset)"
		}
		fmt.Printf("%-20s %s\n", e.Name, value)
	}
}

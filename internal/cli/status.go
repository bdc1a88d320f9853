// Package cli — status.go implements the "weavekit status" command.
//
// The status command probes the readiness endpoint of all three cluster
// hosts (cluster URL, REST endpoint, gRPC endpoint) concurrently, then
// fetches /v1/meta from the cluster URL to report the server version and
// the enabled modules. With --verbose the modules are listed grouped by
// family (text2vec, generative, qna, ...).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/harukaze-lab/weavekit/internal/config"
	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// minServerVersion is the oldest Weaviate release the demo queries are
// tested against (nearText + generative single prompts).
const minServerVersion = "1.24.0"

// endpointProbe pairs a display label with the base URL to probe.
type endpointProbe struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check cluster connectivity and server info",
		Long: `Check that the configured Weaviate Cloud cluster is reachable.

The readiness probe of the cluster URL, REST endpoint, and gRPC endpoint
is checked concurrently, then the server version and enabled modules are
fetched from /v1/meta. Use --verbose to list modules grouped by family.

Examples:
  weavekit status
  weavekit status --verbose
  weavekit status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}

	return cmd
}

// runStatus probes all endpoints, fetches server metadata, prints the
// report, and fails with ExitWeaviateError when any endpoint is down.
func runStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "configuration is incomplete", err)
	}

	probes := []endpointProbe{
		{Label: "cluster", URL: cfg.ClusterBaseURL()},
		{Label: "rest", URL: cfg.RESTBaseURL()},
		{Label: "grpc", URL: cfg.GRPCBaseURL()},
	}

	// Probe concurrently; every goroutine records its own result so one
	// failing endpoint does not hide the state of the others.
	g, probeCtx := errgroup.WithContext(ctx)
	for i := range probes {
		g.Go(func() error {
			client := weaviate.NewClient(probes[i].URL, weaviate.WithAPIKey(cfg.WeaviateAPIKey))
			defer client.Close()

			if err := client.Ready(probeCtx); err != nil {
				probes[i].Error = err.Error()
				return nil
			}
			probes[i].Ready = true
			return nil
		})
	}
	// The goroutines never return errors, so Wait only synchronizes.
	_ = g.Wait()

	allReady := true
	for _, p := range probes {
		if !p.Ready {
			allReady = false
		}
	}

	// Server metadata comes from the cluster URL; skip it when the
	// cluster itself is down.
	var meta *weaviate.Meta
	if probes[0].Ready {
		client := weaviate.NewClient(cfg.ClusterBaseURL(), weaviate.WithAPIKey(cfg.WeaviateAPIKey))
		defer client.Close()

		meta, err = client.Meta(ctx)
		if err != nil {
			return err
		}
	}

	printStatusResult(probes, meta)

	if !allReady {
		return model.NewCLIError(model.ExitWeaviateError, "one or more cluster endpoints are unreachable")
	}
	return nil
}

// serverVersionWarning returns a warning line when the server is older
// than the minimum the demos support, or "" when the version is fine or
// cannot be compared.
func serverVersionWarning(version string) string {
	sv, err := semver.NewVersion(version)
	if err != nil {
		return ""
	}
	mv := semver.MustParse(minServerVersion)
	if sv.LessThan(mv) {
		return fmt.Sprintf("Warning: server version %s is older than the supported minimum %s", version, minServerVersion)
	}
	return ""
}

// printStatusResult outputs the connectivity report in text or JSON
// format based on the --json global flag.
func printStatusResult(probes []endpointProbe, meta *weaviate.Meta) {
	if IsJSONOutput() {
		result := struct {
			Endpoints []endpointProbe `json:"endpoints"`
			Server    *struct {
				Version string   `json:"version"`
				Modules []string `json:"modules"`
			} `json:"server,omitempty"`
		}{Endpoints: probes}

		if meta != nil {
			result.Server = &struct {
				Version string   `json:"version"`
				Modules []string `json:"modules"`
			}{
				Version: meta.Version,
				Modules: weaviate.ModuleNames(meta.Modules),
			}
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, p := range probes {
		status := "UNREACHABLE"
		if p.Ready {
			status = "READY"
		}
		fmt.Printf("%-8s %-12s %s\n", p.Label, status, p.URL)
	}

	if meta == nil {
		return
	}

	names := weaviate.ModuleNames(meta.Modules)
	fmt.Println()
	fmt.Printf("Server version: %s\n", meta.Version)
	fmt.Printf("Modules:        %d enabled\n", len(names))

	if warning := serverVersionWarning(meta.Version); warning != "" {
		fmt.Println(warning)
	}

	if verbose && len(names) > 0 {
		groups := weaviate.GroupModules(names)
		fmt.Println()
		for _, group := range weaviate.GroupNames(groups) {
			fmt.Printf("  %-12s %s\n", group, strings.Join(groups[group], ", "))
		}
	}
}

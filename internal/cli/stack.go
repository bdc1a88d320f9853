// Package cli — stack.go implements the "weavekit stack" command group.
//
// The stack commands manage a disposable local Weaviate container for
// offline development:
//
//	stack up      create (or restart) the stack and wait until ready
//	stack down    stop and remove the stack container
//	stack status  show the stack's state and ports
//
// The stack is reconstructed entirely from Docker container labels;
// there is no state file on disk.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/docker"
	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/port"
	"github.com/harukaze-lab/weavekit/internal/project"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

const (
	// readyTimeout bounds how long "stack up" waits for the container's
	// readiness probe after start. Cold starts include module init, so
	// this is generous.
	readyTimeout = 60 * time.Second

	// readyPollInterval is the delay between readiness probe attempts.
	readyPollInterval = time.Second
)

// NewStackCommand creates the "stack" parent command with its up, down,
// and status subcommands. It is called from NewRootCommand.
func NewStackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Manage a local Weaviate container for offline development",
		Long: `Manage a disposable local Weaviate instance running in Docker.

The stack runs the official Weaviate image with anonymous access and the
text2vec-openai/generative-openai modules enabled, published on loopback
only. Objects persist in a named Docker volume across restarts.

The stack name, image, and version come from weavekit.jsonc.`,
	}

	cmd.AddCommand(newStackUpCommand())
	cmd.AddCommand(newStackDownCommand())
	cmd.AddCommand(newStackStatusCommand())

	return cmd
}

// newStackUpCommand creates the "stack up" subcommand.
func newStackUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or restart the local stack and wait until ready",
		Long: `Create and start the local Weaviate stack.

If the stack container already exists it is restarted instead of
recreated, preserving its port assignments and data volume. A new stack
gets a free HTTP/gRPC host port pair (8080/50051 when available).

Examples:
  weavekit stack up
  weavekit stack up --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStackUp(cmd.Context())
		},
	}
}

// newStackDownCommand creates the "stack down" subcommand.
func newStackDownCommand() *cobra.Command {
	var removeVolumes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the local stack container",
		Long: `Stop and remove the local Weaviate stack container.

The data volume is preserved so a later "stack up" finds the indexed
objects again. Pass --volumes to delete the volume as well.

Examples:
  weavekit stack down
  weavekit stack down --volumes`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStackDown(cmd.Context(), removeVolumes)
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "volumes", false, "Also remove the data volume")

	return cmd
}

// newStackStatusCommand creates the "stack status" subcommand.
func newStackStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the local stack's state and ports",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStackStatus(cmd.Context())
		},
	}
}

// runStackUp brings the configured stack up: it restarts an existing
// container or allocates ports and creates a new one, then waits for
// the readiness probe.
func runStackUp(ctx context.Context) error {
	proj, projPath, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}
	if projPath != "" {
		VerboseLog("Project file: %s", projPath)
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	// Step 1: Look for an existing container with this stack name.
	// A found stack is reused, keeping its ports and volume stable.
	stacks, err := docker.ListStacks(ctx, cli)
	if err != nil {
		return err
	}

	var stack *model.Stack
	for i := range stacks {
		if stacks[i].Name == proj.Stack.Name {
			stack = &stacks[i]
			break
		}
	}

	if stack != nil {
		if stack.State != model.StateRunning {
			VerboseLog("Restarting existing container %s", stack.ContainerName)
			if err := docker.StartStack(ctx, cli, stack.ContainerID); err != nil {
				return err
			}
			stack.State = model.StateRunning
		}
	} else {
		// Step 2: Allocate a host port pair. Ports held by other stacks
		// (including stopped ones) are excluded via their labels.
		scanner := port.NewScanner()
		allocator := port.NewAllocator(scanner)

		var existing []model.PortMapping
		for _, s := range stacks {
			existing = append(existing, s.Ports...)
		}
		allocator.SetExistingMappings(existing)

		mappings, err := allocator.AllocatePair(len(stacks))
		if err != nil {
			return model.WrapCLIError(model.ExitPortAllocationFailed, "port allocation failed", err)
		}
		for _, m := range mappings {
			VerboseLog("Port allocated: %s", m.String())
		}

		// Step 3: Build the stack and create its container.
		stack = &model.Stack{
			Name:       proj.Stack.Name,
			Image:      proj.Stack.Image,
			Version:    proj.Stack.Version,
			State:      model.StateRunning,
			Ports:      mappings,
			DataVolume: docker.VolumeName(proj.Stack.Name),
			CreatedAt:  time.Now().UTC(),
		}
		if err := stack.Validate(); err != nil {
			return model.WrapCLIError(model.ExitConfigError, "invalid stack configuration", err)
		}

		// Pull progress goes to stderr so stdout stays parseable; JSON
		// mode discards it entirely.
		var pullProgress io.Writer = os.Stderr
		if IsJSONOutput() {
			pullProgress = nil
		}

		VerboseLog("Creating container %s (%s:%s)", docker.ContainerName(stack.Name), stack.Image, stack.Version)
		containerID, err := docker.CreateStack(ctx, cli, stack, pullProgress)
		if err != nil {
			return err
		}
		stack.ContainerID = containerID
		stack.ContainerName = docker.ContainerName(stack.Name)
	}

	// Step 4: Wait for the readiness probe before reporting success.
	baseURL := fmt.Sprintf("http://localhost:%d", stack.HostPortFor(model.ServiceHTTP))
	VerboseLog("Waiting for %s to become ready...", baseURL)
	if err := waitForReady(ctx, baseURL, readyTimeout); err != nil {
		return err
	}

	printStackUpResult(stack)
	return nil
}

// waitForReady polls the readiness endpoint until it answers or the
// timeout elapses.
func waitForReady(ctx context.Context, baseURL string, timeout time.Duration) error {
	client := weaviate.NewClient(baseURL, weaviate.WithTimeout(2*time.Second))
	defer client.Close()

	deadline := time.Now().Add(timeout)
	for {
		if err := client.Ready(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return model.NewCLIError(
				model.ExitWeaviateError,
				fmt.Sprintf("stack did not become ready within %s", timeout),
			)
		}

		select {
		case <-ctx.Done():
			return model.WrapCLIError(model.ExitWeaviateError, "readiness wait canceled", ctx.Err())
		case <-time.After(readyPollInterval):
		}
	}
}

// runStackDown stops and removes the stack container, optionally
// deleting the data volume.
func runStackDown(ctx context.Context, removeVolumes bool) error {
	proj, _, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	stack, err := docker.FindStack(ctx, cli, proj.Stack.Name)
	if err != nil {
		return err
	}
	if stack == nil {
		return model.NewCLIError(
			model.ExitStackNotFound,
			fmt.Sprintf("stack %q not found", proj.Stack.Name),
		)
	}

	if stack.State == model.StateRunning {
		VerboseLog("Stopping container %s", stack.ContainerName)
		if err := docker.StopStack(ctx, cli, stack.ContainerID); err != nil {
			return err
		}
	}

	VerboseLog("Removing container %s", stack.ContainerName)
	if err := docker.RemoveStack(ctx, cli, stack.ContainerID, false); err != nil {
		return err
	}

	if removeVolumes {
		VerboseLog("Removing volume %s", stack.DataVolume)
		if err := docker.RemoveVolume(ctx, cli, stack.DataVolume); err != nil {
			return err
		}
	}

	printStackDownResult(stack, removeVolumes)
	return nil
}

// runStackStatus prints the current state of the configured stack.
func runStackStatus(ctx context.Context) error {
	proj, _, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	stack, err := docker.FindStack(ctx, cli, proj.Stack.Name)
	if err != nil {
		return err
	}
	if stack == nil {
		return model.NewCLIError(
			model.ExitStackNotFound,
			fmt.Sprintf("stack %q not found (run \"weavekit stack up\" to create it)", proj.Stack.Name),
		)
	}

	printStackStatusResult(stack)
	return nil
}

// printStackUpResult outputs the up result in text or JSON format.
func printStackUpResult(stack *model.Stack) {
	if IsJSONOutput() {
		printStackJSON(stack, "running")
		return
	}

	fmt.Printf("Stack %q is running (%s:%s)\n", stack.Name, stack.Image, stack.Version)
	fmt.Printf("  HTTP:   http://localhost:%d\n", stack.HostPortFor(model.ServiceHTTP))
	fmt.Printf("  gRPC:   localhost:%d\n", stack.HostPortFor(model.ServiceGRPC))
	fmt.Printf("  Volume: %s\n", stack.DataVolume)
}

// printStackDownResult outputs the down result in text or JSON format.
func printStackDownResult(stack *model.Stack, removedVolumes bool) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"name":          stack.Name,
			"action":        "removed",
			"volumeRemoved": removedVolumes,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if removedVolumes {
		fmt.Printf("Removed stack %q and its data volume\n", stack.Name)
	} else {
		fmt.Printf("Removed stack %q (data volume %s preserved)\n", stack.Name, stack.DataVolume)
	}
}

// printStackStatusResult outputs the status result in text or JSON format.
func printStackStatusResult(stack *model.Stack) {
	if IsJSONOutput() {
		printStackJSON(stack, stack.State.String())
		return
	}

	fmt.Printf("Name:    %s\n", stack.Name)
	fmt.Printf("State:   %s\n", stack.State)
	fmt.Printf("Image:   %s:%s\n", stack.Image, stack.Version)
	for _, m := range stack.Ports {
		fmt.Printf("Port:    %s\n", m.String())
	}
	fmt.Printf("Volume:  %s\n", stack.DataVolume)
	fmt.Printf("Created: %s\n", stack.CreatedAt.Format(time.RFC3339))
}

// printStackJSON marshals the stack for machine consumption. The Stack
// type carries its own JSON tags, so the shape matches the label schema.
func printStackJSON(stack *model.Stack, state string) {
	stack.State = model.StackState(state)
	data, _ := json.MarshalIndent(stack, "", "  ")
	fmt.Println(string(data))
}

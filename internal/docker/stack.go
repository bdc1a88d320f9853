package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/go-connections/nat"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// weaviateDataPath is the persistence directory inside the container.
// It must match the PERSISTENCE_DATA_PATH environment variable in stackEnv.
const weaviateDataPath = "/var/lib/weaviate"

// resourceNamePrefix namespaces the containers and volumes weavekit creates.
const resourceNamePrefix = "weavekit-"

// ContainerName returns the Docker container name for a stack.
// For example, ContainerName("demo") returns "weavekit-demo".
func ContainerName(stackName string) string {
	return resourceNamePrefix + stackName
}

// VolumeName returns the data volume name for a stack.
// For example, VolumeName("demo") returns "weavekit-demo-data".
func VolumeName(stackName string) string {
	return resourceNamePrefix + stackName + "-data"
}

// stackEnv returns the container environment for a local development stack.
// Anonymous access is enabled because the stack only listens on loopback.
// The OpenAI API key is not baked into the container: clients send it per
// request via the X-OpenAI-Api-Key header.
func stackEnv() []string {
	return []string{
		"AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED=true",
		"PERSISTENCE_DATA_PATH=" + weaviateDataPath,
		"DEFAULT_VECTORIZER_MODULE=text2vec-openai",
		"ENABLE_MODULES=text2vec-openai,generative-openai",
		"CLUSTER_HOSTNAME=node1",
	}
}

// ListStacks returns all weavekit-managed stacks known to the Docker daemon,
// including stopped ones. Stacks are reconstructed entirely from container
// labels; Docker itself provides the runtime fields (ID, name, state).
func ListStacks(ctx context.Context, cli *Client) ([]model.Stack, error) {
	filterArgs := filters.NewArgs()
	for key, value := range FilterLabels() {
		filterArgs.Add("label", key+"="+value)
	}

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		// Include stopped containers; a stopped stack is still a stack.
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerError,
			"failed to list Docker containers",
			err,
		)
	}

	stacks := make([]model.Stack, 0, len(containers))
	for _, c := range containers {
		stack, err := stackFromContainer(c)
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitDockerError,
				fmt.Sprintf("container %s has invalid weavekit labels", c.ID),
				err,
			)
		}
		stacks = append(stacks, *stack)
	}

	return stacks, nil
}

// FindStack returns the stack with the given name, or nil when no
// weavekit-managed container carries that name.
func FindStack(ctx context.Context, cli *Client, name string) (*model.Stack, error) {
	stacks, err := ListStacks(ctx, cli)
	if err != nil {
		return nil, err
	}
	for i := range stacks {
		if stacks[i].Name == name {
			return &stacks[i], nil
		}
	}
	return nil, nil
}

// stackFromContainer reconstructs a Stack from a Docker API container
// summary: metadata comes from the labels, runtime state from the summary
// itself.
func stackFromContainer(c container.Summary) (*model.Stack, error) {
	stack, err := ParseLabels(c.Labels)
	if err != nil {
		return nil, err
	}

	stack.ContainerID = c.ID
	if len(c.Names) > 0 {
		// The Docker API prefixes container names with a slash.
		stack.ContainerName = strings.TrimPrefix(c.Names[0], "/")
	}

	stack.State = model.StateStopped
	if c.State == "running" {
		stack.State = model.StateRunning
	}

	return stack, nil
}

// CreateStack pulls the stack's image if needed, then creates and starts a
// Weaviate container with the stack's port bindings, data volume, and
// identifying labels. It returns the new container's ID.
//
// pullProgress receives Docker's layer-by-layer pull output; pass nil to
// discard it (e.g., in JSON output mode).
func CreateStack(ctx context.Context, cli *Client, stack *model.Stack, pullProgress io.Writer) (string, error) {
	ref := stack.Image + ":" + stack.Version

	if err := ensureImage(ctx, cli, ref, pullProgress); err != nil {
		return "", err
	}

	exposedPorts, portBindings, err := natBindings(stack.Ports)
	if err != nil {
		return "", model.WrapCLIError(model.ExitDockerError, "invalid port mappings", err)
	}

	cfg := &container.Config{
		Image:        ref,
		Env:          stackEnv(),
		Labels:       BuildLabels(stack),
		ExposedPorts: exposedPorts,
	}
	hostCfg := &container.HostConfig{
		PortBindings: portBindings,
		// A named volume keeps indexed objects across container removal.
		// The daemon creates the volume on first use.
		Mounts: []mount.Mount{{
			Type:   mount.TypeVolume,
			Source: stack.DataVolume,
			Target: weaviateDataPath,
		}},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	resp, err := cli.Inner().ContainerCreate(ctx, cfg, hostCfg, nil, nil, ContainerName(stack.Name))
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to create container %s", ContainerName(stack.Name)),
			err,
		)
	}

	if err := StartStack(ctx, cli, resp.ID); err != nil {
		return "", err
	}

	return resp.ID, nil
}

// ensureImage makes sure the image reference exists locally, pulling it
// when missing. Present images are never re-pulled: the version tag comes
// from the project config and is treated as immutable.
func ensureImage(ctx context.Context, cli *Client, ref string, progress io.Writer) error {
	_, err := cli.Inner().ImageInspect(ctx, ref)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to inspect image %s", ref),
			err,
		)
	}

	reader, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to pull image %s", ref),
			err,
		)
	}
	defer reader.Close()

	// The pull completes only once the progress stream is fully drained.
	if progress == nil {
		_, err = io.Copy(io.Discard, reader)
	} else {
		err = jsonmessage.DisplayJSONMessagesStream(reader, progress, 0, false, nil)
	}
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to pull image %s", ref),
			err,
		)
	}

	return nil
}

// natBindings converts the stack's port mappings into the Docker SDK's
// exposed-port set and host binding map. Bindings are restricted to the
// loopback interface: a stack with anonymous auth must not be reachable
// from the network.
func natBindings(mappings []model.PortMapping) (nat.PortSet, nat.PortMap, error) {
	exposed := make(nat.PortSet, len(mappings))
	bindings := make(nat.PortMap, len(mappings))

	for _, m := range mappings {
		port, err := nat.NewPort("tcp", strconv.Itoa(m.ContainerPort))
		if err != nil {
			return nil, nil, fmt.Errorf("container port %d: %w", m.ContainerPort, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{
			HostIP:   "127.0.0.1",
			HostPort: strconv.Itoa(m.HostPort),
		}}
	}

	return exposed, bindings, nil
}

// StartStack starts a stopped stack container.
func StartStack(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to start container %s", containerID),
			err,
		)
	}
	return nil
}

// StopStack stops a running stack container using the daemon's default
// grace period.
func StopStack(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to stop container %s", containerID),
			err,
		)
	}
	return nil
}

// RemoveStack removes a stack container. The container must be stopped
// first unless force is set.
func RemoveStack(ctx context.Context, cli *Client, containerID string, force bool) error {
	if err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force}); err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to remove container %s", containerID),
			err,
		)
	}
	return nil
}

// RemoveVolume deletes a stack's data volume and everything indexed in it.
func RemoveVolume(ctx context.Context, cli *Client, name string) error {
	if err := cli.Inner().VolumeRemove(ctx, name, false); err != nil {
		return model.WrapCLIError(
			model.ExitDockerError,
			fmt.Sprintf("failed to remove volume %s", name),
			err,
		)
	}
	return nil
}

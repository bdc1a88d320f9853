package docker

import (
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// stackLabels is a helper that builds a complete, valid weavekit label set
// for a stack named "demo". Tests mutate the returned map as needed.
func stackLabels() map[string]string {
	return map[string]string{
		LabelManagedBy:       ManagedByValue,
		LabelName:            "demo",
		LabelImage:           "semitechnologies/weaviate",
		LabelVersion:         "1.30.5",
		LabelDataVolume:      "weavekit-demo-data",
		LabelCreatedAt:       "2026-03-15T10:30:00Z",
		"weavekit.port.http": "18080",
		"weavekit.port.grpc": "60051",
	}
}

// TestContainerName verifies the container naming convention.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "weavekit-demo", ContainerName("demo"))
	assert.Equal(t, "weavekit-my-stack", ContainerName("my-stack"))
}

// TestVolumeName verifies the data volume naming convention.
func TestVolumeName(t *testing.T) {
	assert.Equal(t, "weavekit-demo-data", VolumeName("demo"))
	assert.Equal(t, "weavekit-my-stack-data", VolumeName("my-stack"))
}

// TestStackFromContainer_Running verifies that a container summary in the
// "running" state is converted into a Stack with runtime fields populated
// and StateRunning set.
func TestStackFromContainer_Running(t *testing.T) {
	summary := container.Summary{
		ID:     "abc123def456",
		Names:  []string{"/weavekit-demo"},
		State:  "running",
		Labels: stackLabels(),
	}

	stack, err := stackFromContainer(summary)
	require.NoError(t, err)

	assert.Equal(t, "demo", stack.Name)
	assert.Equal(t, "abc123def456", stack.ContainerID)
	assert.Equal(t, "weavekit-demo", stack.ContainerName,
		"leading slash from the Docker API should be stripped")
	assert.Equal(t, model.StateRunning, stack.State)
	assert.Equal(t, 18080, stack.HostPortFor(model.ServiceHTTP))
	assert.Equal(t, 60051, stack.HostPortFor(model.ServiceGRPC))
}

// TestStackFromContainer_Stopped verifies that any non-running container
// state (exited, created, paused) maps to StateStopped.
func TestStackFromContainer_Stopped(t *testing.T) {
	for _, state := range []string{"exited", "created", "paused"} {
		t.Run(state, func(t *testing.T) {
			summary := container.Summary{
				ID:     "abc123",
				Names:  []string{"/weavekit-demo"},
				State:  state,
				Labels: stackLabels(),
			}

			stack, err := stackFromContainer(summary)
			require.NoError(t, err)
			assert.Equal(t, model.StateStopped, stack.State)
		})
	}
}

// TestStackFromContainer_InvalidLabels verifies that a container with
// incomplete weavekit labels is rejected rather than silently returned
// with zero fields.
func TestStackFromContainer_InvalidLabels(t *testing.T) {
	summary := container.Summary{
		ID:    "abc123",
		Names: []string{"/weavekit-broken"},
		State: "running",
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
			LabelName:      "broken",
		},
	}

	_, err := stackFromContainer(summary)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required labels")
}

// TestNatBindings verifies the conversion from port mappings to the Docker
// SDK's exposed-port set and host binding map.
func TestNatBindings(t *testing.T) {
	mappings := []model.PortMapping{
		{Service: model.ServiceHTTP, ContainerPort: 8080, HostPort: 18080},
		{Service: model.ServiceGRPC, ContainerPort: 50051, HostPort: 60051},
	}

	exposed, bindings, err := natBindings(mappings)
	require.NoError(t, err)

	require.Len(t, exposed, 2)
	assert.Contains(t, exposed, nat.Port("8080/tcp"))
	assert.Contains(t, exposed, nat.Port("50051/tcp"))

	httpBindings := bindings[nat.Port("8080/tcp")]
	require.Len(t, httpBindings, 1)
	assert.Equal(t, "127.0.0.1", httpBindings[0].HostIP,
		"stack ports must bind to loopback only")
	assert.Equal(t, "18080", httpBindings[0].HostPort)

	grpcBindings := bindings[nat.Port("50051/tcp")]
	require.Len(t, grpcBindings, 1)
	assert.Equal(t, "60051", grpcBindings[0].HostPort)
}

// TestNatBindings_Empty verifies that an empty mapping slice produces
// empty (but usable) set and map values.
func TestNatBindings_Empty(t *testing.T) {
	exposed, bindings, err := natBindings(nil)
	require.NoError(t, err)
	assert.Empty(t, exposed)
	assert.Empty(t, bindings)
}

// TestStackEnv verifies the fixed container environment: anonymous auth
// for loopback-only access and the OpenAI modules the demo schema needs.
func TestStackEnv(t *testing.T) {
	env := stackEnv()

	assert.Contains(t, env, "AUTHENTICATION_ANONYMOUS_ACCESS_ENABLED=true")
	assert.Contains(t, env, "PERSISTENCE_DATA_PATH=/var/lib/weaviate")
	assert.Contains(t, env, "ENABLE_MODULES=text2vec-openai,generative-openai")
}

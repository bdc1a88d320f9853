package docker

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// Label key constants define the Docker label keys used to persist stack
// metadata on containers. These labels serve as the sole persistence
// mechanism; there is no external state file.
//
// All keys share the "weavekit." prefix to namespace them and avoid
// collisions with labels set by other tools (Docker Compose, VS Code, etc.).
const (
	// LabelPrefix is the common prefix for all weavekit labels.
	// Using a consistent prefix enables efficient label-based filtering
	// when listing containers via the Docker API.
	LabelPrefix = "weavekit."

	// LabelManagedBy identifies containers managed by weavekit.
	// This is the primary label used for filtering and discovery.
	// Key: "weavekit.managed-by", Value: always "weavekit".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the stack's unique identifier.
	// Key: "weavekit.name", Value: stack name (e.g., "demo").
	LabelName = LabelPrefix + "name"

	// LabelImage stores the Weaviate image repository the stack runs,
	// without the tag.
	// Key: "weavekit.image", Value: e.g., "semitechnologies/weaviate".
	LabelImage = LabelPrefix + "image"

	// LabelVersion stores the Weaviate image tag the stack runs.
	// Key: "weavekit.version", Value: e.g., "1.30.5".
	LabelVersion = LabelPrefix + "version"

	// LabelDataVolume stores the name of the named volume mounted at the
	// Weaviate persistence path.
	// Key: "weavekit.data-volume", Value: e.g., "weavekit-demo-data".
	LabelDataVolume = LabelPrefix + "data-volume"

	// LabelCreatedAt stores the stack creation timestamp in RFC3339 format.
	// Key: "weavekit.created-at", Value: e.g., "2026-03-15T10:30:00Z".
	LabelCreatedAt = LabelPrefix + "created-at"

	// LabelPortPrefix is the prefix for per-service port mapping labels.
	// Key format: "weavekit.port.<service>", Value: host port.
	// Example: "weavekit.port.http" = "18080" means the HTTP API is
	// published on host port 18080.
	LabelPortPrefix = LabelPrefix + "port."

	// ManagedByValue is the value stored under LabelManagedBy.
	ManagedByValue = "weavekit"
)

// serviceContainerPorts maps a service label suffix to the fixed port the
// Weaviate image listens on inside the container.
var serviceContainerPorts = map[string]int{
	model.ServiceHTTP: 8080,
	model.ServiceGRPC: 50051,
}

// BuildLabels converts a Stack into a Docker label map suitable for
// ContainerCreate. The labels carry everything needed to reconstruct the
// stack later via ParseLabels; runtime fields (ContainerID, ContainerName,
// State) are intentionally not persisted because Docker itself is their
// source of truth.
func BuildLabels(stack *model.Stack) map[string]string {
	labels := map[string]string{
		LabelManagedBy:  ManagedByValue,
		LabelName:       stack.Name,
		LabelImage:      stack.Image,
		LabelVersion:    stack.Version,
		LabelDataVolume: stack.DataVolume,
		// RFC3339 in UTC keeps timestamps comparable across machines
		// regardless of the local timezone.
		LabelCreatedAt: stack.CreatedAt.UTC().Format(time.RFC3339),
	}

	for _, p := range stack.Ports {
		labels[BuildPortLabel(p.Service)] = strconv.Itoa(p.HostPort)
	}

	return labels
}

// BuildPortLabel returns the label key for a service's port mapping.
// For example, BuildPortLabel("http") returns "weavekit.port.http".
func BuildPortLabel(service string) string {
	return LabelPortPrefix + service
}

// ParseLabels reconstructs a Stack from a Docker label map. This is the
// inverse of BuildLabels.
//
// All required labels are validated before parsing begins, and every
// missing key is reported in a single error so the user sees the full
// extent of the corruption at once. Runtime fields (ContainerID,
// ContainerName, State) are left zero; callers populate them from the
// Docker API response.
func ParseLabels(labels map[string]string) (*model.Stack, error) {
	// Collect all missing required labels instead of failing on the first.
	required := []string{
		LabelManagedBy,
		LabelName,
		LabelImage,
		LabelVersion,
		LabelDataVolume,
		LabelCreatedAt,
	}
	var missing []string
	for _, key := range required {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"unexpected value for %s: got %q, want %q",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s label %q: %w", LabelCreatedAt, labels[LabelCreatedAt], err)
	}

	ports, err := ParsePortLabels(labels)
	if err != nil {
		return nil, err
	}

	return &model.Stack{
		Name:       labels[LabelName],
		Image:      labels[LabelImage],
		Version:    labels[LabelVersion],
		DataVolume: labels[LabelDataVolume],
		CreatedAt:  createdAt,
		Ports:      ports,
	}, nil
}

// ParsePortLabels extracts port mappings from a label map. Labels without
// the port prefix are ignored. The result is sorted by container port so
// the HTTP mapping always precedes the gRPC mapping.
func ParsePortLabels(labels map[string]string) ([]model.PortMapping, error) {
	var mappings []model.PortMapping

	for key, value := range labels {
		if !strings.HasPrefix(key, LabelPortPrefix) {
			continue
		}

		service := strings.TrimPrefix(key, LabelPortPrefix)
		containerPort, ok := serviceContainerPorts[service]
		if !ok {
			return nil, fmt.Errorf("unknown service in port label %q", key)
		}

		hostPort, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid host port in label %s=%q: %w", key, value, err)
		}

		mappings = append(mappings, model.PortMapping{
			Service:       service,
			ContainerPort: containerPort,
			HostPort:      hostPort,
		})
	}

	// Map iteration order is random; sort for a stable result.
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].ContainerPort < mappings[j].ContainerPort
	})

	return mappings, nil
}

// FilterLabels returns the label filter used to list weavekit-managed
// containers via the Docker API.
func FilterLabels() map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
	}
}

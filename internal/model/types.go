package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StackState represents the lifecycle state of a local Weaviate stack.
// The state transitions are:
//
//	[Created] → Running → Stopped ⇄ Running → [Deleted]
type StackState string

const (
	// StateRunning indicates the stack container is running.
	StateRunning StackState = "running"

	// StateStopped indicates the stack container exists but is not running.
	// The data volume is preserved.
	StateStopped StackState = "stopped"
)

// String returns the string representation of StackState.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s StackState) String() string {
	return string(s)
}

// IsValid checks whether the StackState value is one of the
// predefined valid states.
func (s StackState) IsValid() bool {
	switch s {
	case StateRunning, StateStopped:
		return true
	default:
		return false
	}
}

// ParseStackState converts a string to a StackState.
// Returns an error if the string does not match any valid state.
func ParseStackState(s string) (StackState, error) {
	state := StackState(strings.ToLower(s))
	if !state.IsValid() {
		return "", fmt.Errorf("invalid stack state: %q (valid: running, stopped)", s)
	}
	return state, nil
}

// Service names for the two ports a Weaviate stack exposes.
const (
	// ServiceHTTP is the REST and GraphQL endpoint (container port 8080).
	ServiceHTTP = "http"

	// ServiceGRPC is the gRPC endpoint (container port 50051).
	ServiceGRPC = "grpc"
)

// PortMapping represents a single port mapping between a container port
// and a host port for one of the stack's services.
//
// Host ports are assigned in lockstep: both services shift by the same
// offset so the HTTP/gRPC pair stays recognizable (8080/50051,
// 18080/60051, ...). If a shifted pair exceeds 65535 or collides,
// dynamic port discovery via net.Listen() takes over.
type PortMapping struct {
	// Service identifies which stack endpoint this mapping belongs to.
	// Must be ServiceHTTP or ServiceGRPC.
	Service string `json:"service"`

	// ContainerPort is the port number inside the container (1-65535).
	ContainerPort int `json:"containerPort"`

	// HostPort is the port number on the host machine (1024-65535).
	// Must be unique across all weavekit stacks and not conflict with
	// ports used by other system processes.
	HostPort int `json:"hostPort"`
}

// Validate checks whether the PortMapping has valid field values.
// It verifies the service name and port number ranges. All Weaviate
// ports are TCP, so no protocol field is carried.
func (p *PortMapping) Validate() error {
	if p.Service != ServiceHTTP && p.Service != ServiceGRPC {
		return fmt.Errorf("port mapping: invalid service %q (valid: http, grpc)", p.Service)
	}
	if p.ContainerPort < 1 || p.ContainerPort > 65535 {
		return fmt.Errorf("port mapping: container port %d out of range (1-65535)", p.ContainerPort)
	}
	if p.HostPort < 1024 || p.HostPort > 65535 {
		return fmt.Errorf("port mapping: host port %d out of range (1024-65535)", p.HostPort)
	}
	return nil
}

// String returns a human-readable representation of the port mapping.
// Format: "service:containerPort → hostPort"
func (p *PortMapping) String() string {
	return fmt.Sprintf("%s:%d → %d", p.Service, p.ContainerPort, p.HostPort)
}

// ValidatePortMappings checks a slice of PortMappings for individual
// validity and cross-mapping host port uniqueness.
func ValidatePortMappings(mappings []PortMapping) error {
	// Track seen host ports to detect duplicates within the same stack.
	seen := make(map[int]string)

	for i := range mappings {
		// Validate each mapping individually first.
		if err := mappings[i].Validate(); err != nil {
			return err
		}

		if existing, exists := seen[mappings[i].HostPort]; exists {
			return fmt.Errorf("port mapping: host port %d is used by both %q and %q",
				mappings[i].HostPort, existing, mappings[i].Service)
		}
		seen[mappings[i].HostPort] = mappings[i].Service
	}
	return nil
}

// Stack represents a locally managed Weaviate instance: a single Docker
// container plus a named data volume. This is the primary aggregate
// entity in the domain.
//
// All fields are reconstructed at runtime from Docker container labels
// (see the label schema in the docker package). There is no persistent
// state file on disk.
type Stack struct {
	// Name is the unique identifier for this stack.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name"`

	// Image is the container image reference without the tag
	// (e.g., "semitechnologies/weaviate").
	Image string `json:"image"`

	// Version is the Weaviate version used as the image tag
	// (e.g., "1.30.5").
	Version string `json:"version"`

	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId,omitempty"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName,omitempty"`

	// State is the current lifecycle state of the stack.
	State StackState `json:"state"`

	// Ports holds the HTTP and gRPC host port mappings for this stack.
	Ports []PortMapping `json:"ports,omitempty"`

	// DataVolume is the name of the Docker volume holding the
	// Weaviate persistence directory. Survives stack stop/start.
	DataVolume string `json:"dataVolume,omitempty"`

	// CreatedAt is the timestamp when this stack was created.
	CreatedAt time.Time `json:"createdAt"`
}

// HostPortFor returns the host port mapped to the named service,
// or 0 if the stack carries no mapping for it.
func (s *Stack) HostPortFor(service string) int {
	for i := range s.Ports {
		if s.Ports[i].Service == service {
			return s.Ports[i].HostPort
		}
	}
	return 0
}

// Validate checks whether the Stack has valid field values.
func (s *Stack) Validate() error {
	if err := ValidateStackName(s.Name); err != nil {
		return err
	}
	if s.Image == "" {
		return fmt.Errorf("stack %q: image must not be empty", s.Name)
	}
	if s.Version == "" {
		return fmt.Errorf("stack %q: version must not be empty", s.Name)
	}
	return ValidatePortMappings(s.Ports)
}

// stackNameRegex validates stack names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var stackNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateStackName checks if the given name is a valid weavekit stack name.
// Valid names contain only alphanumeric characters and hyphens, and must
// start/end with an alphanumeric character. The name is embedded in Docker
// container and volume names, so the character set is deliberately narrow.
func ValidateStackName(name string) error {
	if name == "" {
		return fmt.Errorf("stack name must not be empty")
	}
	if !stackNameRegex.MatchString(name) {
		return fmt.Errorf("invalid stack name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// collectionNameRegex validates Weaviate collection (class) names.
// Weaviate requires GraphQL-compatible names: an uppercase first letter
// followed by letters, digits, or underscores.
var collectionNameRegex = regexp.MustCompile(`^[A-Z][_0-9A-Za-z]*$`)

// ValidateCollectionName checks if the given name is a valid Weaviate
// collection name. Weaviate rejects classes whose names are not valid
// GraphQL type names, so catching this locally saves a round trip.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}
	if !collectionNameRegex.MatchString(name) {
		return fmt.Errorf("invalid collection name %q: must start with an uppercase letter and contain only letters, digits, and underscores", name)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitSetupError indicates a project setup step failed: the package
	// manager is missing, the virtual environment could not be created,
	// or dependency installation failed. Also used for unclassified errors.
	ExitSetupError ExitCode = 1

	// ExitConfigError indicates required configuration is missing
	// or invalid (environment variables, weavekit.jsonc).
	ExitConfigError ExitCode = 2

	// ExitDockerError indicates the Docker daemon is not accessible
	// or a container operation failed.
	ExitDockerError ExitCode = 3

	// ExitStackNotFound indicates the specified stack does not exist.
	ExitStackNotFound ExitCode = 4

	// ExitPortAllocationFailed indicates a host port pair could not be
	// allocated without conflicting with existing allocations.
	ExitPortAllocationFailed ExitCode = 5

	// ExitWeaviateError indicates a Weaviate API request failed or the
	// instance is unreachable.
	ExitWeaviateError ExitCode = 6

	// ExitSchemaError indicates a schema or dataset file is invalid.
	ExitSchemaError ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

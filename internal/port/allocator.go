package port

import (
	"fmt"

	"github.com/harukaze-lab/weavekit/internal/model"
)

const (
	// baseHTTPPort and baseGRPCPort are the ports Weaviate listens on
	// inside the container. Stack index 0 publishes them unchanged.
	baseHTTPPort = 8080
	baseGRPCPort = 50051

	// portShiftMultiplier is the offset multiplied by the stack index
	// to compute the shifted host ports. Each stack index gets its own
	// 10000-port "band" to avoid collisions deterministically.
	//
	// Example: stackIndex=1 → 18080/60051
	portShiftMultiplier = 10000

	// maxPort is the highest valid TCP port number (2^16 - 1).
	maxPort = 65535

	// dynamicRangeStart is the start of the IANA dynamic/private port
	// range. When a shifted pair does not fit below maxPort, the
	// allocator falls back to searching this range (49152-65535).
	dynamicRangeStart = 49152

	// dynamicRangeEnd is the end of the dynamic port range.
	dynamicRangeEnd = 65535

	// maxStackIndex is the maximum supported stack index (0-9).
	// Indexes whose shifted gRPC port overflows 65535 (2 and up) are
	// always served from the dynamic range.
	maxStackIndex = 9
)

// Allocator computes host port pairs for Weaviate stacks using an
// offset-based shifting strategy applied to both ports in lockstep.
//
// The deterministic formula means users can predict which ports their
// stacks will use without running any commands: the first stack gets
// 8080/50051, the second 18080/60051.
//
// The Allocator holds a reference to a Scanner for verifying port
// availability at allocation time, and tracks mappings of existing
// stacks to prevent cross-stack conflicts.
type Allocator struct {
	// scanner probes the OS for actual port availability.
	scanner *Scanner

	// existingMappings tracks host ports already assigned to other
	// stacks, including stopped ones whose ports the Scanner cannot
	// see. Gathered from Docker container labels.
	existingMappings []model.PortMapping
}

// NewAllocator creates a new Allocator with the given Scanner.
// The scanner must not be nil.
func NewAllocator(scanner *Scanner) *Allocator {
	return &Allocator{
		scanner: scanner,
	}
}

// SetExistingMappings registers the port mappings of all other stacks.
// The allocator will avoid assigning any host port that conflicts with
// these, which matters for stopped stacks whose ports are not bound at
// allocation time.
func (a *Allocator) SetExistingMappings(mappings []model.PortMapping) {
	a.existingMappings = mappings
}

// AllocatePair computes the HTTP and gRPC host ports for a new stack.
//
// Algorithm:
//  1. Compute the lockstep shift: both base ports plus
//     stackIndex * 10000. Index 0 uses the original ports unchanged.
//  2. If the shifted gRPC port fits below 65535, probe both ports.
//     On conflict, slide both forward together within the same
//     10000-block so the pair stays in its band.
//  3. Otherwise fall back to the dynamic range (49152-65535), where
//     each port is found independently.
//
// The returned slice always holds exactly two mappings, HTTP first.
func (a *Allocator) AllocatePair(stackIndex int) ([]model.PortMapping, error) {
	if stackIndex < 0 || stackIndex > maxStackIndex {
		return nil, fmt.Errorf("stack index %d out of range (0-%d)", stackIndex, maxStackIndex)
	}

	offset := stackIndex * portShiftMultiplier
	httpPort := baseHTTPPort + offset
	grpcPort := baseGRPCPort + offset

	if grpcPort <= maxPort {
		// Slide both ports forward in lockstep within the block until
		// both are free. The block boundary keeps the pair from
		// stepping into another stack's band.
		blockEnd := httpPort + portShiftMultiplier - 1
		for j := 0; httpPort+j <= blockEnd && grpcPort+j <= maxPort; j++ {
			if a.isAvailable(httpPort+j) && a.isAvailable(grpcPort+j) {
				return pairMappings(httpPort+j, grpcPort+j), nil
			}
		}
	}

	// Overflow or exhausted block: pick both ports from the dynamic
	// range. The recognizable pairing is lost, but allocation still
	// succeeds while free ports exist.
	httpFallback, err := a.findAvailablePort(dynamicRangeStart, dynamicRangeEnd, 0)
	if err != nil {
		return nil, fmt.Errorf("no host port pair available for stack index %d: %w", stackIndex, err)
	}
	grpcFallback, err := a.findAvailablePort(dynamicRangeStart, dynamicRangeEnd, httpFallback)
	if err != nil {
		return nil, fmt.Errorf("no host port pair available for stack index %d: %w", stackIndex, err)
	}

	return pairMappings(httpFallback, grpcFallback), nil
}

// pairMappings builds the two-element mapping slice for a host port pair.
func pairMappings(httpPort, grpcPort int) []model.PortMapping {
	return []model.PortMapping{
		{Service: model.ServiceHTTP, ContainerPort: baseHTTPPort, HostPort: httpPort},
		{Service: model.ServiceGRPC, ContainerPort: baseGRPCPort, HostPort: grpcPort},
	}
}

// isAvailable checks both the OS-level availability via the Scanner AND
// that the port does not conflict with any existing stack mapping.
//
// The two-layer check is necessary because:
//   - the Scanner catches ports used by unrelated processes
//   - existingMappings catches ports reserved by stopped stacks, whose
//     containers are not running so the Scanner would not detect them
func (a *Allocator) isAvailable(port int) bool {
	for _, m := range a.existingMappings {
		if m.HostPort == port {
			return false
		}
	}
	return a.scanner.IsPortAvailable(port)
}

// findAvailablePort searches a range for the first available port,
// additionally skipping the excluded port (0 means nothing excluded).
// Used by the dynamic-range fallback, where the gRPC port must not
// collide with the HTTP port picked a moment earlier.
func (a *Allocator) findAvailablePort(startPort, endPort, exclude int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if port == exclude {
			continue
		}
		if a.isAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, endPort)
}

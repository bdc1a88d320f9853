package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific TCP ports are available on the host.
//
// It uses the operating system's network stack (net.Listen) to
// determine if a port is free. This is the most reliable method
// because it asks the OS directly, rather than parsing /proc/net/* or
// relying on external commands like `lsof` or `ss` which may require
// elevated permissions.
//
// The struct is currently stateless, but is defined as a struct
// (rather than bare functions) so that future options (e.g., bind
// address, timeout) can be added without breaking the API. It also
// makes the Scanner injectable as a dependency, which improves
// testability of the Allocator.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single TCP port is free on the host.
//
// It attempts net.Listen("tcp", ":port"); if the bind succeeds the
// port is available and the listener is immediately closed. We bind to
// all interfaces (":port" rather than "127.0.0.1:port") because Docker
// publishes ports on 0.0.0.0, so the same address space must be
// checked to avoid false positives.
//
// Only TCP is probed: both Weaviate endpoints (HTTP and gRPC) are TCP.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	// Close immediately; we only needed to test availability, not
	// actually accept connections.
	defer func() { _ = listener.Close() }()
	return true
}

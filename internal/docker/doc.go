// Package docker provides Docker Engine API wrappers and container
// lifecycle management for the weavekit CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management for persisting stack metadata
//     (Docker labels are the sole state storage mechanism, so stacks
//     survive CLI restarts without any state file)
//   - Weaviate container lifecycle: create, list, start, stop, remove
//   - Named data volumes so indexed objects survive container removal
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker

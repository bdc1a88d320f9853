// Package port implements host port scanning and pair allocation for
// the weavekit stack commands.
//
// Every Weaviate stack exposes two TCP ports: HTTP (8080 inside the
// container) and gRPC (50051). Host ports are assigned with an
// offset-based shift applied to both ports in lockstep:
//
//	httpHost = 8080  + (stackIndex * 10000)
//	grpcHost = 50051 + (stackIndex * 10000)
//
// The lockstep shift keeps the pair recognizable (8080/50051,
// 18080/60051, ...) so a developer can tell at a glance which stack a
// port belongs to. The Scanner verifies OS-level availability via
// net.Listen(), while the Allocator combines scanning with
// cross-stack conflict detection.
//
// When the shifted gRPC port exceeds 65535 or the block is exhausted,
// the allocator falls back to dynamic port discovery in the IANA
// ephemeral range (49152-65535), giving up the recognizable pairing
// but never failing while free ports exist.
package port

// Package model defines the domain types and value objects for the
// weavekit CLI.
//
// This package contains pure data structures with no external dependencies.
// The central entity (Stack) is a transient representation reconstructed
// from Docker container labels at runtime; there are no persistent state
// files on disk.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model

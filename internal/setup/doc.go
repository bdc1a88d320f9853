// Package setup runs the first-time setup sequence for a Weaviate
// demo project.
//
// The sequence mirrors what a bootstrap shell script would do: verify
// that the uv package manager is installed, create a virtual
// environment, and install the project dependencies in editable mode.
// Subprocess output is streamed through verbatim so the user sees
// exactly what uv prints, and every failure maps to ExitSetupError so
// scripts can rely on a stable exit code.
//
// The package also exposes small tool-inspection helpers (LookupTool,
// ToolVersion) shared with the doctor command.
package setup

// Package project handles parsing of weavekit.jsonc project files.
//
// A project file is optional: every field has a default, so commands
// work out of the box in a bare directory. When present, the file uses
// JSONC (JSON with Comments), which github.com/tidwall/jsonc strips
// before parsing with the standard encoding/json library.
package project

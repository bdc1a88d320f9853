// Package dataset loads import records from YAML or JSON Lines files.
//
// Records are free-form property maps. An "id" key, when present, becomes
// the object UUID; every other record receives a generated UUID so imports
// are repeatable without duplicating objects.
package dataset

// Package config loads the environment-backed configuration shared by
// the weavekit commands that talk to Weaviate Cloud.
//
// Values come from process environment variables, with an optional
// .env file fallback in the working directory so local development
// does not require exporting secrets into the shell. Environment
// variables take precedence over the file. The package only reads
// configuration; nothing is ever written back.
package config

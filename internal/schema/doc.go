// Package schema loads collection definitions from a YAML file and
// converts them into the wire shape the Weaviate schema API expects.
//
// The file format keeps the vectorizer and generative module settings as
// top-level keys per collection; the conversion folds them into the
// moduleConfig map the REST API wants. Validation happens at load time so
// commands fail before touching the network.
package schema

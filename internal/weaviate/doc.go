// Package weaviate implements a thin typed client for the Weaviate REST
// and GraphQL APIs.
//
// The client covers exactly the surface the weavekit commands need:
//   - readiness and metadata probes (/v1/.well-known/ready, /v1/meta)
//   - schema management (/v1/schema, /v1/schema/{class})
//   - batch object insertion (/v1/batch/objects)
//   - nearText semantic search with optional generative answers
//     (/v1/graphql)
//
// Authentication is a bearer token; when an OpenAI key is configured it is
// forwarded on every request via the X-OpenAI-Api-Key header so the
// server-side text2vec-openai and generative-openai modules can call out.
package weaviate

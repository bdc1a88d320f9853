package weaviate

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// TestBuildNearTextQuery verifies the rendered GraphQL document for a
// plain semantic search.
func TestBuildNearTextQuery(t *testing.T) {
	query := buildNearTextQuery(SearchParams{
		Class:     "AIArticles",
		Concepts:  []string{"What are the ethical considerations in AI?"},
		Certainty: 0.7,
		Limit:     3,
		Fields:    []string{"title", "category"},
	})

	assert.Contains(t, query, "Get {")
	assert.Contains(t, query, "AIArticles(")
	assert.Contains(t, query, `concepts: ["What are the ethical considerations in AI?"]`)
	assert.Contains(t, query, "certainty: 0.7")
	assert.Contains(t, query, "limit: 3")
	assert.Contains(t, query, "title\n")
	assert.Contains(t, query, "category\n")
	assert.Contains(t, query, "_additional {")
	assert.Contains(t, query, "id\n")
	assert.NotContains(t, query, "generate(",
		"no generative block without a prompt")
}

// TestBuildNearTextQuery_Generate verifies that a prompt adds the
// generative-openai single-prompt block.
func TestBuildNearTextQuery_Generate(t *testing.T) {
	query := buildNearTextQuery(SearchParams{
		Class:          "AIArticles",
		Concepts:       []string{"vector databases"},
		Limit:          1,
		Fields:         []string{"title", "content"},
		GeneratePrompt: "Explain this in simpler terms:",
	})

	assert.Contains(t, query, `generate(singleResult: { prompt: "Explain this in simpler terms:" })`)
	assert.Contains(t, query, "singleResult\n")
	assert.Contains(t, query, "error\n")
}

// TestBuildNearTextQuery_OmitsZeroValues verifies that zero certainty and
// zero limit leave their clauses out entirely.
func TestBuildNearTextQuery_OmitsZeroValues(t *testing.T) {
	query := buildNearTextQuery(SearchParams{
		Class:    "AIArticles",
		Concepts: []string{"anything"},
		Fields:   []string{"title"},
	})

	assert.NotContains(t, query, "certainty:")
	assert.NotContains(t, query, "limit:")
}

// TestBuildNearTextQuery_EscapesQuotes verifies that user text cannot
// break out of the GraphQL string literal.
func TestBuildNearTextQuery_EscapesQuotes(t *testing.T) {
	query := buildNearTextQuery(SearchParams{
		Class:    "AIArticles",
		Concepts: []string{`say "hello" \ goodbye`},
		Fields:   []string{"title"},
	})

	assert.Contains(t, query, `concepts: ["say \"hello\" \\ goodbye"]`)
}

// TestSearch verifies end-to-end decoding of a GraphQL response into
// hits, including the generative result.
func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		// The request wraps the query document in a JSON envelope.
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload["query"], "AIArticles(")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"Get": {
					"AIArticles": [
						{
							"title": "Vector Databases for AI Applications",
							"category": "Databases",
							"_additional": {
								"id": "c0264338-b87c-4223-8c1b-8796fa2e74e0",
								"certainty": 0.92,
								"generate": {
									"singleResult": "They store embeddings.",
									"error": null
								}
							}
						},
						{
							"title": "The Ethics of Artificial Intelligence",
							"category": "Ethics",
							"_additional": {
								"id": "59b2d335-4c0b-4a3a-9d5f-0c43b7a7e6e4",
								"certainty": 0.81
							}
						}
					]
				}
			}
		}`))
	})

	hits, err := client.Search(t.Context(), SearchParams{
		Class:    "AIArticles",
		Concepts: []string{"vector databases"},
		Limit:    2,
		Fields:   []string{"title", "category"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "c0264338-b87c-4223-8c1b-8796fa2e74e0", hits[0].ID)
	assert.InDelta(t, 0.92, hits[0].Certainty, 1e-9)
	assert.Equal(t, "Vector Databases for AI Applications", hits[0].Fields["title"])
	assert.Equal(t, "Databases", hits[0].Fields["category"])
	assert.Equal(t, "They store embeddings.", hits[0].Generated)
	assert.Empty(t, hits[0].GenerateError)

	assert.Equal(t, "The Ethics of Artificial Intelligence", hits[1].Fields["title"])
	assert.Empty(t, hits[1].Generated)
}

// TestSearch_GraphQLErrors verifies that GraphQL-level errors, which
// arrive with HTTP 200, are surfaced as CLIErrors.
func TestSearch_GraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"errors": [{"message": "explorer: get class: vectorize params: no api key found"}]
		}`))
	})

	_, err := client.Search(t.Context(), SearchParams{
		Class:    "AIArticles",
		Concepts: []string{"anything"},
	})
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitWeaviateError, cliErr.Code)
	assert.Contains(t, err.Error(), "no api key found")
}

// TestSearch_NoHits verifies that an empty result set is not an error.
func TestSearch_NoHits(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"Get": {"AIArticles": []}}}`))
	})

	hits, err := client.Search(t.Context(), SearchParams{
		Class:    "AIArticles",
		Concepts: []string{"nothing matches this"},
	})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

// TestHitFromObject verifies the split between requested fields and
// _additional metadata, including the generative error path.
func TestHitFromObject(t *testing.T) {
	hit := hitFromObject(map[string]interface{}{
		"title": "Prompt Engineering Techniques",
		"_additional": map[string]interface{}{
			"id":        "abc-123",
			"certainty": 0.88,
			"generate": map[string]interface{}{
				"singleResult": "",
				"error":        "openai: rate limited",
			},
		},
	})

	assert.Equal(t, "abc-123", hit.ID)
	assert.InDelta(t, 0.88, hit.Certainty, 1e-9)
	assert.Equal(t, map[string]interface{}{"title": "Prompt Engineering Techniques"}, hit.Fields)
	assert.Empty(t, hit.Generated)
	assert.Equal(t, "openai: rate limited", hit.GenerateError)
}

// TestHitFromObject_NoAdditional verifies that an object without the
// _additional block still yields its fields.
func TestHitFromObject_NoAdditional(t *testing.T) {
	hit := hitFromObject(map[string]interface{}{"title": "bare"})

	assert.Equal(t, "bare", hit.Fields["title"])
	assert.Empty(t, hit.ID)
	assert.Zero(t, hit.Certainty)
}

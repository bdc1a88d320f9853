package weaviate

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// SearchParams describes a nearText Get query.
type SearchParams struct {
	// Class is the collection to search.
	Class string

	// Concepts are the nearText search concepts.
	Concepts []string

	// Certainty is the minimum match certainty; 0 omits the filter.
	Certainty float64

	// Limit caps the number of hits; 0 omits the limit.
	Limit int

	// Fields are the object properties to request per hit.
	Fields []string

	// GeneratePrompt, when non-empty, adds a generative-openai
	// single-prompt block. The prompt is applied to each hit.
	GeneratePrompt string
}

// Search runs a nearText Get query and decodes the hits. GraphQL-level
// errors (which arrive with HTTP 200) are surfaced as CLIErrors.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]SearchHit, error) {
	payload := map[string]string{"query": buildNearTextQuery(params)}

	var resp graphqlResponse
	if _, err := c.do(ctx, http.MethodPost, graphqlPath, payload, &resp); err != nil {
		return nil, model.WrapCLIError(
			model.ExitWeaviateError,
			"graphql query failed",
			err,
		)
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, model.NewCLIError(
			model.ExitWeaviateError,
			"graphql query failed: "+strings.Join(messages, "; "),
		)
	}

	objects := resp.Data.Get[params.Class]
	hits := make([]SearchHit, 0, len(objects))
	for _, obj := range objects {
		hits = append(hits, hitFromObject(obj))
	}
	return hits, nil
}

// buildNearTextQuery renders the GraphQL document for a nearText search:
//
//	{
//	  Get {
//	    AIArticles(
//	      nearText: { concepts: ["..."], certainty: 0.7 }
//	      limit: 2
//	    ) {
//	      title
//	      _additional { id certainty }
//	    }
//	  }
//	}
func buildNearTextQuery(p SearchParams) string {
	var b strings.Builder

	b.WriteString("{\n  Get {\n    ")
	b.WriteString(p.Class)
	b.WriteString("(\n      nearText: {\n        concepts: [")
	for i, concept := range p.Concepts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteGraphQL(concept))
	}
	b.WriteString("]\n")
	if p.Certainty > 0 {
		b.WriteString("        certainty: ")
		b.WriteString(strconv.FormatFloat(p.Certainty, 'g', -1, 64))
		b.WriteString("\n")
	}
	b.WriteString("      }\n")
	if p.Limit > 0 {
		fmt.Fprintf(&b, "      limit: %d\n", p.Limit)
	}
	b.WriteString("    ) {\n")

	for _, field := range p.Fields {
		b.WriteString("      ")
		b.WriteString(field)
		b.WriteString("\n")
	}

	b.WriteString("      _additional {\n        id\n        certainty\n")
	if p.GeneratePrompt != "" {
		b.WriteString("        generate(singleResult: { prompt: ")
		b.WriteString(quoteGraphQL(p.GeneratePrompt))
		b.WriteString(" }) {\n          singleResult\n          error\n        }\n")
	}
	b.WriteString("      }\n    }\n  }\n}")

	return b.String()
}

// quoteGraphQL escapes a string for use as a GraphQL string literal.
// Go's quoting rules cover the GraphQL escape set (backslash, quote,
// newline, tab) for the text that reaches this CLI.
func quoteGraphQL(s string) string {
	return strconv.Quote(s)
}

// hitFromObject splits one GraphQL result object into requested fields
// and the _additional metadata.
func hitFromObject(obj map[string]interface{}) SearchHit {
	hit := SearchHit{Fields: make(map[string]interface{}, len(obj))}

	for key, value := range obj {
		if key != "_additional" {
			hit.Fields[key] = value
		}
	}

	additional, _ := obj["_additional"].(map[string]interface{})
	if id, ok := additional["id"].(string); ok {
		hit.ID = id
	}
	if certainty, ok := additional["certainty"].(float64); ok {
		hit.Certainty = certainty
	}
	if generated, ok := additional["generate"].(map[string]interface{}); ok {
		if s, ok := generated["singleResult"].(string); ok {
			hit.Generated = s
		}
		if e, ok := generated["error"].(string); ok {
			hit.GenerateError = e
		}
	}

	return hit
}

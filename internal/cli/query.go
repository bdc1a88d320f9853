// Package cli — query.go implements the "weavekit query" command.
//
// The query command runs a semantic nearText search against a
// collection and prints the matching objects ranked by certainty.
// With --generate, each hit is additionally run through the
// generative-openai module with the given single-object prompt.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/project"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// queryFlags holds the flag values for the query command.
type queryFlags struct {
	collection string   // --collection: target class (default from weavekit.jsonc)
	limit      int      // --limit: maximum number of hits (0 = project default)
	certainty  float64  // --certainty: minimum match certainty (0 = project default)
	fields     []string // --fields: properties to request and print
	generate   string   // --generate: single-object generative prompt
}

// NewQueryCommand creates the "query" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewQueryCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a semantic nearText search against a collection",
		Long: `Run a semantic nearText search and print the matching objects.

The search text is embedded server-side via the collection's
text2vec-openai module; hits are ranked by certainty. Use --generate to
run each hit through the generative-openai module with a prompt.
Property placeholders like {title} in the prompt are substituted per hit.

Examples:
  weavekit query "machine learning applications"
  weavekit query --limit 5 --certainty 0.6 "vector databases"
  weavekit query --generate "Summarize {title} in one sentence" "AI ethics"`,

		// The search text may be given as one quoted argument or as
		// multiple words; they are joined with spaces.
		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().StringVar(&flags.collection, "collection", "", "Target collection (default: from weavekit.jsonc)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "Maximum number of hits (default: from weavekit.jsonc)")
	cmd.Flags().Float64Var(&flags.certainty, "certainty", 0, "Minimum match certainty in (0, 1] (default: from weavekit.jsonc)")
	cmd.Flags().StringSliceVar(&flags.fields, "fields", nil, "Properties to request per hit (default: from weavekit.jsonc)")
	cmd.Flags().StringVar(&flags.generate, "generate", "", "Generative prompt applied to each hit")

	return cmd
}

// runQuery resolves the search parameters from flags and project
// defaults, executes the search, and prints the hits.
func runQuery(ctx context.Context, text string, flags *queryFlags) error {
	proj, _, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}

	params, err := buildSearchParams(text, flags, proj)
	if err != nil {
		return err
	}

	client, err := clusterClient()
	if err != nil {
		return err
	}
	defer client.Close()

	VerboseLog("Searching %s for %q (limit %d, certainty %g)",
		params.Class, text, params.Limit, params.Certainty)

	hits, err := client.Search(ctx, params)
	if err != nil {
		return err
	}

	printQueryResult(params, hits)
	return nil
}

// buildSearchParams merges command flags over the project defaults and
// validates the result.
func buildSearchParams(text string, flags *queryFlags, proj *project.Project) (weaviate.SearchParams, error) {
	params := weaviate.SearchParams{
		Class:          proj.Collection,
		Concepts:       []string{text},
		Certainty:      proj.Query.Certainty,
		Limit:          proj.Query.Limit,
		Fields:         proj.Query.Fields,
		GeneratePrompt: flags.generate,
	}

	if flags.collection != "" {
		params.Class = flags.collection
	}
	if flags.limit > 0 {
		params.Limit = flags.limit
	}
	if flags.certainty > 0 {
		params.Certainty = flags.certainty
	}
	if len(flags.fields) > 0 {
		params.Fields = flags.fields
	}

	if err := model.ValidateCollectionName(params.Class); err != nil {
		return weaviate.SearchParams{}, model.WrapCLIError(model.ExitConfigError, "invalid collection name", err)
	}
	if params.Certainty > 1 {
		return weaviate.SearchParams{}, model.NewCLIError(
			model.ExitConfigError,
			fmt.Sprintf("certainty must be in (0, 1], got %g", params.Certainty),
		)
	}
	return params, nil
}

// printQueryResult outputs the hits in text or JSON format.
func printQueryResult(params weaviate.SearchParams, hits []weaviate.SearchHit) {
	if IsJSONOutput() {
		printQueryResultJSON(hits)
		return
	}

	if len(hits) == 0 {
		fmt.Println("No matching objects found.")
		return
	}

	for rank, hit := range hits {
		fmt.Printf("%d. certainty %.3f  (%s)\n", rank+1, hit.Certainty, hit.ID)

		for _, line := range formatHitFields(hit, params.Fields) {
			fmt.Printf("   %s\n", line)
		}

		if hit.Generated != "" {
			fmt.Printf("   generated: %s\n", hit.Generated)
		}
		if hit.GenerateError != "" {
			fmt.Printf("   generate error: %s\n", hit.GenerateError)
		}
	}
}

// formatHitFields renders a hit's properties as "name: value" lines.
// Requested fields come first in their requested order; any extra
// fields the server returned follow alphabetically.
func formatHitFields(hit weaviate.SearchHit, requested []string) []string {
	lines := make([]string, 0, len(hit.Fields))
	printed := make(map[string]bool, len(hit.Fields))

	for _, name := range requested {
		if value, ok := hit.Fields[name]; ok {
			lines = append(lines, fmt.Sprintf("%s: %v", name, value))
			printed[name] = true
		}
	}

	var extra []string
	for name := range hit.Fields {
		if !printed[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		lines = append(lines, fmt.Sprintf("%s: %v", name, hit.Fields[name]))
	}

	return lines
}

// printQueryResultJSON outputs the hits as structured JSON.
func printQueryResultJSON(hits []weaviate.SearchHit) {
	type hitJSON struct {
		Rank          int                    `json:"rank"`
		ID            string                 `json:"id"`
		Certainty     float64                `json:"certainty"`
		Fields        map[string]interface{} `json:"fields"`
		Generated     string                 `json:"generated,omitempty"`
		GenerateError string                 `json:"generateError,omitempty"`
	}

	result := struct {
		Hits []hitJSON `json:"hits"`
	}{
		// Empty slice instead of nil so JSON output shows [] for no hits.
		Hits: make([]hitJSON, 0, len(hits)),
	}

	for rank, hit := range hits {
		result.Hits = append(result.Hits, hitJSON{
			Rank:          rank + 1,
			ID:            hit.ID,
			Certainty:     hit.Certainty,
			Fields:        hit.Fields,
			Generated:     hit.Generated,
			GenerateError: hit.GenerateError,
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

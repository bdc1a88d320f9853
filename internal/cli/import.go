// Package cli — import.go implements the "weavekit import" command.
//
// The import command loads objects from a dataset file (YAML list or
// JSON Lines) and stores them in the target collection via the batch
// API. Objects are sent in fixed-size batches; the server vectorizes
// each one through the configured OpenAI module, so a progress bar
// tracks the slow part.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/dataset"
	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/project"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// importBatchSize is how many objects go into one batch request. Each
// object triggers a server-side embedding call, so small batches keep
// request latency and failure blast radius manageable.
const importBatchSize = 10

// maxReportedFailures caps how many per-object failures are printed in
// detail; the rest are summarized by count.
const maxReportedFailures = 5

// importFlags holds the flag values for the import command.
type importFlags struct {
	collection string // --collection: target class (default from weavekit.jsonc)
}

// NewImportCommand creates the "import" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewImportCommand() *cobra.Command {
	flags := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import objects from a dataset file into a collection",
		Long: `Import objects from a dataset file into a Weaviate collection.

The file may be a YAML list of objects or JSON Lines (one object per
line). Objects without an "id" field get a generated UUID. Objects are
sent in batches of ` + fmt.Sprint(importBatchSize) + `; the server vectorizes each one via the
collection's OpenAI module.

When no file is given, the data path from weavekit.jsonc is used.

Examples:
  weavekit import
  weavekit import data/articles.yaml
  weavekit import --collection AIArticles data/articles.jsonl`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runImport(cmd.Context(), path, flags)
		},
	}

	cmd.Flags().StringVar(&flags.collection, "collection", "", "Target collection (default: from weavekit.jsonc)")

	return cmd
}

// runImport loads the dataset and streams it to the batch API in
// chunks, tracking per-object outcomes.
func runImport(ctx context.Context, path string, flags *importFlags) error {
	proj, _, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}

	if path == "" {
		path = proj.Data
	}
	collection := flags.collection
	if collection == "" {
		collection = proj.Collection
	}
	if err := model.ValidateCollectionName(collection); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid collection name", err)
	}

	records, err := dataset.Load(path)
	if err != nil {
		return err
	}
	VerboseLog("Loaded %d object(s) from %s", len(records), path)

	client, err := clusterClient()
	if err != nil {
		return err
	}
	defer client.Close()

	bar := newImportBar(len(records))
	var failures []weaviate.BatchResult

	for _, chunk := range chunkRecords(records, importBatchSize) {
		objects := make([]weaviate.Object, 0, len(chunk))
		for _, r := range chunk {
			objects = append(objects, weaviate.Object{
				ID:         r.ID,
				Class:      collection,
				Properties: r.Properties,
			})
		}

		results, err := client.BatchObjects(ctx, objects)
		if err != nil {
			return err
		}
		for _, r := range results {
			if !r.Succeeded() {
				failures = append(failures, r)
			}
		}

		_ = bar.Add(len(chunk))
	}
	_ = bar.Finish()

	printImportResult(collection, len(records), failures)

	if len(failures) > 0 {
		return model.NewCLIError(
			model.ExitWeaviateError,
			fmt.Sprintf("%d of %d objects failed to import", len(failures), len(records)),
		)
	}
	return nil
}

// chunkRecords splits records into batches of at most size elements,
// preserving order. A non-positive size yields a single chunk.
func chunkRecords(records []dataset.Record, size int) [][]dataset.Record {
	if len(records) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]dataset.Record{records}
	}

	chunks := make([][]dataset.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// newImportBar builds the progress bar for an import run. The bar is
// suppressed in JSON mode and in CI, where control sequences would
// pollute captured output.
func newImportBar(total int) *progressbar.ProgressBar {
	writer := io.Writer(os.Stderr)
	if IsJSONOutput() || os.Getenv("CI") == "true" {
		writer = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionSetDescription("importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// printImportResult outputs the import summary in text or JSON format.
func printImportResult(collection string, total int, failures []weaviate.BatchResult) {
	if IsJSONOutput() {
		type failureJSON struct {
			ID     string   `json:"id"`
			Errors []string `json:"errors"`
		}

		result := struct {
			Collection string        `json:"collection"`
			Total      int           `json:"total"`
			Imported   int           `json:"imported"`
			Failed     int           `json:"failed"`
			Failures   []failureJSON `json:"failures"`
		}{
			Collection: collection,
			Total:      total,
			Imported:   total - len(failures),
			Failed:     len(failures),
			Failures:   make([]failureJSON, 0, len(failures)),
		}
		for _, f := range failures {
			result.Failures = append(result.Failures, failureJSON{ID: f.ID, Errors: f.Errors})
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Imported %d of %d objects into %s\n", total-len(failures), total, collection)

	for i, f := range failures {
		if i == maxReportedFailures {
			fmt.Printf("  ... and %d more failures\n", len(failures)-maxReportedFailures)
			break
		}
		detail := "unknown error"
		if len(f.Errors) > 0 {
			detail = f.Errors[0]
		}
		fmt.Printf("  failed %s: %s\n", f.ID, detail)
	}
}

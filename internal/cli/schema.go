// Package cli — schema.go implements the "weavekit schema" command group.
//
// The schema commands manage the cluster's collection definitions:
//
//	schema apply   create the collections declared in the schema YAML
//	schema list    show the collections the cluster currently has
//
// Collections that already exist are skipped by default; --recreate
// deletes and recreates them, dropping their objects.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harukaze-lab/weavekit/internal/config"
	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/project"
	"github.com/harukaze-lab/weavekit/internal/schema"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// schemaApplyFlags holds the flag values for the schema apply command.
type schemaApplyFlags struct {
	file     string // --file: schema YAML path (default from weavekit.jsonc)
	recreate bool   // --recreate: delete and recreate existing collections
}

// NewSchemaCommand creates the "schema" parent command with its apply
// and list subcommands. It is called from NewRootCommand.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the cluster's collection definitions",
	}

	cmd.AddCommand(newSchemaApplyCommand())
	cmd.AddCommand(newSchemaListCommand())

	return cmd
}

// newSchemaApplyCommand creates the "schema apply" subcommand.
func newSchemaApplyCommand() *cobra.Command {
	flags := &schemaApplyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the collections declared in the schema file",
		Long: `Create the collections declared in the schema YAML file.

Collections that already exist on the cluster are skipped. Pass
--recreate to delete and recreate them instead; this drops all of their
objects, so it is opt-in.

Examples:
  weavekit schema apply
  weavekit schema apply --file schema/collections.yaml
  weavekit schema apply --recreate`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaApply(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Schema YAML path (default: from weavekit.jsonc)")
	cmd.Flags().BoolVar(&flags.recreate, "recreate", false, "Delete and recreate existing collections (drops their objects)")

	return cmd
}

// newSchemaListCommand creates the "schema list" subcommand.
func newSchemaListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the collections the cluster currently has",

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaList(cmd.Context())
		},
	}
}

// applyOutcome records what happened to one collection during apply.
type applyOutcome struct {
	Class  string `json:"class"`
	Action string `json:"action"` // "created", "recreated", or "skipped"
}

// runSchemaApply loads the schema file and creates each collection,
// handling already-existing classes per the --recreate flag.
func runSchemaApply(ctx context.Context, flags *schemaApplyFlags) error {
	proj, _, err := project.LoadFromDir(".")
	if err != nil {
		return err
	}

	path := flags.file
	if path == "" {
		path = proj.Schema
	}

	file, err := schema.Load(path)
	if err != nil {
		return err
	}
	VerboseLog("Loaded %d collection definition(s) from %s", len(file.Collections), path)

	client, err := clusterClient()
	if err != nil {
		return err
	}
	defer client.Close()

	outcomes := make([]applyOutcome, 0, len(file.Collections))
	for _, collection := range file.Collections {
		action, err := applyCollection(ctx, client, collection, flags.recreate)
		if err != nil {
			return err
		}
		outcomes = append(outcomes, applyOutcome{Class: collection.Class, Action: action})
	}

	printSchemaApplyResult(outcomes)
	return nil
}

// applyCollection creates one collection, resolving the already-exists
// case into a skip or a delete-then-create depending on recreate.
func applyCollection(ctx context.Context, client *weaviate.Client, collection schema.Collection, recreate bool) (string, error) {
	class := collection.ToClass()

	err := client.CreateClass(ctx, class)
	if err == nil {
		return "created", nil
	}
	if !errors.Is(err, weaviate.ErrClassExists) {
		return "", err
	}

	if !recreate {
		VerboseLog("Collection %s already exists, skipping", class.Class)
		return "skipped", nil
	}

	VerboseLog("Recreating collection %s", class.Class)
	if err := client.DeleteClass(ctx, class.Class); err != nil {
		return "", err
	}
	if err := client.CreateClass(ctx, class); err != nil {
		return "", err
	}
	return "recreated", nil
}

// runSchemaList fetches the cluster schema and prints one row per class.
func runSchemaList(ctx context.Context) error {
	client, err := clusterClient()
	if err != nil {
		return err
	}
	defer client.Close()

	classes, err := client.ListClasses(ctx)
	if err != nil {
		return err
	}

	printSchemaListResult(classes)
	return nil
}

// clusterClient builds a Weaviate client for the configured cloud
// cluster. Shared by the schema, import, and query commands.
func clusterClient() (*weaviate.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "configuration is incomplete", err)
	}

	return weaviate.NewClient(
		cfg.ClusterBaseURL(),
		weaviate.WithAPIKey(cfg.WeaviateAPIKey),
		weaviate.WithOpenAIKey(cfg.OpenAIAPIKey),
	), nil
}

// printSchemaApplyResult outputs the apply outcomes in text or JSON format.
func printSchemaApplyResult(outcomes []applyOutcome) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"collections": outcomes}, "", "  ")
		fmt.Println(string(data))
		return
	}

	for _, o := range outcomes {
		fmt.Printf("%-24s %s\n", o.Class, o.Action)
	}
}

// printSchemaListResult outputs the cluster schema in text or JSON format.
func printSchemaListResult(classes []weaviate.Class) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{"classes": classes}, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(classes) == 0 {
		fmt.Println("The cluster has no collections.")
		return
	}

	fmt.Printf("%-24s %-20s %-6s %s\n", "CLASS", "VECTORIZER", "PROPS", "DESCRIPTION")
	for _, c := range classes {
		fmt.Printf("%-24s %-20s %-6d %s\n", c.Class, c.Vectorizer, len(c.Properties), c.Description)
	}
}

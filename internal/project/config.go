package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/tidwall/jsonc"
)

// Default values applied to any field missing from weavekit.jsonc.
// The collection name and query parameters mirror the bundled demo
// schema; the stack image is the official Weaviate release image.
const (
	DefaultCollection = "AIArticles"
	DefaultSchemaPath = "schema/collections.yaml"
	DefaultDataPath   = "data/articles.yaml"
	DefaultStackName  = "demo"
	DefaultImage      = "semitechnologies/weaviate"
	DefaultVersion    = "1.30.5"
	DefaultQueryLimit = 2
	DefaultCertainty  = 0.7
)

// DefaultQueryFields are the object properties the query command requests
// and prints when the project file does not override them.
var DefaultQueryFields = []string{"title", "category", "content"}

// Project represents a parsed weavekit.jsonc file with defaults applied.
type Project struct {
	// Collection is the Weaviate class that import and query target
	// when no explicit --collection flag is given.
	Collection string `json:"collection,omitempty"`

	// Schema is the path to the collections YAML file, relative to
	// the project directory.
	Schema string `json:"schema,omitempty"`

	// Data is the path of the dataset the import command loads when no
	// file argument is given.
	Data string `json:"data,omitempty"`

	// Stack configures the local Docker stack.
	Stack StackConfig `json:"stack,omitempty"`

	// Query configures defaults for semantic search.
	Query QueryConfig `json:"query,omitempty"`
}

// StackConfig describes the local Weaviate container managed by the
// stack commands.
type StackConfig struct {
	// Name identifies the stack; it is embedded in the container and
	// volume names.
	Name string `json:"name,omitempty"`

	// Image is the container image reference without the tag.
	Image string `json:"image,omitempty"`

	// Version is the Weaviate version used as the image tag.
	Version string `json:"version,omitempty"`
}

// QueryConfig holds default parameters for the query command.
type QueryConfig struct {
	// Limit is the maximum number of objects returned per query.
	Limit int `json:"limit,omitempty"`

	// Certainty is the minimum nearText match certainty (0..1].
	Certainty float64 `json:"certainty,omitempty"`

	// Fields are the object properties requested and printed per hit.
	Fields []string `json:"fields,omitempty"`
}

// Default returns a Project carrying only default values, used when no
// weavekit.jsonc exists.
func Default() *Project {
	p := &Project{}
	p.applyDefaults()
	return p
}

// applyDefaults fills every zero-valued field with its default.
func (p *Project) applyDefaults() {
	if p.Collection == "" {
		p.Collection = DefaultCollection
	}
	if p.Schema == "" {
		p.Schema = DefaultSchemaPath
	}
	if p.Data == "" {
		p.Data = DefaultDataPath
	}
	if p.Stack.Name == "" {
		p.Stack.Name = DefaultStackName
	}
	if p.Stack.Image == "" {
		p.Stack.Image = DefaultImage
	}
	if p.Stack.Version == "" {
		p.Stack.Version = DefaultVersion
	}
	if p.Query.Limit == 0 {
		p.Query.Limit = DefaultQueryLimit
	}
	if p.Query.Certainty == 0 {
		p.Query.Certainty = DefaultCertainty
	}
	if len(p.Query.Fields) == 0 {
		p.Query.Fields = append([]string(nil), DefaultQueryFields...)
	}
}

// Validate checks whether the project values are usable.
func (p *Project) Validate() error {
	if err := model.ValidateCollectionName(p.Collection); err != nil {
		return err
	}
	if err := model.ValidateStackName(p.Stack.Name); err != nil {
		return err
	}
	if p.Stack.Version == "" {
		return fmt.Errorf("stack version must not be empty")
	}
	if p.Query.Limit < 1 {
		return fmt.Errorf("query limit must be at least 1, got %d", p.Query.Limit)
	}
	if p.Query.Certainty <= 0 || p.Query.Certainty > 1 {
		return fmt.Errorf("query certainty must be in (0, 1], got %g", p.Query.Certainty)
	}
	for _, f := range p.Query.Fields {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("query fields must not contain empty names")
		}
	}
	return nil
}

// Load reads a weavekit.jsonc file, strips JSONC comments, parses it,
// and applies defaults for any omitted field.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read project file %s", path),
			err,
		)
	}

	// Strip JSONC comments (// and /* */) and trailing commas before
	// handing the bytes to encoding/json. Unknown fields are silently
	// ignored so the file can carry settings for other tools.
	cleanJSON := jsonc.ToJSON(data)

	p := &Project{}
	if err := json.Unmarshal(cleanJSON, p); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to parse project file %s", path),
			err,
		)
	}

	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("invalid project file %s", path),
			err,
		)
	}
	return p, nil
}

// Find searches for a project file in the given directory.
//
// The search order: weavekit.jsonc first (the documented name), then the
// hidden .weavekit.jsonc, then weavekit.json for projects that prefer
// strict JSON. Returns the path of the first file that exists, or ""
// when the directory has none.
func Find(dir string) string {
	candidates := []string{
		filepath.Join(dir, "weavekit.jsonc"),
		filepath.Join(dir, ".weavekit.jsonc"),
		filepath.Join(dir, "weavekit.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFromDir locates and loads the project file in dir, falling back
// to pure defaults when the directory has no project file. The returned
// path is "" when defaults were used.
func LoadFromDir(dir string) (*Project, string, error) {
	path := Find(dir)
	if path == "" {
		return Default(), "", nil
	}

	p, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return p, path, nil
}

package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harukaze-lab/weavekit/internal/model"
	"github.com/harukaze-lab/weavekit/internal/weaviate"
)

// defaultVectorizer is applied to collections that do not name one.
const defaultVectorizer = "text2vec-openai"

// generativeModule is the module name the generative settings bind to.
const generativeModule = "generative-openai"

// File is the parsed collections YAML document.
type File struct {
	Collections []Collection `yaml:"collections"`
}

// Collection is one class definition in the schema file.
//
// The YAML keeps vectorizer and generative settings as their own keys;
// ToClass folds them into the moduleConfig map the schema API expects.
type Collection struct {
	Class            string                 `yaml:"class"`
	Description      string                 `yaml:"description"`
	Vectorizer       string                 `yaml:"vectorizer"`
	VectorizerConfig map[string]interface{} `yaml:"vectorizerConfig"`
	GenerativeConfig map[string]interface{} `yaml:"generativeConfig"`
	Properties       []Property             `yaml:"properties"`
}

// Property is one property of a collection.
type Property struct {
	Name        string `yaml:"name"`
	DataType    string `yaml:"dataType"`
	Description string `yaml:"description"`

	// Skip excludes this property from vectorization. Properties like
	// URLs carry no semantic signal and would dilute the embedding.
	Skip bool `yaml:"skip"`

	// VectorizePropertyName includes the property name itself in the
	// vectorized text.
	VectorizePropertyName bool `yaml:"vectorizePropertyName"`
}

// Load reads and validates a collections YAML file. All failures are
// reported as CLIErrors with ExitSchemaError.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitSchemaError,
			fmt.Sprintf("failed to read schema file %s", path),
			err,
		)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, model.WrapCLIError(
			model.ExitSchemaError,
			fmt.Sprintf("failed to parse schema file %s", path),
			err,
		)
	}

	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, model.WrapCLIError(
			model.ExitSchemaError,
			fmt.Sprintf("invalid schema file %s", path),
			err,
		)
	}
	return &f, nil
}

// applyDefaults fills omitted per-collection and per-property values.
func (f *File) applyDefaults() {
	for i := range f.Collections {
		c := &f.Collections[i]
		if c.Vectorizer == "" {
			c.Vectorizer = defaultVectorizer
		}
		for j := range c.Properties {
			if c.Properties[j].DataType == "" {
				c.Properties[j].DataType = "text"
			}
		}
	}
}

// validate checks the whole document. Collections need a valid class
// name and at least one property; property names must be unique within
// their collection.
func (f *File) validate() error {
	if len(f.Collections) == 0 {
		return fmt.Errorf("schema file defines no collections")
	}

	for _, c := range f.Collections {
		if err := model.ValidateCollectionName(c.Class); err != nil {
			return err
		}
		if len(c.Properties) == 0 {
			return fmt.Errorf("collection %s has no properties", c.Class)
		}

		seen := make(map[string]bool, len(c.Properties))
		for _, p := range c.Properties {
			if p.Name == "" {
				return fmt.Errorf("collection %s has a property without a name", c.Class)
			}
			if seen[p.Name] {
				return fmt.Errorf("collection %s defines property %s twice", c.Class, p.Name)
			}
			seen[p.Name] = true
		}
	}
	return nil
}

// ToClass converts a collection definition into the schema API shape.
func (c Collection) ToClass() *weaviate.Class {
	moduleConfig := make(map[string]interface{})
	if len(c.VectorizerConfig) > 0 {
		moduleConfig[c.Vectorizer] = c.VectorizerConfig
	}
	if len(c.GenerativeConfig) > 0 {
		moduleConfig[generativeModule] = c.GenerativeConfig
	}
	if len(moduleConfig) == 0 {
		moduleConfig = nil
	}

	properties := make([]weaviate.Property, 0, len(c.Properties))
	for _, p := range c.Properties {
		properties = append(properties, weaviate.Property{
			Name:        p.Name,
			DataType:    []string{p.DataType},
			Description: p.Description,
			ModuleConfig: map[string]interface{}{
				c.Vectorizer: map[string]interface{}{
					"skip":                  p.Skip,
					"vectorizePropertyName": p.VectorizePropertyName,
				},
			},
		})
	}

	return &weaviate.Class{
		Class:        c.Class,
		Description:  c.Description,
		Vectorizer:   c.Vectorizer,
		ModuleConfig: moduleConfig,
		Properties:   properties,
	}
}

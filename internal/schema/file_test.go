package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// writeSchemaFile writes content to collections.yaml in a fresh temp
// directory and returns the file path.
func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collections.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_FullFile verifies parsing of a complete collections file.
func TestLoad_FullFile(t *testing.T) {
	path := writeSchemaFile(t, `
collections:
  - class: AIArticles
    description: AI-related articles for demonstration
    vectorizer: text2vec-openai
    vectorizerConfig:
      model: text-embedding-3-small
      type: text
    generativeConfig:
      model: gpt-3.5-turbo
    properties:
      - name: title
        dataType: text
        description: Title of the article
      - name: content
        dataType: text
      - name: category
        dataType: text
        skip: true
      - name: url
        dataType: text
        skip: true
`)

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Collections, 1)

	c := f.Collections[0]
	assert.Equal(t, "AIArticles", c.Class)
	assert.Equal(t, "text2vec-openai", c.Vectorizer)
	assert.Equal(t, "text-embedding-3-small", c.VectorizerConfig["model"])
	assert.Equal(t, "gpt-3.5-turbo", c.GenerativeConfig["model"])
	require.Len(t, c.Properties, 4)
	assert.False(t, c.Properties[0].Skip)
	assert.True(t, c.Properties[2].Skip)
}

// TestLoad_Defaults verifies the vectorizer and dataType defaults for a
// minimal file.
func TestLoad_Defaults(t *testing.T) {
	path := writeSchemaFile(t, `
collections:
  - class: Notes
    properties:
      - name: body
`)

	f, err := Load(path)
	require.NoError(t, err)

	c := f.Collections[0]
	assert.Equal(t, defaultVectorizer, c.Vectorizer)
	assert.Equal(t, "text", c.Properties[0].DataType)
}

// TestLoad_Errors covers the load failure modes; all must carry the
// schema exit code.
func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "collections: ["},
		{"no collections", "collections: []"},
		{"bad class name", "collections:\n  - class: lowercase\n    properties:\n      - name: body\n"},
		{"no properties", "collections:\n  - class: Notes\n"},
		{"unnamed property", "collections:\n  - class: Notes\n    properties:\n      - dataType: text\n"},
		{"duplicate property", "collections:\n  - class: Notes\n    properties:\n      - name: body\n      - name: body\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSchemaFile(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)

			var cliErr *model.CLIError
			require.ErrorAs(t, err, &cliErr)
			assert.Equal(t, model.ExitSchemaError, cliErr.Code)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "collections.yaml"))
		require.Error(t, err)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitSchemaError, cliErr.Code)
	})
}

// TestToClass verifies the conversion into the schema API shape: module
// settings folded into moduleConfig and dataType wrapped in a list.
func TestToClass(t *testing.T) {
	c := Collection{
		Class:            "AIArticles",
		Description:      "AI-related articles",
		Vectorizer:       "text2vec-openai",
		VectorizerConfig: map[string]interface{}{"model": "text-embedding-3-small", "type": "text"},
		GenerativeConfig: map[string]interface{}{"model": "gpt-3.5-turbo"},
		Properties: []Property{
			{Name: "title", DataType: "text", Description: "Title of the article"},
			{Name: "url", DataType: "text", Skip: true},
		},
	}

	class := c.ToClass()

	assert.Equal(t, "AIArticles", class.Class)
	assert.Equal(t, "text2vec-openai", class.Vectorizer)
	assert.Equal(t,
		map[string]interface{}{"model": "text-embedding-3-small", "type": "text"},
		class.ModuleConfig["text2vec-openai"])
	assert.Equal(t,
		map[string]interface{}{"model": "gpt-3.5-turbo"},
		class.ModuleConfig["generative-openai"])

	require.Len(t, class.Properties, 2)
	assert.Equal(t, []string{"text"}, class.Properties[0].DataType)
	assert.Equal(t,
		map[string]interface{}{"skip": false, "vectorizePropertyName": false},
		class.Properties[0].ModuleConfig["text2vec-openai"])
	assert.Equal(t,
		map[string]interface{}{"skip": true, "vectorizePropertyName": false},
		class.Properties[1].ModuleConfig["text2vec-openai"])
}

// TestToClass_NoModuleSettings verifies that a collection without module
// settings produces a nil moduleConfig rather than an empty map, keeping
// the request body minimal.
func TestToClass_NoModuleSettings(t *testing.T) {
	c := Collection{
		Class:      "Notes",
		Vectorizer: "text2vec-openai",
		Properties: []Property{{Name: "body", DataType: "text"}},
	}

	class := c.ToClass()
	assert.Nil(t, class.ModuleConfig)
}

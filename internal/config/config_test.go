package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_FromEnv verifies that all five variables are read from the
// process environment.
func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("WEAVIATE_URL", "demo.weaviate.cloud")
	t.Setenv("WEAVIATE_API_KEY", "wv-key-1234")
	t.Setenv("REST_ENDPOINT", "rest.demo.weaviate.cloud")
	t.Setenv("GRPC_ENDPOINT", "grpc.demo.weaviate.cloud")
	t.Setenv("OPENAI_API_KEY", "sk-test-5678")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "demo.weaviate.cloud", cfg.WeaviateURL)
	assert.Equal(t, "wv-key-1234", cfg.WeaviateAPIKey)
	assert.Equal(t, "rest.demo.weaviate.cloud", cfg.RESTEndpoint)
	assert.Equal(t, "grpc.demo.weaviate.cloud", cfg.GRPCEndpoint)
	assert.Equal(t, "sk-test-5678", cfg.OpenAIAPIKey)
	assert.NoError(t, cfg.Validate())
}

// TestLoad_DotEnvFile verifies the .env fallback and that environment
// variables take precedence over file values.
func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	dotenv := "WEAVIATE_URL=file.weaviate.cloud\nREST_ENDPOINT=rest.file.weaviate.cloud\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	t.Chdir(dir)

	// The environment wins over the file for WEAVIATE_URL.
	t.Setenv("WEAVIATE_URL", "env.weaviate.cloud")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env.weaviate.cloud", cfg.WeaviateURL)
	assert.Equal(t, "rest.file.weaviate.cloud", cfg.RESTEndpoint)
}

// TestLoad_NoDotEnv verifies that a missing .env file is not an error.
func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEAVIATE_URL", "demo.weaviate.cloud")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "demo.weaviate.cloud", cfg.WeaviateURL)
}

// TestConfig_Validate checks that all missing variables are reported
// together.
func TestConfig_Validate(t *testing.T) {
	t.Run("complete config", func(t *testing.T) {
		cfg := Config{
			WeaviateURL:    "demo.weaviate.cloud",
			WeaviateAPIKey: "wv-key",
			RESTEndpoint:   "rest.demo.weaviate.cloud",
			GRPCEndpoint:   "grpc.demo.weaviate.cloud",
			OpenAIAPIKey:   "sk-test",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("two missing", func(t *testing.T) {
		cfg := Config{
			WeaviateURL:  "demo.weaviate.cloud",
			RESTEndpoint: "rest.demo.weaviate.cloud",
			GRPCEndpoint: "grpc.demo.weaviate.cloud",
		}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WEAVIATE_API_KEY")
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
		assert.NotContains(t, err.Error(), "WEAVIATE_URL,")
	})

	t.Run("all missing", func(t *testing.T) {
		cfg := Config{}
		err := cfg.Validate()
		require.Error(t, err)
		for _, name := range []string{"WEAVIATE_URL", "WEAVIATE_API_KEY", "REST_ENDPOINT", "GRPC_ENDPOINT", "OPENAI_API_KEY"} {
			assert.Contains(t, err.Error(), name)
		}
	})
}

// TestConfig_Entries verifies display order and secret flags, which the
// env command relies on for masking.
func TestConfig_Entries(t *testing.T) {
	cfg := Config{WeaviateAPIKey: "wv-key", OpenAIAPIKey: "sk-test"}
	entries := cfg.Entries()

	require.Len(t, entries, 5)
	assert.Equal(t, "WEAVIATE_URL", entries[0].Name)
	assert.False(t, entries[0].Secret)
	assert.Equal(t, "WEAVIATE_API_KEY", entries[1].Name)
	assert.True(t, entries[1].Secret)
	assert.Equal(t, "OPENAI_API_KEY", entries[4].Name)
	assert.True(t, entries[4].Secret)
}

// TestConfig_BaseURLs verifies https:// normalization of the three
// endpoint hosts.
func TestConfig_BaseURLs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare host", "demo.weaviate.cloud", "https://demo.weaviate.cloud"},
		{"https kept", "https://demo.weaviate.cloud", "https://demo.weaviate.cloud"},
		{"http kept", "http://localhost:18080", "http://localhost:18080"},
		{"trailing slash trimmed", "demo.weaviate.cloud/", "https://demo.weaviate.cloud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{WeaviateURL: tt.input, RESTEndpoint: tt.input, GRPCEndpoint: tt.input}
			assert.Equal(t, tt.expected, cfg.ClusterBaseURL())
			assert.Equal(t, tt.expected, cfg.RESTBaseURL())
			assert.Equal(t, tt.expected, cfg.GRPCBaseURL())
		})
	}
}

// TestMask verifies secret masking for terminal display.
func TestMask(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"short secret fully hidden", "abc", "****"},
		{"four chars fully hidden", "abcd", "****"},
		{"long secret keeps tail", "sk-test-1234abcd", "****abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Mask(tt.input))
		})
	}
}

package config

import (
	"fmt"
	"strings"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigdotenv"
	"github.com/harukaze-lab/weavekit/internal/model"
)

// Config describes the connection settings for a Weaviate Cloud
// cluster and the OpenAI key used by its vectorizer modules.
type Config struct {
	// WeaviateURL is the cluster URL shown in the Weaviate Cloud
	// console, with or without the https:// scheme.
	WeaviateURL string `env:"WEAVIATE_URL" usage:"Weaviate Cloud cluster URL"`

	// WeaviateAPIKey authenticates against the cluster.
	WeaviateAPIKey string `env:"WEAVIATE_API_KEY" usage:"Weaviate Cloud API key"`

	// RESTEndpoint is the cluster's dedicated REST host.
	RESTEndpoint string `env:"REST_ENDPOINT" usage:"Cluster REST endpoint host"`

	// GRPCEndpoint is the cluster's dedicated gRPC host.
	GRPCEndpoint string `env:"GRPC_ENDPOINT" usage:"Cluster gRPC endpoint host"`

	// OpenAIAPIKey is forwarded to the cluster for the text2vec-openai
	// and generative-openai modules.
	OpenAIAPIKey string `env:"OPENAI_API_KEY" usage:"OpenAI API key for vectorization"`
}

// Load reads configuration from the process environment and an
// optional .env file in the working directory. Environment variables
// take precedence over file values. Load does not validate; call
// Validate separately so commands can inspect partial configuration.
func Load() (*Config, error) {
	cfg := &Config{}
	loader := aconfig.LoaderFor(cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              []string{".env"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".env": aconfigdotenv.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "failed to load configuration", err)
	}
	return cfg, nil
}

// Entry pairs an environment variable name with its loaded value.
// Secret entries should be masked before printing.
type Entry struct {
	Name   string
	Value  string
	Secret bool
}

// Entries returns all configuration values in display order.
func (cfg *Config) Entries() []Entry {
	return []Entry{
		{Name: "WEAVIATE_URL", Value: cfg.WeaviateURL},
		{Name: "WEAVIATE_API_KEY", Value: cfg.WeaviateAPIKey, Secret: true},
		{Name: "REST_ENDPOINT", Value: cfg.RESTEndpoint},
		{Name: "GRPC_ENDPOINT", Value: cfg.GRPCEndpoint},
		{Name: "OPENAI_API_KEY", Value: cfg.OpenAIAPIKey, Secret: true},
	}
}

// Missing returns the names of required variables that are unset,
// in display order. All five variables are required.
func (cfg *Config) Missing() []string {
	var missing []string
	for _, e := range cfg.Entries() {
		if e.Value == "" {
			missing = append(missing, e.Name)
		}
	}
	return missing
}

// Validate verifies that all required configuration values are present.
// Missing variables are reported together so the user can fix them in
// a single pass.
func (cfg *Config) Validate() error {
	if missing := cfg.Missing(); len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ClusterBaseURL returns the cluster URL normalized to carry a scheme.
// The Weaviate Cloud console displays the bare host, so https:// is
// added when no scheme is present.
func (cfg *Config) ClusterBaseURL() string {
	return ensureScheme(cfg.WeaviateURL)
}

// RESTBaseURL returns the REST endpoint normalized to carry a scheme.
func (cfg *Config) RESTBaseURL() string {
	return ensureScheme(cfg.RESTEndpoint)
}

// GRPCBaseURL returns the gRPC endpoint normalized to carry a scheme.
// Weaviate Cloud serves the readiness probe for the gRPC host over
// HTTPS as well, which is what the status command checks.
func (cfg *Config) GRPCBaseURL() string {
	return ensureScheme(cfg.GRPCEndpoint)
}

func ensureScheme(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "https://") || strings.HasPrefix(host, "http://") {
		return host
	}
	return "https://" + host
}

// Mask hides a secret except for its last four characters, which is
// enough to tell keys apart without exposing them in terminal output.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

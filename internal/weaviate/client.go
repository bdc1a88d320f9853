package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harukaze-lab/weavekit/internal/model"
)

// API paths relative to the instance base URL.
const (
	readyPath   = "/v1/.well-known/ready"
	metaPath    = "/v1/meta"
	schemaPath  = "/v1/schema"
	batchPath   = "/v1/batch/objects"
	graphqlPath = "/v1/graphql"
)

// defaultTimeout bounds every request. Batch inserts trigger server-side
// embedding calls to OpenAI, which can take a while for a full batch.
const defaultTimeout = 60 * time.Second

// ErrClassExists reports a schema create that collided with an existing
// class. Callers decide whether that is a skip or a failure.
var ErrClassExists = errors.New("class already exists")

// Client talks to a single Weaviate instance.
type Client struct {
	baseURL   string
	apiKey    string
	openAIKey string
	hc        *http.Client
}

// Option configures a Client, in the style of the Docker SDK's client
// options.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request. An empty key
// leaves requests unauthenticated, which local stacks with anonymous
// access accept.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithOpenAIKey sets the X-OpenAI-Api-Key header sent with every request.
// The server forwards it to the OpenAI modules.
func WithOpenAIKey(key string) Option {
	return func(c *Client) { c.openAIKey = key }
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// NewClient returns a client for the instance at baseURL. The URL must
// carry a scheme and host, without the /v1 suffix.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the instance URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections held by the underlying HTTP client.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

// do sends one JSON request and decodes the response into out when out is
// non-nil. It returns the HTTP status code alongside the error so callers
// can special-case statuses like 404.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.openAIKey != "" {
		req.Header.Set("X-OpenAI-Api-Key", c.openAIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, fmt.Errorf("%s %s returned %s: %s",
			method, path, resp.Status, apiErrorMessage(data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response body: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// apiErrorMessage extracts the human-readable message from a Weaviate
// error body ({"error": [{"message": "..."}]}), falling back to the raw
// body when the shape does not match.
func apiErrorMessage(data []byte) string {
	var parsed struct {
		Error []struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && len(parsed.Error) > 0 {
		messages := make([]string, 0, len(parsed.Error))
		for _, e := range parsed.Error {
			messages = append(messages, e.Message)
		}
		return strings.Join(messages, "; ")
	}

	body := strings.TrimSpace(string(data))
	if body == "" {
		return "(empty response body)"
	}
	const maxLen = 200
	if len(body) > maxLen {
		body = body[:maxLen] + "..."
	}
	return body
}

// Ready checks the instance's readiness probe. Any transport error or
// non-2xx status is reported as a model.CLIError with ExitWeaviateError.
func (c *Client) Ready(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, readyPath, nil, nil); err != nil {
		return model.WrapCLIError(
			model.ExitWeaviateError,
			fmt.Sprintf("%s is not ready", c.baseURL),
			err,
		)
	}
	return nil
}

// Meta fetches server build and module information from /v1/meta.
func (c *Client) Meta(ctx context.Context) (*Meta, error) {
	var meta Meta
	if _, err := c.do(ctx, http.MethodGet, metaPath, nil, &meta); err != nil {
		return nil, model.WrapCLIError(
			model.ExitWeaviateError,
			"failed to fetch server metadata",
			err,
		)
	}
	return &meta, nil
}

// ListClasses fetches all collection definitions from the schema.
func (c *Client) ListClasses(ctx context.Context) ([]Class, error) {
	var out struct {
		Classes []Class `json:"classes"`
	}
	if _, err := c.do(ctx, http.MethodGet, schemaPath, nil, &out); err != nil {
		return nil, model.WrapCLIError(
			model.ExitWeaviateError,
			"failed to fetch schema",
			err,
		)
	}
	return out.Classes, nil
}

// GetClass fetches a single class definition. A missing class is not an
// error: the result is nil, nil.
func (c *Client) GetClass(ctx context.Context, name string) (*Class, error) {
	var class Class
	status, err := c.do(ctx, http.MethodGet, schemaPath+"/"+url.PathEscape(name), nil, &class)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitWeaviateError,
			fmt.Sprintf("failed to fetch class %s", name),
			err,
		)
	}
	return &class, nil
}

// CreateClass creates a collection via POST /v1/schema. When the server
// already has a class with that name the returned error wraps
// ErrClassExists so callers can treat it as a skip.
func (c *Client) CreateClass(ctx context.Context, class *Class) error {
	status, err := c.do(ctx, http.MethodPost, schemaPath, class, nil)
	if err != nil {
		if status == http.StatusUnprocessableEntity && strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("class %s: %w", class.Class, ErrClassExists)
		}
		return model.WrapCLIError(
			model.ExitWeaviateError,
			fmt.Sprintf("failed to create class %s", class.Class),
			err,
		)
	}
	return nil
}

// DeleteClass removes a collection and all of its objects. Deleting a
// class that does not exist is not an error.
func (c *Client) DeleteClass(ctx context.Context, name string) error {
	status, err := c.do(ctx, http.MethodDelete, schemaPath+"/"+url.PathEscape(name), nil, nil)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return model.WrapCLIError(
			model.ExitWeaviateError,
			fmt.Sprintf("failed to delete class %s", name),
			err,
		)
	}
	return nil
}

// BatchObjects stores objects via a single /v1/batch/objects request and
// returns the per-object outcomes in response order. A returned error
// means the whole request failed; individual object failures are reported
// through the results instead.
func (c *Client) BatchObjects(ctx context.Context, objects []Object) ([]BatchResult, error) {
	payload := struct {
		Objects []Object `json:"objects"`
	}{Objects: objects}

	var items []batchResponseItem
	if _, err := c.do(ctx, http.MethodPost, batchPath, payload, &items); err != nil {
		return nil, model.WrapCLIError(
			model.ExitWeaviateError,
			"batch insert failed",
			err,
		)
	}

	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		r := BatchResult{ID: item.ID, Status: item.Result.Status}
		for _, e := range item.Result.Errors.Error {
			r.Errors = append(r.Errors, e.Message)
		}
		results = append(results, r)
	}
	return results, nil
}

// Package llm talks to a local Ollama instance to derive a deck strategy
// for a commander.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaConfig configures the Ollama client. Values are injected from the
// application config; nothing here is hardcoded beyond defaults.
type OllamaConfig struct {
	// Endpoint is the Ollama API base URL.
	Endpoint string

	// Model is the model name to use for strategy inference.
	Model string

	// Timeout bounds the single generation request. There are no retries;
	// a timeout means no strategy is produced.
	Timeout time.Duration

	// Temperature controls sampling randomness.
	Temperature float64

	// NumPredict caps the number of generated tokens.
	NumPredict int
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() *OllamaConfig {
	return &OllamaConfig{
		Endpoint:    "http://localhost:11434",
		Model:       "mistral",
		Timeout:     30 * time.Second,
		Temperature: 0.1,
		NumPredict:  1024,
	}
}

// OllamaClient provides access to the Ollama API.
type OllamaClient struct {
	config     *OllamaConfig
	httpClient *http.Client
}

// GenerateRequest is the request body for generation.
type GenerateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	System  string           `json:"system,omitempty"`
	Stream  bool             `json:"stream"`
	Format  string           `json:"format,omitempty"`
	Options *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions are optional model parameters.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// GenerateResponse is the response from generation.
type GenerateResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// VersionResponse is the response from the version endpoint.
type VersionResponse struct {
	Version string `json:"version"`
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(config *OllamaConfig) *OllamaClient {
	if config == nil {
		config = DefaultOllamaConfig()
	}

	return &OllamaClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Version checks that Ollama is reachable and returns its version.
func (c *OllamaClient) Version(ctx context.Context) (string, error) {
	url := c.config.Endpoint + "/api/version"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama not reachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version check failed with status %d", resp.StatusCode)
	}

	var version VersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", fmt.Errorf("failed to decode version response: %w", err)
	}

	return version.Version, nil
}

// Generate performs a single non-streaming generation request. The JSON
// response format hint keeps the model's output parseable.
func (c *OllamaClient) Generate(ctx context.Context, system, prompt string) (*GenerateResponse, error) {
	req := &GenerateRequest{
		Model:  c.config.Model,
		Prompt: prompt,
		System: system,
		Stream: false,
		Format: "json",
		Options: &GenerateOptions{
			Temperature: c.config.Temperature,
			NumPredict:  c.config.NumPredict,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.Endpoint + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generate failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &genResp, nil
}

// GetConfig returns the current configuration.
func (c *OllamaClient) GetConfig() *OllamaConfig {
	return c.config
}

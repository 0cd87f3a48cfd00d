// Package ollama embeds text through a local Ollama server, for deployments
// that want semantic vectors instead of the deterministic hash embedder.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:11434"
	embedEndpoint      = "/api/embed"
	defaultHTTPTimeout = 30 * time.Second
)

// Option configures the Embedder.
type Option func(*Embedder)

// WithBaseURL overrides the Ollama server address.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) {
		if baseURL != "" {
			e.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) {
		if client != nil {
			e.client = client
		}
	}
}

// Embedder calls the Ollama embed API.
type Embedder struct {
	baseURL string
	model   string
	client  *http.Client
}

// New creates an Ollama-backed embedder for the given model.
func New(model string, opts ...Option) *Embedder {
	e := &Embedder{
		baseURL: defaultBaseURL,
		model:   model,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model identifies the embedding model.
func (e *Embedder) Model() string { return "ollama:" + e.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// EmbedDocuments embeds a batch of documents.
func (e *Embedder) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	if e.model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no input texts provided")
	}
	body, err := json.Marshal(embedRequest{Model: e.model, Input: docs})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+embedEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: %s", strings.TrimSpace(string(msg)))
	}
	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(docs) {
		return nil, fmt.Errorf("ollama returned %d vectors for %d inputs", len(out.Embeddings), len(docs))
	}
	return out.Embeddings, nil
}

// EmbedQuery embeds a single query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPClient embeds text by delegating to an external model server, out of
// process (the spec treats the embedding model as an external collaborator;
// this is the production implementation of the Embedder interface, the
// Deterministic fake being the test implementation).
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient builds a model-server-backed Embedder. timeout bounds a
// single batch call.
func NewHTTPClient(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.Named("embedding_http"),
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// Embed posts texts to the model server's /embed endpoint and returns the
// unit-norm vectors it reports, in the same order as texts.
func (c *HTTPClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("embed request failed", zap.Error(err), zap.Int("batch", len(texts)))
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed request: unexpected status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(out.Vectors) != len(texts) {
		return nil, fmt.Errorf("embed response: got %d vectors for %d texts", len(out.Vectors), len(texts))
	}

	c.log.Debug("embedded batch", zap.Int("batch", len(texts)), zap.Duration("latency", time.Since(start)))
	return out.Vectors, nil
}

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skill-split/skill-split/internal/diag"
)

// HTTPProvider implements Provider against an OpenAI-compatible
// /v1/embeddings endpoint, grounded on the teacher's
// internal/memory/copilot_embedder.go CopilotEmbedder (same request
// shape, same bearer-token auth, same per-index response reordering),
// adapted to Provider's simpler single-call contract since batching
// and retry already live in Embedder. The wire format itself is not a
// hardened spec (only the OpenAI-compatible shape is assumed); callers
// needing a different provider's format implement Provider directly.
type HTTPProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	dims       int
	baseURL    string
}

// HTTPProviderOptions configures an HTTPProvider.
type HTTPProviderOptions struct {
	APIKey     string // resolved by the caller via internal/secret's chain
	Model      string // default "text-embedding-3-small"
	Dimensions int    // default 1536
	BaseURL    string // default "https://api.openai.com"
	Timeout    time.Duration
}

// NewHTTPProvider builds an HTTPProvider with defaults applied.
func NewHTTPProvider(opts HTTPProviderOptions) *HTTPProvider {
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = 1536
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiKey:     opts.APIKey,
		model:      opts.Model,
		dims:       opts.Dimensions,
		baseURL:    opts.BaseURL,
	}
}

func (p *HTTPProvider) ModelName() string { return p.model }
func (p *HTTPProvider) Dimensions() int   { return p.dims }

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingDatum   `json:"data"`
	Error *embeddingAPIError `json:"error,omitempty"`
}

type embeddingDatum struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type embeddingAPIError struct {
	Message string `json:"message"`
}

// Embed posts texts to the provider's embeddings endpoint and returns
// vectors reordered to match the input positions via each datum's
// Index field, the same defensive reordering copilot_embedder.go does
// since providers are not required to return results in input order.
func (p *HTTPProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{Model: p.model, Input: texts}
	if p.model == "text-embedding-3-small" || p.model == "text-embedding-3-large" {
		reqBody.Dimensions = p.dims
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, diag.New(diag.KindRemoteFailure, "embed_http", p.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var parsed embeddingResponse
	if resp.StatusCode != http.StatusOK {
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			return nil, diag.New(diag.KindRemoteFailure, "embed_http", p.baseURL,
				fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error.Message))
		}
		return nil, diag.New(diag.KindRemoteFailure, "embed_http", p.baseURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding response index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

var _ Provider = (*HTTPProvider)(nil)

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/corpus-engine/internal/httputil"
	"github.com/pdiddy/corpus-engine/pkg/types"
)

// HTTPExtractor POSTs the request JSON to a configured endpoint and decodes
// the result JSON from the response body. Rate-limited and transiently failing
// responses are retried with backoff.
type HTTPExtractor struct {
	URL    string
	Client *http.Client

	// MaxRetries bounds retry attempts on retryable status codes. Zero uses
	// the httputil default.
	MaxRetries int
}

// Extract calls the endpoint for one chunk.
func (h *HTTPExtractor) Extract(ctx context.Context, req types.ExtractorRequest) (types.ExtractorResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return types.ExtractorResult{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		return types.ExtractorResult{}, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, httpReq, h.MaxRetries)
	if err != nil {
		return types.ExtractorResult{}, fmt.Errorf("calling extractor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.ExtractorResult{}, fmt.Errorf("extractor returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var result types.ExtractorResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.ExtractorResult{}, fmt.Errorf("parsing extractor response: %w", err)
	}
	return result, nil
}

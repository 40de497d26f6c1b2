package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient posts interview data to an external service and returns the
// decoded JSON response. Implementations must honor the context.
type HTTPClient interface {
	PostJSON(ctx context.Context, url string, body map[string]any) (any, error)
}

type httpClient struct {
	client *http.Client
}

// NewHTTPClient returns the default HTTPClient with a request timeout.
func NewHTTPClient() HTTPClient {
	return &httpClient{client: &http.Client{Timeout: 30 * time.Second}}
}

func (c *httpClient) PostJSON(ctx context.Context, url string, body map[string]any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("POST %s: unexpected status %d", url, resp.StatusCode)
	}
	var result any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return result, nil
}

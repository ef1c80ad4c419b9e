package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type classifyRequest struct {
	Text string `json:"text"`
}

// HTTPClassifier calls an external classification service with a JSON POST.
type HTTPClassifier struct {
	url        string
	httpClient *http.Client
}

// NewHTTPClassifier creates a classifier client. A nil client uses
// http.DefaultClient; deadlines come from the request context.
func NewHTTPClassifier(url string, client *http.Client) *HTTPClassifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClassifier{url: url, httpClient: client}
}

// Classify sends text to the service and decodes its verdict.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	bodyBytes, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return Classification{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Classification{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Classification{}, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var out Classification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Classification{}, fmt.Errorf("decode response: %w", err)
	}
	if !out.ThreatType.Valid() || !out.ThreatLevel.Valid() {
		return Classification{}, fmt.Errorf("classifier returned unknown verdict %q/%q", out.ThreatType, out.ThreatLevel)
	}
	return out, nil
}

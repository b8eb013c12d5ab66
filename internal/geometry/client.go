package geometry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kvitto/internal/config"
	"kvitto/internal/port"
)

// Client talks to the optional document-geometry microservice. The service
// runs the same crop/orient correction out of process; when it is absent or
// unhealthy the pipeline falls back to the in-process normalizer.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a geometry microservice client from config.
// Returns nil when no service URL is configured.
func NewClient(cfg *config.GeometryConfig) *Client {
	if cfg.ServiceURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.ServiceURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// ProcessReceipt asks the microservice to crop and orient an already-uploaded file.
func (c *Client) ProcessReceipt(ctx context.Context, fileName string) (*port.ProcessResult, error) {
	reqBody, err := json.Marshal(map[string]string{"fileName": fileName})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-receipt", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geometry service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geometry service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result port.ProcessResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("geometry service reported failure for %s", fileName)
	}
	return &result, nil
}

// Healthy probes the service health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHostingTimeout = 15 * time.Second

// HostingClient registers domains with an external hosting/certificate API.
// The remote service takes over TLS issuance and edge configuration; we only
// hand it the domain name and observe the result through later probes or the
// issuance callback.
type HostingClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHostingClient creates a client for the hosting provisioner API.
func NewHostingClient(baseURL, apiKey string, timeout time.Duration) *HostingClient {
	if timeout <= 0 {
		timeout = defaultHostingTimeout
	}
	return &HostingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Register submits the domain to the hosting API for certificate issuance.
func (c *HostingClient) Register(ctx context.Context, domain string) error {
	body, err := json.Marshal(map[string]string{"name": domain})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/domains"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call hosting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hosting API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

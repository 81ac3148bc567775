package probe

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single probe so one slow tenant domain cannot stall
// a shared worker.
const DefaultTimeout = 10 * time.Second

// Prober confirms that a domain is actually publicly reachable over HTTPS,
// which is a different question from whether DNS points the right way. A
// stored live status is re-validated with this on every check instead of
// being trusted.
type Prober struct {
	client *http.Client
}

// NewProber creates a liveness prober. Redirects are followed: a storefront
// that answers 301 to its www form still counts as up.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		client: &http.Client{Timeout: timeout},
	}
}

// Accessible issues a HEAD request against https://<domain>/ and treats any
// 200-399 answer as reachable. Transport failures of any kind are "not
// accessible" — the caller decides what that means for lifecycle state.
func (p *Prober) Accessible(ctx context.Context, domain string) bool {
	return p.AccessibleURL(ctx, "https://"+domain+"/")
}

// AccessibleURL is the transport-level probe behind Accessible.
func (p *Prober) AccessibleURL(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusBadRequest
}

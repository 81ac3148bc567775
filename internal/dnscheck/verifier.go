package dnscheck

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/miekg/dns"
)

const defaultTimeout = 5 * time.Second

// Config holds DNS verifier configuration
type Config struct {
	// IngressIP is the platform's published ingress address tenants must
	// point their A records at.
	IngressIP string
	// ResolverAddr is the resolver to query as host:port. Empty means the
	// first system resolver from /etc/resolv.conf.
	ResolverAddr string
	// Timeout bounds a single lookup.
	Timeout time.Duration
}

// Verifier answers one question: does the domain's DNS currently point at the
// platform ingress address. Every failure mode (NXDOMAIN, timeout, SERVFAIL,
// unreachable resolver) means "not yet pointed" — during propagation these are
// expected and retryable, never errors to surface to the tenant.
type Verifier struct {
	ingressIP    net.IP
	resolverAddr string
	timeout      time.Duration
}

// NewVerifier creates a DNS verifier for the configured ingress address.
func NewVerifier(cfg Config) (*Verifier, error) {
	ip := net.ParseIP(cfg.IngressIP)
	if ip == nil {
		return nil, fmt.Errorf("invalid platform ingress IP: %q", cfg.IngressIP)
	}

	addr := cfg.ResolverAddr
	if addr == "" {
		addr = systemResolver()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Verifier{
		ingressIP:    ip,
		resolverAddr: addr,
		timeout:      timeout,
	}, nil
}

// PointsAtPlatform resolves the domain's A records and reports whether any of
// them equals the platform ingress IP.
func (v *Verifier) PointsAtPlatform(ctx context.Context, domain string) bool {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeA)

	client := &dns.Client{Timeout: v.timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, v.resolverAddr)
	if err != nil {
		log.Printf("[DNSCheck] lookup failed for %s: %v", domain, err)
		return false
	}
	if resp.Rcode != dns.RcodeSuccess {
		return false
	}

	return v.matches(resp.Answer)
}

// matches reports whether any A answer equals the ingress IP.
func (v *Verifier) matches(answers []dns.RR) bool {
	for _, rr := range answers {
		if a, ok := rr.(*dns.A); ok && a.A.Equal(v.ingressIP) {
			return true
		}
	}
	return false
}

func systemResolver() string {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err == nil && len(conf.Servers) > 0 {
		return net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	// No usable resolv.conf; fall back to a public resolver.
	return "8.8.8.8:53"
}

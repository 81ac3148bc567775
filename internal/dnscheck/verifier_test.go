package dnscheck

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func TestNewVerifier_InvalidIP(t *testing.T) {
	_, err := NewVerifier(Config{IngressIP: "not-an-ip"})
	if err == nil {
		t.Error("Expected error for invalid ingress IP")
	}
}

func TestNewVerifier_Defaults(t *testing.T) {
	v, err := NewVerifier(Config{IngressIP: "203.0.113.10"})
	if err != nil {
		t.Fatalf("NewVerifier() failed: %v", err)
	}
	if v.timeout != defaultTimeout {
		t.Errorf("Expected default timeout %v, got %v", defaultTimeout, v.timeout)
	}
	if v.resolverAddr == "" {
		t.Error("resolver address should never be empty")
	}
}

func aRecord(t *testing.T, name, ip string) dns.RR {
	t.Helper()
	return &dns.A{
		Hdr: dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.ParseIP(ip),
	}
}

func TestMatches(t *testing.T) {
	v, err := NewVerifier(Config{IngressIP: "203.0.113.10", ResolverAddr: "127.0.0.1:53"})
	if err != nil {
		t.Fatalf("NewVerifier() failed: %v", err)
	}

	tests := []struct {
		name    string
		answers []dns.RR
		want    bool
	}{
		{"points at platform", []dns.RR{aRecord(t, "shop.example.com", "203.0.113.10")}, true},
		{"points elsewhere", []dns.RR{aRecord(t, "shop.example.com", "198.51.100.7")}, false},
		{"one of several", []dns.RR{
			aRecord(t, "shop.example.com", "198.51.100.7"),
			aRecord(t, "shop.example.com", "203.0.113.10"),
		}, true},
		{"no answers", nil, false},
		{"cname only", []dns.RR{&dns.CNAME{
			Hdr:    dns.RR_Header{Name: dns.Fqdn("shop.example.com"), Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 60},
			Target: dns.Fqdn("other.example.net"),
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.matches(tt.answers); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPointsAtPlatform_UnreachableResolver(t *testing.T) {
	// Nothing listens on this port; lookup failure must read as "not pointed".
	v, err := NewVerifier(Config{
		IngressIP:    "203.0.113.10",
		ResolverAddr: "127.0.0.1:1",
		Timeout:      200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewVerifier() failed: %v", err)
	}

	if v.PointsAtPlatform(context.Background(), "shop.example.com") {
		t.Error("unreachable resolver must report not pointed")
	}
}

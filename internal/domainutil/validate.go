package domainutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

const (
	minDomainLength = 4
	maxDomainLength = 253
	maxLabelLength  = 63
)

// Result reports whether a candidate domain is acceptable and, when it is not,
// a reason suitable for showing to the tenant.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func invalid(reason string) Result {
	return Result{Valid: false, Reason: reason}
}

// Validate checks a candidate custom domain. The input is expected to be
// normalized already (see Normalize). Validation never panics and never
// silently coerces input; rejections carry an actionable reason.
func Validate(domain string) Result {
	if len(domain) < minDomainLength {
		return invalid(fmt.Sprintf("domain is too short (minimum %d characters)", minDomainLength))
	}
	if len(domain) > maxDomainLength {
		return invalid(fmt.Sprintf("domain is too long (maximum %d characters)", maxDomainLength))
	}
	if net.ParseIP(domain) != nil {
		return invalid("IP addresses cannot be used as a custom domain")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return invalid("domain must contain at least one dot (e.g. shop.example.com)")
	}

	for _, label := range labels {
		if label == "" {
			return invalid("domain contains an empty label (leading, trailing or consecutive dots)")
		}
		if len(label) > maxLabelLength {
			return invalid(fmt.Sprintf("label %q is too long (maximum %d characters)", label, maxLabelLength))
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return invalid(fmt.Sprintf("label %q cannot start or end with a hyphen", label))
		}
		for _, r := range label {
			if !isLabelRune(r) {
				return invalid(fmt.Sprintf("label %q contains invalid character %q", label, r))
			}
		}
	}

	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return invalid("top-level label must be at least 2 characters")
	}
	if isNumeric(tld) {
		return invalid("top-level label cannot be numeric")
	}

	// Claiming a bare public suffix (e.g. "co.uk") would shadow every domain
	// under it.
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return invalid("domain is a public suffix and cannot be claimed")
	}

	return Result{Valid: true}
}

func isLabelRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

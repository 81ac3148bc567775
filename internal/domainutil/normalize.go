package domainutil

import (
	"net"
	"strings"
)

// Normalize converts a raw host header into the canonical comparison key used
// everywhere a domain is stored or matched:
//   - lowercase, surrounding whitespace trimmed
//   - scheme stripped (https://x -> x)
//   - path/query/fragment stripped
//   - port stripped (example.com:443 -> example.com)
//   - trailing dot stripped (absolute DNS form)
//   - leading "www." labels stripped (all of them, so the result is stable
//     under re-normalization)
//
// Normalize is pure and total: malformed input simply comes back lowercased
// instead of erroring, so the router and the provisioning flow always agree on
// domain identity.
func Normalize(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))

	if i := strings.Index(host, "://"); i != -1 {
		host = host[i+3:]
	}

	if i := strings.IndexAny(host, "/?#"); i != -1 {
		host = host[:i]
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	host = strings.TrimSuffix(host, ".")
	for strings.HasPrefix(host, "www.") {
		host = strings.TrimPrefix(host, "www.")
	}

	return host
}

package provision

import "context"

// Provisioner registers a domain with the certificate/edge layer so that TLS
// and routing get set up for it. Implementations are expected to be safe to
// call repeatedly for the same domain: registration is idempotent on the
// remote side, and the orchestrator re-dispatches while a domain sits in
// securing.
//
// Dispatch is fire-and-forget from the caller's point of view. The outcome is
// observed on a later status check (the liveness probe starts succeeding) or
// via the issuance callback, never from the Register return value alone.
type Provisioner interface {
	Register(ctx context.Context, domain string) error
}

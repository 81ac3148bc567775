package ws

import (
	"time"

	"shopfront/internal/model"
)

// PublishDomainStatus broadcasts a domain lifecycle transition so dashboards
// polling the status endpoint can update without waiting for the next poll.
// Broadcast failure never affects the transition itself.
func PublishDomainStatus(tenantID, domain string, status model.DomainStatus) {
	BroadcastToAll("domain:status", map[string]interface{}{
		"tenantId": tenantID,
		"domain":   domain,
		"status":   string(status),
		"at":       time.Now().UTC().Format(time.RFC3339),
	})
}

// Notifier adapts the broadcast functions to the provisioning orchestrator's
// notification hook.
type Notifier struct{}

func (Notifier) DomainStatusChanged(tenantID, domain string, status model.DomainStatus) {
	PublishDomainStatus(tenantID, domain, status)
}

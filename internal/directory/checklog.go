package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shopfront/internal/model"

	"gorm.io/datatypes"
)

// CheckEntry is one recorded status-check outcome, kept as a short JSON ring
// on the domain record so the dashboard can show recent provisioning history.
type CheckEntry struct {
	At      time.Time `json:"at"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

const checkLogLimit = 20

// AppendCheckLog records a status-check outcome on the tenant's domain record.
// Failures here are reported but are not fatal to the status check itself.
func (s *Service) AppendCheckLog(ctx context.Context, tenantID string, e CheckEntry) error {
	rec, err := s.FindByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}

	updated, err := appendCheckEntry(rec.CheckLog, e, checkLogLimit)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&model.TenantDomain{}).
		Where("tenant_id = ?", tenantID).
		Update("check_log", updated).Error; err != nil {
		return fmt.Errorf("failed to update check log: %w", err)
	}
	return nil
}

// appendCheckEntry appends e to the serialized ring, keeping only the newest
// limit entries. A corrupt or empty existing log starts a fresh ring.
func appendCheckEntry(existing datatypes.JSON, e CheckEntry, limit int) (datatypes.JSON, error) {
	var entries []CheckEntry
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &entries); err != nil {
			entries = nil
		}
	}

	entries = append(entries, e)
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal check log: %w", err)
	}
	return datatypes.JSON(out), nil
}

package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/model"

	"gorm.io/gorm"
)

// User-level conditions callers translate into 4xx responses.
var (
	ErrDomainTaken    = errors.New("domain is already in use by another tenant")
	ErrTenantNotFound = errors.New("tenant not found")
)

// Service is the Domain Directory: the persistent mapping from custom domains
// to tenants, plus the compare-and-set status writes the provisioning
// orchestrator relies on. Any error returned from a write here is fatal for
// the one call that issued it; reads degrade to "not found".
type Service struct {
	db *gorm.DB
}

// NewService creates a new directory service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FindLiveByDomain returns the slug of the tenant whose domain matches any of
// the candidates. Only records in the live status are eligible for routing;
// anything earlier in the lifecycle resolves to "" (no match).
func (s *Service) FindLiveByDomain(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", nil
	}

	var row struct {
		Slug string `gorm:"column:slug"`
	}
	err := s.db.WithContext(ctx).
		Table("tenant_domains").
		Select("tenants.slug").
		Joins("JOIN tenants ON tenants.tenant_id = tenant_domains.tenant_id").
		Where("tenant_domains.domain IN ? AND tenant_domains.status = ?", candidates, model.DomainStatusLive).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up domain: %w", err)
	}
	return row.Slug, nil
}

// FindByTenant returns the tenant's domain record, or nil if the tenant has
// never configured a domain.
func (s *Service) FindByTenant(ctx context.Context, tenantID string) (*model.TenantDomain, error) {
	var rec model.TenantDomain
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load domain record: %w", err)
	}
	return &rec, nil
}

// FindByDomain returns the record holding the given (normalized) domain, live
// or not. Used by the provisioner issuance callback.
func (s *Service) FindByDomain(ctx context.Context, domain string) (*model.TenantDomain, error) {
	var rec model.TenantDomain
	err := s.db.WithContext(ctx).Where("domain = ?", domain).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load domain record: %w", err)
	}
	return &rec, nil
}

// SetDomain stores a normalized domain for the tenant and resets the lifecycle
// to pending, clearing any certificate timestamp from a previous domain. The
// record is created implicitly on first use.
func (s *Service) SetDomain(ctx context.Context, tenantID, domain string) error {
	var tenantCount int64
	if err := s.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("tenant_id = ?", tenantID).
		Count(&tenantCount).Error; err != nil {
		return fmt.Errorf("failed to check tenant: %w", err)
	}
	if tenantCount == 0 {
		return ErrTenantNotFound
	}

	// Domains are unique across all tenants.
	var taken int64
	if err := s.db.WithContext(ctx).Model(&model.TenantDomain{}).
		Where("domain = ? AND tenant_id <> ?", domain, tenantID).
		Count(&taken).Error; err != nil {
		return fmt.Errorf("failed to check domain uniqueness: %w", err)
	}
	if taken > 0 {
		return ErrDomainTaken
	}

	var rec model.TenantDomain
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = model.TenantDomain{
			TenantID: tenantID,
			Domain:   &domain,
			Status:   model.DomainStatusPending,
		}
		if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create domain record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to load domain record: %w", err)
	default:
		if err := s.db.WithContext(ctx).Model(&model.TenantDomain{}).
			Where("tenant_id = ?", tenantID).
			Updates(map[string]interface{}{
				"domain":                domain,
				"status":                model.DomainStatusPending,
				"certificate_issued_at": nil,
				"check_log":             nil,
			}).Error; err != nil {
			return fmt.Errorf("failed to update domain record: %w", err)
		}
	}

	return nil
}

// ClearDomain removes the tenant's custom domain, resetting the record to
// pending with no domain and no certificate timestamp. Clearing a tenant that
// has no record is a no-op.
func (s *Service) ClearDomain(ctx context.Context, tenantID string) error {
	if err := s.db.WithContext(ctx).Model(&model.TenantDomain{}).
		Where("tenant_id = ?", tenantID).
		Updates(map[string]interface{}{
			"domain":                nil,
			"status":                model.DomainStatusPending,
			"certificate_issued_at": nil,
			"check_log":             nil,
		}).Error; err != nil {
		return fmt.Errorf("failed to clear domain record: %w", err)
	}
	return nil
}

// UpdateStatusFrom writes a status transition only if the current status is
// one of from (optimistic lock, same idea as marking a job running). The
// returned bool tells racing status checks which one of them committed the
// transition; losing the race is not an error. certAt is persisted only on a
// transition into live.
func (s *Service) UpdateStatusFrom(ctx context.Context, tenantID string, from []model.DomainStatus, to model.DomainStatus, certAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to == model.DomainStatusLive {
		updates["certificate_issued_at"] = certAt
	}

	res := s.db.WithContext(ctx).Model(&model.TenantDomain{}).
		Where("tenant_id = ? AND status IN ? AND domain IS NOT NULL", tenantID, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update domain status: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

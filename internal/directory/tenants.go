package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"shopfront/internal/model"

	"github.com/google/uuid"
)

var (
	ErrSlugTaken   = errors.New("slug is already in use")
	ErrInvalidSlug = errors.New("slug must be 2-64 lowercase letters, digits or hyphens")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}[a-z0-9]$`)

// CreateTenant registers a new tenant with an opaque identifier and the slug
// its storefront is namespaced under.
func (s *Service) CreateTenant(ctx context.Context, name, slug string) (*model.Tenant, error) {
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Tenant{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	tenant := model.Tenant{
		TenantID: uuid.New().String(),
		Slug:     slug,
		Name:     name,
	}
	if err := s.db.WithContext(ctx).Create(&tenant).Error; err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return &tenant, nil
}

// ListTenants returns all tenants, newest first.
func (s *Service) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

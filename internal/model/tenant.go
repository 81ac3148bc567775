package model

// Tenant represents a store owner on the platform. The storefront is always
// reachable under the platform namespace via Slug; a custom domain is optional
// and tracked in TenantDomain.
type Tenant struct {
	BaseModel
	TenantID string `gorm:"type:varchar(36);uniqueIndex;not null" json:"tenant_id"`
	Slug     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
}

// TableName specifies the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// DomainStatus represents the provisioning lifecycle of a custom domain
type DomainStatus string

const (
	DomainStatusPending   DomainStatus = "pending"
	DomainStatusVerifying DomainStatus = "verifying"
	DomainStatusSecuring  DomainStatus = "securing"
	DomainStatusLive      DomainStatus = "live"
)

// TenantDomain holds the custom-domain record for a tenant. Domain is nullable:
// nil means no custom domain is configured, and Status is only meaningful while
// Domain is set. CertificateIssuedAt is written exclusively on the transition
// into live and cleared whenever the domain is removed or replaced.
type TenantDomain struct {
	BaseModel
	TenantID            string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"tenant_id"`
	Domain              *string        `gorm:"type:varchar(255);uniqueIndex" json:"domain"`
	Status              DomainStatus   `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	CertificateIssuedAt *time.Time     `json:"certificate_issued_at"`
	CheckLog            datatypes.JSON `gorm:"type:json" json:"check_log"`

	Tenant *Tenant `gorm:"foreignKey:TenantID;references:TenantID" json:"tenant,omitempty"`
}

// TableName specifies the table name for TenantDomain
func (TenantDomain) TableName() string {
	return "tenant_domains"
}

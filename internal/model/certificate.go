package model

import "time"

// Certificate stores an issued TLS certificate for a custom domain when the
// self-managed ACME backend is in use. With the hosting-API backend the
// provider keeps the certificate and this table stays empty.
type Certificate struct {
	ID        int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Domain    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
	Status    string    `gorm:"type:varchar(20);not null;default:pending" json:"status"` // pending|issued|expired|revoked
	CertPem   string    `gorm:"type:text" json:"cert_pem"`
	KeyPem    string    `gorm:"type:text" json:"key_pem"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Certificate
func (Certificate) TableName() string {
	return "certificates"
}

// Certificate status constants
const (
	CertificateStatusPending = "pending"
	CertificateStatusIssued  = "issued"
	CertificateStatusExpired = "expired"
	CertificateStatusRevoked = "revoked"
)

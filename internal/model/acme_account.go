package model

import "time"

// ACMEAccount represents the platform's account at the ACME CA used by the
// self-managed provisioner backend.
type ACMEAccount struct {
	ID              int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string    `gorm:"type:varchar(255);not null" json:"email"`
	AccountKeyPem   string    `gorm:"type:text;not null" json:"account_key_pem"`               // Private key for ACME account
	RegistrationURI string    `gorm:"type:varchar(500)" json:"registration_uri"`               // ACME registration URI
	Status          string    `gorm:"type:varchar(20);not null;default:pending" json:"status"` // pending|active|inactive
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for ACMEAccount
func (ACMEAccount) TableName() string {
	return "acme_accounts"
}

// ACMEAccount status constants
const (
	ACMEAccountStatusPending  = "pending"
	ACMEAccountStatusActive   = "active"
	ACMEAccountStatusInactive = "inactive"
)

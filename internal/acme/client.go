package acme

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/challenge/http01"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"gorm.io/gorm"

	"shopfront/internal/model"
)

// SelfManagedProvisioner obtains certificates directly from an ACME CA via
// the HTTP-01 challenge instead of delegating to a hosting API. It satisfies
// provision.Provisioner. Issued certificates land in the certificates table
// for the edge layer to pick up.
type SelfManagedProvisioner struct {
	db           *gorm.DB
	directoryURL string
	email        string
	httpPort     string

	mu      sync.Mutex
	account *model.ACMEAccount
}

// NewSelfManagedProvisioner creates an ACME-backed provisioner. httpPort is
// where the HTTP-01 challenge responder listens; the ingress must route
// /.well-known/acme-challenge/ for pending domains to it.
func NewSelfManagedProvisioner(db *gorm.DB, directoryURL, email, httpPort string) *SelfManagedProvisioner {
	if directoryURL == "" {
		directoryURL = lego.LEDirectoryProduction
	}
	return &SelfManagedProvisioner{
		db:           db,
		directoryURL: directoryURL,
		email:        email,
		httpPort:     httpPort,
	}
}

// user implements registration.User for lego
type user struct {
	email        string
	registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *user) GetEmail() string                        { return u.email }
func (u *user) GetRegistration() *registration.Resource { return u.registration }
func (u *user) GetPrivateKey() crypto.PrivateKey        { return u.key }

// Register obtains a certificate for the domain and stores it. Re-registering
// an already-issued domain replaces the stored certificate, which makes
// repeated dispatches for the same domain safe.
func (p *SelfManagedProvisioner) Register(ctx context.Context, domain string) error {
	acct, err := p.ensureAccount()
	if err != nil {
		return fmt.Errorf("failed to ensure ACME account: %w", err)
	}

	privateKey, err := parsePrivateKey(acct.AccountKeyPem)
	if err != nil {
		return fmt.Errorf("failed to parse account key: %w", err)
	}

	config := lego.NewConfig(&user{
		email:        acct.Email,
		registration: &registration.Resource{URI: acct.RegistrationURI},
		key:          privateKey,
	})
	config.CADirURL = p.directoryURL

	client, err := lego.NewClient(config)
	if err != nil {
		return fmt.Errorf("failed to create lego client: %w", err)
	}

	if err := client.Challenge.SetHTTP01Provider(http01.NewProviderServer("", p.httpPort)); err != nil {
		return fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	certs, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domain},
		Bundle:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to obtain certificate for %s: %w", domain, err)
	}

	expiresAt, err := certificateNotAfter(certs.Certificate)
	if err != nil {
		return fmt.Errorf("failed to parse issued certificate: %w", err)
	}

	return p.saveCertificate(domain, string(certs.Certificate), string(certs.PrivateKey), expiresAt)
}

// ensureAccount loads the active ACME account or registers a new one.
func (p *SelfManagedProvisioner) ensureAccount() (*model.ACMEAccount, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.account != nil {
		return p.account, nil
	}

	var acct model.ACMEAccount
	err := p.db.Where("status = ?", model.ACMEAccountStatusActive).First(&acct).Error
	if err == nil {
		p.account = &acct
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account key: %w", err)
	}
	keyPem, err := encodePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account key: %w", err)
	}

	config := lego.NewConfig(&user{email: p.email, key: key})
	config.CADirURL = p.directoryURL

	client, err := lego.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create lego client: %w", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{
		TermsOfServiceAgreed: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register ACME account: %w", err)
	}

	acct = model.ACMEAccount{
		Email:           p.email,
		AccountKeyPem:   keyPem,
		RegistrationURI: reg.URI,
		Status:          model.ACMEAccountStatusActive,
	}
	if err := p.db.Create(&acct).Error; err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	p.account = &acct
	return &acct, nil
}

// saveCertificate upserts the issued certificate keyed by domain.
func (p *SelfManagedProvisioner) saveCertificate(domain, certPem, keyPem string, expiresAt time.Time) error {
	now := time.Now().UTC()

	var existing model.Certificate
	err := p.db.Where("domain = ?", domain).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.db.Create(&model.Certificate{
			Domain:    domain,
			Status:    model.CertificateStatusIssued,
			CertPem:   certPem,
			KeyPem:    keyPem,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
		}).Error
	}
	if err != nil {
		return err
	}

	return p.db.Model(&existing).Updates(map[string]interface{}{
		"status":     model.CertificateStatusIssued,
		"cert_pem":   certPem,
		"key_pem":    keyPem,
		"issued_at":  now,
		"expires_at": expiresAt,
	}).Error
}

// certificateNotAfter extracts the expiry from the leaf certificate in a
// bundled PEM chain.
func certificateNotAfter(bundle []byte) (time.Time, error) {
	block, _ := pem.Decode(bundle)
	if block == nil {
		return time.Time{}, errors.New("failed to decode certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, err
	}
	return cert.NotAfter, nil
}

// parsePrivateKey parses a PEM-encoded private key
func parsePrivateKey(keyPem string) (crypto.PrivateKey, error) {
	block, _ := pem.Decode([]byte(keyPem))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	return nil, errors.New("unsupported private key type")
}

// encodePrivateKey encodes a private key to PEM format
func encodePrivateKey(key crypto.PrivateKey) (string, error) {
	k, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return "", errors.New("unsupported private key type")
	}
	keyBytes, err := x509.MarshalECPrivateKey(k)
	if err != nil {
		return "", err
	}

	block := &pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyBytes,
	}
	return string(pem.EncodeToMemory(block)), nil
}

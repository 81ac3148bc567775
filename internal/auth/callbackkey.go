package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashCallbackKey hashes the shared key the certificate provisioner presents
// on issuance callbacks. Only the hash is kept in configuration.
func HashCallbackKey(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareCallbackKey compares a stored bcrypt hash with a presented key
func CompareCallbackKey(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

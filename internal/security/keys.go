// Package security verifies operator access tokens for the HTTP API.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"strings"
)

// ErrInvalidKey is returned when PEM or key type is invalid.
var ErrInvalidKey = errors.New("invalid key")

// loadPEM returns s as PEM bytes when it is inline PEM (literal "\n" sequences from env files
// are expanded), otherwise reads the file at path s.
func loadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePublicKey parses a PEM-encoded RSA or ECDSA public key. s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := loadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	var pub crypto.PublicKey
	switch block.Type {
	case "RSA PUBLIC KEY":
		pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}
	if keyAlg(pub) == "" {
		return nil, ErrInvalidKey
	}
	return pub, nil
}

// keyAlg returns the JWT algorithm family accepted for pub: RS256 for RSA, ES256 for ECDSA.
func keyAlg(pub crypto.PublicKey) string {
	switch pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		return "ES256"
	default:
		return ""
	}
}

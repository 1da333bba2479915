package security

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired or not issued for this API.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the access-token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Verifier validates operator access tokens issued by the external auth service.
type Verifier struct {
	key    crypto.PublicKey
	parser *jwt.Parser
}

// NewVerifier returns a Verifier for tokens signed with the key in publicKey (inline PEM or path).
// iss and aud must match issuer and audience.
func NewVerifier(publicKey, issuer, audience string) (*Verifier, error) {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("security: JWT public key: %w", err)
	}
	return &Verifier{
		key: pub,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{keyAlg(pub)}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}, nil
}

// Verify parses and validates the token (signature, exp, iss, aud) and returns its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	t, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package httpclient

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// serviceClaims identifies this process to the remote feedback data service.
// Unlike the teacher's end-user auth.Claims, these carry no role/org — the
// remote service authorizes by accountID embedded in every query, not by
// token scope.
type serviceClaims struct {
	jwt.RegisteredClaims
	ServiceName string `json:"service_name"`
}

// tokenIssuer signs short-lived bearer tokens for outbound calls using
// Ed25519 (EdDSA), the same signing method the teacher uses for end-user
// sessions.
type tokenIssuer struct {
	privateKey  ed25519.PrivateKey
	serviceName string
	audience    string
	ttl         time.Duration
}

// newTokenIssuer builds a tokenIssuer from a raw 64-byte Ed25519 seed+key.
// If key is nil, an ephemeral key pair is generated — acceptable only
// against a data service configured to accept it (local/dev).
func newTokenIssuer(key ed25519.PrivateKey, serviceName, audience string, ttl time.Duration) *tokenIssuer {
	if key == nil {
		slog.Warn("httpclient: no signing key configured, generating ephemeral key pair (not for production)")
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			panic(fmt.Errorf("httpclient: generate ephemeral key: %w", err))
		}
		key = priv
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &tokenIssuer{privateKey: key, serviceName: serviceName, audience: audience, ttl: ttl}
}

func (t *tokenIssuer) issue() (string, error) {
	now := time.Now().UTC()
	claims := serviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.serviceName,
			Issuer:    t.serviceName,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		ServiceName: t.serviceName,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(t.privateKey)
	if err != nil {
		return "", fmt.Errorf("httpclient: sign token: %w", err)
	}
	return signed, nil
}

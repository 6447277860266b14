// Package authtoken issues and verifies the bearer tokens that protect the
// credit endpoints. Clients exchange their credentials for a short-lived JWT;
// the secret is only ever stored as a bcrypt hash.
package authtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "creditgate"

// ErrBadCredentials is returned for an unknown client or wrong secret. The
// two cases are deliberately indistinguishable to the caller.
var ErrBadCredentials = errors.New("bad client credentials")

// Manager holds the signing key and the single registered API client.
type Manager struct {
	signingKey []byte
	clientID   string
	secretHash []byte
	ttl        time.Duration
}

func NewManager(signingKey, clientID, secretHash string, ttl time.Duration) *Manager {
	return &Manager{
		signingKey: []byte(signingKey),
		clientID:   clientID,
		secretHash: []byte(secretHash),
		ttl:        ttl,
	}
}

// Exchange trades client credentials for a signed token.
func (m *Manager) Exchange(clientID, clientSecret string) (string, error) {
	if clientID != m.clientID {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(m.secretHash, []byte(clientSecret)); err != nil {
		return "", ErrBadCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and issuer, returning the client ID.
func (m *Manager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.signingKey, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

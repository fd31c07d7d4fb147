package geocode

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSigner issues the short-lived ES256 maps token that is exchanged for
// an API access token.
type TokenSigner struct {
	TeamID string
	KeyID  string
	Key    *ecdsa.PrivateKey
	TTL    time.Duration
	Now    func() time.Time
}

// NewTokenSignerFromFile loads a PEM (.p8) private key.
func NewTokenSignerFromFile(teamID, keyID, path string) (*TokenSigner, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read maps key: %w", err)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("parse maps key: %w", err)
	}
	return &TokenSigner{TeamID: teamID, KeyID: keyID, Key: key, TTL: 30 * time.Minute, Now: time.Now}, nil
}

// Sign returns a signed maps token.
func (s *TokenSigner) Sign() (string, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	ttl := s.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.TeamID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.KeyID

	signed, err := token.SignedString(s.Key)
	if err != nil {
		return "", fmt.Errorf("sign maps token: %w", err)
	}
	return signed, nil
}

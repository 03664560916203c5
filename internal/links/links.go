// Package links signs and verifies download links for generated PDFs.
//
// A link token is an HS256 JWT whose subject is the output file name. Tokens
// expire after the signer's TTL, which should not exceed how long outputs are
// kept on disk.
package links

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired link")

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer. An empty secret is replaced by random bytes,
// which invalidates links on restart.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate link secret: %w", err)
		}
	}
	return &Signer{secret: key, ttl: ttl, now: time.Now}, nil
}

func (s *Signer) Sign(name string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks the token signature, expiry and that it was issued for name.
func (s *Signer) Verify(token, name string) error {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	if claims.Subject != name {
		return ErrInvalidToken
	}
	return nil
}

// Path returns the download path for an output file.
func (s *Signer) Path(name string) (string, error) {
	token, err := s.Sign(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/outputs/%s?token=%s", name, token), nil
}

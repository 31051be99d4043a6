package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"urs-backend/internal/shared/access"
)

// Claims is the identity carried in an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	Agency string `json:"agency,omitempty"`
}

// Principal converts verified claims into the acting principal.
func (c Claims) Principal() access.Principal {
	return access.Principal{
		UserID: c.Subject,
		Name:   c.Name,
		Email:  c.Email,
		Role:   access.ParseRole(c.Role),
		Agency: c.Agency,
	}
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const defaultTTL = 24 * time.Hour

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer. Production requires an explicit secret; other
// environments fall back to a fixed development secret.
func NewSigner(secret, env string) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if env == "production" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
		secret = "dev-secret"
	}
	return &Signer{secret: []byte(secret), ttl: defaultTTL, now: time.Now}, nil
}

// Sign issues a token for p.
func (s *Signer) Sign(p access.Principal) (string, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return "", errors.New("sub is required")
	}
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:  p.Email,
		Name:   p.Name,
		Role:   string(p.Role),
		Agency: p.Agency,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses token and returns its claims.
func (s *Signer) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
